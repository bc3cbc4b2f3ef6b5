// Package config reads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Slot backends.
const (
	SlotFile   = "file"
	SlotSQLite = "sqlite"
)

// Config holds runtime settings.
type Config struct {
	// APIURL is the tracker server. Empty means the in-process mock.
	APIURL string
	// Token, when set, takes precedence over the persisted token.
	Token       string
	Home        string
	Slot        string
	LogFile     string
	LogLevel    string
	MockLatency time.Duration
	// TrackerURL is the web base used to open tasks in a browser.
	TrackerURL string
	Addr       string
}

// Load reads envFiles (".env" when none are given) and then the environment.
// Missing env files are ignored. Variables already set in the environment
// win over file values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config.Load: %s: %w", f, err)
		}
	}

	home := os.Getenv("TASKBOARD_HOME")
	if home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("config.Load: get home dir: %w", err)
		}
		home = filepath.Join(dir, ".taskboard")
	}

	cfg := Config{
		APIURL:     os.Getenv("TASKBOARD_API_URL"),
		Token:      os.Getenv("TASKBOARD_TOKEN"),
		Home:       home,
		Slot:       strings.ToLower(envOr("TASKBOARD_SLOT", SlotFile)),
		LogFile:    envOr("TASKBOARD_LOG_FILE", filepath.Join(home, "taskboard.log")),
		LogLevel:   envOr("TASKBOARD_LOG_LEVEL", "info"),
		TrackerURL: envOr("TASKBOARD_TRACKER_URL", "https://tracker.example.com"),
		Addr:       envOr("TASKBOARD_ADDR", "127.0.0.1:8080"),
	}
	if cfg.Slot != SlotFile && cfg.Slot != SlotSQLite {
		return Config{}, fmt.Errorf("config.Load: TASKBOARD_SLOT must be %q or %q, got %q", SlotFile, SlotSQLite, cfg.Slot)
	}

	latency, err := time.ParseDuration(envOr("TASKBOARD_MOCK_LATENCY", "800ms"))
	if err != nil {
		return Config{}, fmt.Errorf("config.Load: TASKBOARD_MOCK_LATENCY: %w", err)
	}
	cfg.MockLatency = latency
	return cfg, nil
}

// TokenPath returns the token file used by the file slot.
func (c Config) TokenPath() string {
	return filepath.Join(c.Home, "token")
}

// DBPath returns the database used by the sqlite slot.
func (c Config) DBPath() string {
	return filepath.Join(c.Home, "taskboard.db")
}

// UseMock reports whether tasks and logins are served in-process.
func (c Config) UseMock() bool {
	return c.APIURL == ""
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
