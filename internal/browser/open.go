// Package browser opens tracker pages in the user's default browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// starter launches a command without waiting for it. Replaced in tests.
var starter = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Open opens the specified URL in the user's default browser.
func Open(rawURL string) error {
	switch runtime.GOOS {
	case "darwin":
		return starter("open", rawURL)
	case "linux":
		return starter("xdg-open", rawURL)
	case "windows":
		return starter("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
}

// TaskURL returns the tracker page for a task key, e.g. base/browse/PROJ-101.
func TaskURL(base, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("browser.TaskURL: empty task key")
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("browser.TaskURL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("browser.TaskURL: unsupported scheme %q", u.Scheme)
	}
	return u.JoinPath("browse", key).String(), nil
}

// OpenTask opens the tracker page for key.
func OpenTask(base, key string) error {
	u, err := TaskURL(base, key)
	if err != nil {
		return err
	}
	return Open(u)
}
