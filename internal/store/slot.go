// Package store holds the durable slot for the current session token.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Slot persists a single token string. Load returns "" when nothing is stored.
type Slot interface {
	Load() (string, error)
	Save(tok string) error
	Clear() error
}

// FileSlot keeps the token in a 0600 file.
type FileSlot struct {
	path string
}

// NewFileSlot returns a slot backed by path. The file is created on first Save.
func NewFileSlot(path string) *FileSlot {
	return &FileSlot{path: path}
}

// Path returns the backing file path.
func (s *FileSlot) Path() string { return s.path }

func (s *FileSlot) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("store.FileSlot.Load: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileSlot) Save(tok string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("store.FileSlot.Save: create dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(tok), 0600); err != nil {
		return fmt.Errorf("store.FileSlot.Save: %w", err)
	}
	return nil
}

func (s *FileSlot) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store.FileSlot.Clear: %w", err)
	}
	return nil
}

// MemorySlot keeps the token in memory. The zero value is ready to use.
type MemorySlot struct {
	mu  sync.Mutex
	tok string
}

func (s *MemorySlot) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tok, nil
}

func (s *MemorySlot) Save(tok string) error {
	s.mu.Lock()
	s.tok = tok
	s.mu.Unlock()
	return nil
}

func (s *MemorySlot) Clear() error {
	return s.Save("")
}

// envSlot serves a token supplied through the environment ahead of the
// persisted one. Save and Clear go to the underlying slot; Clear also drops
// the override so a forced logout sticks for the rest of the process.
type envSlot struct {
	mu       sync.Mutex
	override string
	next     Slot
}

// WithEnvOverride returns a slot that loads override (when non-empty) in
// preference to next.
func WithEnvOverride(next Slot, override string) Slot {
	override = strings.TrimSpace(override)
	if override == "" {
		return next
	}
	return &envSlot{override: override, next: next}
}

func (s *envSlot) Load() (string, error) {
	s.mu.Lock()
	override := s.override
	s.mu.Unlock()
	if override != "" {
		return override, nil
	}
	return s.next.Load()
}

func (s *envSlot) Save(tok string) error {
	s.mu.Lock()
	s.override = ""
	s.mu.Unlock()
	return s.next.Save(tok)
}

// Discard drops tok when it is the override and leaves the persisted token
// in place. Any other token is cleared from the underlying slot.
func (s *envSlot) Discard(tok string) error {
	s.mu.Lock()
	if s.override != "" && s.override == tok {
		s.override = ""
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	return s.next.Clear()
}

func (s *envSlot) Clear() error {
	s.mu.Lock()
	s.override = ""
	s.mu.Unlock()
	return s.next.Clear()
}
