package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const tokenKey = "token"

// SQLiteSlot keeps the token in a key-value table of a local sqlite file.
type SQLiteSlot struct {
	db *sql.DB
}

// OpenSQLiteSlot opens (and if needed creates) the database at path.
func OpenSQLiteSlot(path string) (*SQLiteSlot, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store.OpenSQLiteSlot: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("store.OpenSQLiteSlot: ping: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("store.OpenSQLiteSlot: schema: %w", err)
	}
	return &SQLiteSlot{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
    CREATE TABLE IF NOT EXISTS kv (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    `
	_, err := db.Exec(schema)
	return err
}

func (s *SQLiteSlot) Load() (string, error) {
	var tok string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, tokenKey).Scan(&tok)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store.SQLiteSlot.Load: %w", err)
	}
	return tok, nil
}

func (s *SQLiteSlot) Save(tok string) error {
	query := `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.Exec(query, tokenKey, tok); err != nil {
		return fmt.Errorf("store.SQLiteSlot.Save: %w", err)
	}
	return nil
}

func (s *SQLiteSlot) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, tokenKey); err != nil {
		return fmt.Errorf("store.SQLiteSlot.Clear: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteSlot) Close() error {
	return s.db.Close()
}
