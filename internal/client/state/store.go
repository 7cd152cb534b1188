package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrSnapshotNotFound is returned when no snapshot exists under a name
var ErrSnapshotNotFound = errors.New("snapshot not found")

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	name           TEXT PRIMARY KEY,
	schema_version INTEGER NOT NULL,
	payload        BLOB NOT NULL,
	updated_at     DATETIME NOT NULL
);`

// Config holds configuration for the snapshot store
type Config struct {
	// Path is the sqlite database file
	Path string
}

// Store is a durable store for versioned client-state snapshots.
// Each snapshot is a complete schema-tagged document; writers always
// replace the whole payload, so a restart restores exactly what the last
// mutation wrote.
type Store struct {
	db *sql.DB
}

// Open creates or opens a snapshot store
func Open(cfg *Config) (*Store, error) {
	if cfg == nil || cfg.Path == "" {
		return nil, errors.New("config and path cannot be empty")
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize state schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Save writes a complete snapshot under a name, replacing any previous one
func (s *Store) Save(name string, version int, payload []byte) error {
	if name == "" {
		return errors.New("snapshot name cannot be empty")
	}

	_, err := s.db.Exec(`
		INSERT INTO snapshots (name, schema_version, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			schema_version = excluded.schema_version,
			payload        = excluded.payload,
			updated_at     = excluded.updated_at`,
		name, version, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", name, err)
	}

	return nil
}

// Load reads the snapshot stored under a name
func (s *Store) Load(name string) (payload []byte, version int, err error) {
	if name == "" {
		return nil, 0, errors.New("snapshot name cannot be empty")
	}

	row := s.db.QueryRow(`SELECT schema_version, payload FROM snapshots WHERE name = ?`, name)
	if err := row.Scan(&version, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrSnapshotNotFound
		}
		return nil, 0, fmt.Errorf("failed to load snapshot %s: %w", name, err)
	}

	return payload, version, nil
}

// Delete removes the snapshot stored under a name
func (s *Store) Delete(name string) error {
	if name == "" {
		return errors.New("snapshot name cannot be empty")
	}

	if _, err := s.db.Exec(`DELETE FROM snapshots WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", name, err)
	}

	return nil
}

// Close releases the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}
