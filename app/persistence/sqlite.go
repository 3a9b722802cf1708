package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// keys used by the application
const (
	KeyEndpointURL = "settings.endpointUrl"
	KeyActiveJobID = "job.activeId"
)

//go:generate moq -out mocks/kv.go -pkg mocks -skip-ensure -fmt goimports . KV

// KV defines durable, synchronous key-value storage
type KV interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// StorageError reports a failed persistence operation
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

const defaultOpTimeout = 5 * time.Second

// SQLiteStore implements KV using SQLite
type SQLiteStore struct {
	db      *sqlx.DB
	timeout time.Duration
}

type kvRecord struct {
	Key       string `db:"key"`
	Value     string `db:"value"`
	UpdatedAt int64  `db:"updated_at"`
}

// NewSQLiteStore creates a new SQLite store and initializes the schema
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer, serialized access

	// enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to set WAL mode: %w (also failed to close db: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, timeout: defaultOpTimeout}
	if err := s.initialize(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize: %w (also failed to close db: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return s, nil
}

// initialize creates the database schema
func (s *SQLiteStore) initialize() error {
	query := `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER
	)`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to execute query: %w", err)
	}
	return nil
}

// Get returns value for the key, found is false if the key is absent
func (s *SQLiteStore) Get(key string) (value string, found bool, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var rec kvRecord
	err = s.db.GetContext(ctx, &rec, `SELECT key, value, updated_at FROM kv WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Op: "get", Key: key, Err: err}
	}
	return rec.Value, true, nil
}

// Set stores value for the key, replacing the previous one
func (s *SQLiteStore) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	rec := kvRecord{Key: key, Value: value, UpdatedAt: time.Now().Unix()}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (:key, :value, :updated_at)`, rec)
	if err != nil {
		return &StorageError{Op: "set", Key: key, Err: err}
	}
	log.Printf("[DEBUG] stored %s", key)
	return nil
}

// Delete removes the key. Deleting an absent key is not an error.
func (s *SQLiteStore) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}
	log.Printf("[DEBUG] deleted %s", key)
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
