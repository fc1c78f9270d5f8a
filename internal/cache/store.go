// Package cache persists backend responses in a local SQLite database so that
// repeated queries against the same revision of the index skip the network.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"codesearch/internal/domain/errors/domain"

	_ "modernc.org/sqlite"
)

const (
	// databaseFile is the name of the SQLite file inside the cache directory.
	databaseFile = "responses.db"

	// tempDirPattern is passed to os.MkdirTemp for throwaway caches.
	tempDirPattern = "codesearch-cache-"
)

const schema = `
CREATE TABLE IF NOT EXISTS responses (
	key       TEXT PRIMARY KEY,
	body      BLOB NOT NULL,
	stored_at INTEGER NOT NULL
);`

// Store is an on-disk response cache keyed by request fingerprint.
type Store struct {
	db        *sql.DB
	dir       string
	temporary bool
	ttl       time.Duration
	closed    bool
	tornDown  bool
	now       func() time.Time
}

// Open opens or creates a cache in dir. A ttl of zero keeps entries forever.
func Open(dir string, ttl time.Duration) (*Store, error) {
	if dir == "" {
		return nil, errors.New("cache directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return open(dir, ttl, false)
}

// OpenTemp creates a cache in a fresh temporary directory. Teardown removes
// the directory.
func OpenTemp(ttl time.Duration) (*Store, error) {
	dir, err := os.MkdirTemp("", tempDirPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary cache directory: %w", err)
	}
	s, err := open(dir, ttl, true)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	return s, nil
}

func open(dir string, ttl time.Duration, temporary bool) (*Store, error) {
	db, err := sql.Open("sqlite", filepath.Join(dir, databaseFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// A single connection keeps every statement on the same SQLite handle.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &Store{
		db:        db,
		dir:       dir,
		temporary: temporary,
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

// Dir returns the directory holding the cache database.
func (s *Store) Dir() string {
	return s.dir
}

// Temporary reports whether the cache lives in a directory owned by the store.
func (s *Store) Temporary() bool {
	return s.temporary
}

// Get returns the cached body for key. Expired entries are deleted and
// reported as misses.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.closed {
		return nil, false, domain.ErrCacheClosed
	}

	var (
		body     []byte
		storedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT body, stored_at FROM responses WHERE key = ?`, key,
	).Scan(&body, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if s.ttl > 0 && s.now().Sub(time.Unix(0, storedAt)) > s.ttl {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM responses WHERE key = ?`, key); err != nil {
			return nil, false, fmt.Errorf("failed to evict cache entry: %w", err)
		}
		return nil, false, nil
	}

	return body, true, nil
}

// Put stores body under key, replacing any previous entry.
func (s *Store) Put(ctx context.Context, key string, body []byte) error {
	if s.closed {
		return domain.ErrCacheClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO responses (key, body, stored_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, stored_at = excluded.stored_at`,
		key, body, s.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Close closes the database. Calling Close more than once is a no-op.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close cache database: %w", err)
	}
	return nil
}

// Teardown closes the cache and, for temporary caches, removes the directory.
// Calling Teardown more than once is a no-op.
func (s *Store) Teardown() error {
	if s.tornDown {
		return nil
	}
	s.tornDown = true
	closeErr := s.Close()
	if s.temporary {
		if err := os.RemoveAll(s.dir); err != nil {
			return errors.Join(closeErr, fmt.Errorf("failed to remove cache directory: %w", err))
		}
	}
	return closeErr
}
