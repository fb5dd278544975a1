package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS response_cache (
	fingerprint TEXT PRIMARY KEY,
	response    BLOB NOT NULL,
	stored_at   INTEGER NOT NULL,
	ttl_seconds INTEGER NOT NULL DEFAULT 0
);`

// SQLite is a Store persisted to a SQLite database.
//
// Read failures and corrupt rows degrade to cache misses; the offending
// row is dropped so it cannot shadow a fresh response.
type SQLite struct {
	db     *sql.DB
	logger *log.Logger
}

// NewSQLite creates the response_cache table if needed and returns a store
// backed by db. The logger may be nil.
func NewSQLite(db *sql.DB, logger *log.Logger) (*SQLite, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SQLite{db: db, logger: logger}, nil
}

func (s *SQLite) Get(ctx context.Context, fingerprint string) ([]byte, bool) {
	var payload []byte
	var storedAt, ttlSeconds int64

	row := s.db.QueryRowContext(ctx,
		"SELECT response, stored_at, ttl_seconds FROM response_cache WHERE fingerprint = ?", fingerprint)
	if err := row.Scan(&payload, &storedAt, &ttlSeconds); err != nil {
		if err != sql.ErrNoRows {
			s.logger.Warnf("dropping unreadable cache entry %s: %v", fingerprint, err)
			s.drop(ctx, fingerprint)
		}
		return nil, false
	}

	if expired(time.Unix(storedAt, 0), time.Duration(ttlSeconds)*time.Second, time.Now()) {
		s.drop(ctx, fingerprint)
		return nil, false
	}

	return payload, true
}

func (s *SQLite) Put(ctx context.Context, fingerprint string, payload []byte, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO response_cache (fingerprint, response, stored_at, ttl_seconds) VALUES (?, ?, ?, ?)",
		fingerprint, payload, time.Now().Unix(), int64(ttl.Seconds()))
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

func (s *SQLite) Invalidate(ctx context.Context, pred func(string) bool) error {
	rows, err := s.db.QueryContext(ctx, "SELECT fingerprint FROM response_cache")
	if err != nil {
		return fmt.Errorf("failed to list cache entries: %w", err)
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var fingerprint string
		if err := rows.Scan(&fingerprint); err != nil {
			return fmt.Errorf("failed to scan cache entry: %w", err)
		}
		if pred(fingerprint) {
			stale = append(stale, fingerprint)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache entries: %w", err)
	}

	for _, fingerprint := range stale {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM response_cache WHERE fingerprint = ?", fingerprint); err != nil {
			return fmt.Errorf("failed to invalidate cache entry: %w", err)
		}
	}
	return nil
}

// Count returns the number of stored entries.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM response_cache").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}

func (s *SQLite) drop(ctx context.Context, fingerprint string) {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM response_cache WHERE fingerprint = ?", fingerprint); err != nil {
		s.logger.Warnf("failed to drop cache entry %s: %v", fingerprint, err)
	}
}
