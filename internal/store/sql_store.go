package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"pagetrail/internal/database"
)

// SQLStore keeps every key as a row of the kv_entries table.
type SQLStore struct {
	db     *database.DB
	upsert string
	closed atomic.Bool
}

// NewSQLStore wraps an already migrated database.
func NewSQLStore(db *database.DB) *SQLStore {
	return &SQLStore{
		db: db,
		upsert: db.Dialect.Upsert("kv_entries",
			[]string{"key_name"},
			[]string{"key_name", "payload", "updated_at"},
			[]string{"payload", "updated_at"}),
	}
}

// Get returns the payload stored under key
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, ErrClosed
	}

	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM kv_entries WHERE key_name = ?", key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return []byte(payload), true, nil
}

// Set upserts the payload for key
func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}

	if _, err := s.db.ExecContext(ctx, s.upsert, key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Keys lists keys under prefix. LIKE is case-insensitive on some engines,
// so matches are re-checked literally.
func (s *SQLStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	query := "SELECT key_name FROM kv_entries WHERE key_name LIKE ? ESCAPE '" + database.LikeEscapeChar + "' ORDER BY key_name"
	rows, err := s.db.QueryContext(ctx, query, database.PrefixPattern(prefix))
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, rows.Err()
}

// Close closes the underlying database
func (s *SQLStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
