// Package store defines the key/value persistence adapter the engine writes
// through, and its SQL, Pebble and in-memory implementations.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pagetrail/internal/config"
	"pagetrail/internal/database"

	"go.uber.org/zap"
)

// ErrClosed is returned by every operation on a store after Close.
var ErrClosed = errors.New("store: closed")

// Logical keys used by the engine.
const (
	KeyStats       = "stats"
	KeyBadges      = "badges"
	KeyFavorites   = "favorites"
	KeyCollections = "collections"
	KeySettings    = "settings"
	KeyLastItem    = "last_item"

	// ProgressPrefix prefixes one key per tracked item.
	ProgressPrefix = "progress:"
)

// ProgressKey returns the key holding the progress record for itemID.
func ProgressKey(itemID string) string {
	return ProgressPrefix + itemID
}

// ItemFromProgressKey is the inverse of ProgressKey.
func ItemFromProgressKey(key string) (string, bool) {
	if !strings.HasPrefix(key, ProgressPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, ProgressPrefix), true
}

// Store is a durable key/value store holding JSON documents.
type Store interface {
	// Get returns the raw value for key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set overwrites key with value.
	Set(ctx context.Context, key string, value []byte) error
	// Keys lists every key starting with prefix in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Open builds the store selected by cfg.StoreBackend.
func Open(cfg *config.Config, logger *zap.Logger) (Store, error) {
	switch strings.ToLower(cfg.StoreBackend) {
	case "pebble":
		return NewPebbleStore(cfg.PebblePath)
	case "postgres", "postgresql", "mysql":
		db, err := database.Open(cfg.StoreBackend, database.DialectConfig{URL: cfg.DatabaseURL})
		if err != nil {
			return nil, err
		}
		return newMigratedSQLStore(db, logger)
	case "sqlite", "sqlite3", "":
		db, err := database.Initialize(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		return newMigratedSQLStore(db, logger)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.StoreBackend)
	}
}

func newMigratedSQLStore(db *database.DB, logger *zap.Logger) (Store, error) {
	if err := db.RunMigrations(logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return NewSQLStore(db), nil
}
