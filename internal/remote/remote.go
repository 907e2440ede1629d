// Package remote implements the per-user document stores the sync
// coordinator reconciles with.
package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"pagetrail/internal/config"
	"pagetrail/internal/database"
	"pagetrail/internal/service"
)

var (
	// ErrUnavailable wraps transport and storage failures
	ErrUnavailable = errors.New("remote: unavailable")
	// ErrMalformed wraps documents that could not be decoded
	ErrMalformed = errors.New("remote: malformed document")
)

// Backend is a Remote holding a connection that must be released
type Backend interface {
	service.Remote
	Close() error
}

// Open builds the backend selected by cfg.Backend. It returns nil, nil when
// remote sync is disabled.
func Open(ctx context.Context, cfg config.RemoteConfig, logger *zap.Logger) (Backend, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "none":
		return nil, nil
	case "redis":
		client, err := Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return NewRedisRemote(client), nil
	case "sql":
		db, err := database.Open(cfg.DatabaseType, database.DialectConfig{URL: cfg.DatabaseURL, Path: cfg.DatabaseURL})
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(logger); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return NewSQLRemote(db), nil
	case "http":
		return NewHTTPRemote(ctx, cfg), nil
	default:
		return nil, fmt.Errorf("unsupported remote backend: %s", cfg.Backend)
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

func malformed(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformed, what, err)
}
