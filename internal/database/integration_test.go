package database

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Initialize(filepath.Join(t.TempDir(), "pagetrail.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(nil); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	tables := []string{"kv_entries", "user_documents", "user_favorites", "user_progress"}
	for _, table := range tables {
		query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
		var name string
		if err := db.QueryRowContext(ctx, query, table).Scan(&name); err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	if err := db.RunMigrations(nil); err != nil {
		t.Fatalf("second RunMigrations() error = %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&count); err != nil {
		t.Fatalf("Failed to count migrations: %v", err)
	}
	if count != 4 {
		t.Errorf("migrations recorded = %d, want %d", count, 4)
	}
}

// TestDatabaseTransactions tests transaction support
func TestDatabaseTransactions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	upsert := db.Dialect.Upsert("kv_entries", []string{"key_name"},
		[]string{"key_name", "payload"}, []string{"payload"})

	err := db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, upsert, "stats", `{"books_started":1}`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, upsert, "stats", `{"books_started":2}`)
		return err
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}

	var payload string
	if err := db.QueryRowContext(ctx, "SELECT payload FROM kv_entries WHERE key_name = ?", "stats").Scan(&payload); err != nil {
		t.Fatalf("Failed to query committed row: %v", err)
	}
	if payload != `{"books_started":2}` {
		t.Errorf("payload = %v, want %v", payload, `{"books_started":2}`)
	}

	// Rolled back writes must not be visible
	tx, err := db.BeginTx(ctx)
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	if _, err := tx.ExecContext(ctx, upsert, "settings", `{}`); err != nil {
		t.Fatalf("Failed to insert in transaction: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Failed to rollback: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv_entries WHERE key_name = ?", "settings").Scan(&count); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if count != 0 {
		t.Errorf("rolled back row count = %d, want 0", count)
	}
}

func TestPrefixPatternMatchesLiterally(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	upsert := db.Dialect.Upsert("kv_entries", []string{"key_name"},
		[]string{"key_name", "payload"}, []string{"payload"})
	for _, key := range []string{"progress:a_1", "progress:ab1", "progressX"} {
		if _, err := db.ExecContext(ctx, upsert, key, "{}"); err != nil {
			t.Fatalf("insert %s: %v", key, err)
		}
	}

	rows, err := db.QueryContext(ctx, "SELECT key_name FROM kv_entries WHERE key_name LIKE ? ESCAPE '!'", PrefixPattern("progress:a_"))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			t.Fatalf("scan: %v", err)
		}
		keys = append(keys, key)
	}
	if len(keys) != 1 || keys[0] != "progress:a_1" {
		t.Errorf("keys = %v, want [progress:a_1]", keys)
	}
}
