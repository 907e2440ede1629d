package database

import (
	"testing"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "sqlite3"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("DSN", func(t *testing.T) {
		result := dialect.DSN(DialectConfig{Path: "/tmp/pagetrail.db", URL: "ignored"})
		if result != "/tmp/pagetrail.db" {
			t.Errorf("DSN() = %v, want %v", result, "/tmp/pagetrail.db")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "sqlite"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "postgres"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "postgres"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})

	t.Run("DSN", func(t *testing.T) {
		tests := []struct {
			url  string
			want string
		}{
			{"", ""},
			{"postgres://u:pw@db:5432/pagetrail", "postgres://u:pw@db:5432/pagetrail?application_name=pagetrail"},
			{"postgres://u:pw@db/pagetrail?sslmode=disable", "postgres://u:pw@db/pagetrail?application_name=pagetrail&sslmode=disable"},
			{"host=db dbname=pagetrail", "host=db dbname=pagetrail application_name=pagetrail"},
			{"postgres://db/pagetrail?application_name=reader", "postgres://db/pagetrail?application_name=reader"},
		}
		for _, tt := range tests {
			if got := dialect.DSN(DialectConfig{URL: tt.url}); got != tt.want {
				t.Errorf("DSN(%q) = %v, want %v", tt.url, got, tt.want)
			}
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "mysql"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "mysql"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})

	t.Run("DSN", func(t *testing.T) {
		tests := []struct {
			url  string
			want string
		}{
			{"user:pw@tcp(db:3306)/pagetrail", "user:pw@tcp(db:3306)/pagetrail?parseTime=true"},
			{"user:pw@tcp(db:3306)/pagetrail?charset=utf8mb4", "user:pw@tcp(db:3306)/pagetrail?charset=utf8mb4&parseTime=true"},
			{"user:pw@tcp(db:3306)/pagetrail?parseTime=false", "user:pw@tcp(db:3306)/pagetrail?parseTime=false"},
		}
		for _, tt := range tests {
			if got := dialect.DSN(DialectConfig{URL: tt.url}); got != tt.want {
				t.Errorf("DSN(%q) = %v, want %v", tt.url, got, tt.want)
			}
		}
	})
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		dbType  string
		want    string
		wantErr bool
	}{
		{dbType: "", want: "sqlite3"},
		{dbType: "SQLite3", want: "sqlite3"},
		{dbType: "postgresql", want: "postgres"},
		{dbType: "mysql", want: "mysql"},
		{dbType: "oracle", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			dialect, err := DialectFor(tt.dbType)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DialectFor(%q) error = %v, wantErr %v", tt.dbType, err, tt.wantErr)
			}
			if err == nil && dialect.DriverName() != tt.want {
				t.Errorf("DialectFor(%q) driver = %v, want %v", tt.dbType, dialect.DriverName(), tt.want)
			}
		})
	}
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT payload FROM kv_entries WHERE key_name = ?",
			expected: "SELECT payload FROM kv_entries WHERE key_name = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT payload FROM kv_entries WHERE key_name = ?",
			expected: "SELECT payload FROM kv_entries WHERE key_name = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO user_favorites (uid, item_id) VALUES (?, ?)",
			expected: "INSERT INTO user_favorites (uid, item_id) VALUES ($1, $2)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "DELETE FROM user_favorites WHERE uid = ? AND item_id = ?",
			expected: "DELETE FROM user_favorites WHERE uid = ? AND item_id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestUpsert(t *testing.T) {
	columns := []string{"key_name", "payload", "updated_at"}
	update := []string{"payload", "updated_at"}

	tests := []struct {
		name     string
		dialect  Dialect
		expected string
	}{
		{
			name:     "SQLite",
			dialect:  NewSQLiteDialect(),
			expected: "INSERT INTO kv_entries (key_name, payload, updated_at) VALUES (?, ?, ?) ON CONFLICT (key_name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at",
		},
		{
			name:     "PostgreSQL",
			dialect:  NewPostgresDialect(),
			expected: "INSERT INTO kv_entries (key_name, payload, updated_at) VALUES (?, ?, ?) ON CONFLICT (key_name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at",
		},
		{
			name:     "MySQL",
			dialect:  NewMySQLDialect(),
			expected: "INSERT INTO kv_entries (key_name, payload, updated_at) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE payload = VALUES(payload), updated_at = VALUES(updated_at)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.Upsert("kv_entries", []string{"key_name"}, columns, update)
			if result != tt.expected {
				t.Errorf("Upsert() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestPrefixPattern(t *testing.T) {
	tests := []struct {
		prefix   string
		expected string
	}{
		{prefix: "progress:", expected: "progress:%"},
		{prefix: "progress:50%_off", expected: "progress:50!%!_off%"},
		{prefix: "a!b", expected: "a!!b%"},
		{prefix: "", expected: "%"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			if got := PrefixPattern(tt.prefix); got != tt.expected {
				t.Errorf("PrefixPattern(%q) = %v, want %v", tt.prefix, got, tt.expected)
			}
		})
	}
}
