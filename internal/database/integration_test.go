package database

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Initialize(filepath.Join(t.TempDir(), "bookmatch.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func TestDatabaseIntegration(t *testing.T) {
	db := openTestDB(t)

	tables := []string{"migrations", "children", "reading_records", "game_records", "saved_sessions"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Second RunMigrations() failed: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&count); err != nil {
		t.Fatalf("Failed to count migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("migrations recorded = %d, want 1", count)
	}
}

func TestExecReturningID(t *testing.T) {
	db := openTestDB(t)

	first, err := db.ExecReturningID(
		"INSERT INTO children (name, age, profile, created_at, updated_at) VALUES (?, ?, '', datetime('now'), datetime('now'))",
		"Ada", 8)
	if err != nil {
		t.Fatalf("ExecReturningID() failed: %v", err)
	}
	second, err := db.ExecReturningID(
		"INSERT INTO children (name, age, profile, created_at, updated_at) VALUES (?, ?, '', datetime('now'), datetime('now'))",
		"Ben", 10)
	if err != nil {
		t.Fatalf("ExecReturningID() failed: %v", err)
	}
	if second <= first {
		t.Errorf("ids not increasing: %d then %d", first, second)
	}
}

func TestWithTx(t *testing.T) {
	db := openTestDB(t)

	insert := "INSERT INTO children (name, age, profile, created_at, updated_at) VALUES (?, ?, '', datetime('now'), datetime('now'))"

	t.Run("commit", func(t *testing.T) {
		err := db.WithTx(func(tx *Tx) error {
			_, err := tx.ExecReturningID(insert, "Committed", 7)
			return err
		})
		if err != nil {
			t.Fatalf("WithTx() failed: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM children WHERE name = ?", "Committed").Scan(&count); err != nil {
			t.Fatal(err)
		}
		if count != 1 {
			t.Errorf("committed rows = %d, want 1", count)
		}
	})

	t.Run("rollback", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.WithTx(func(tx *Tx) error {
			if _, err := tx.Exec(insert, "RolledBack", 9); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("WithTx() error = %v, want %v", err, boom)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM children WHERE name = ?", "RolledBack").Scan(&count); err != nil {
			t.Fatal(err)
		}
		if count != 0 {
			t.Errorf("rolled back rows = %d, want 0", count)
		}
	})
}

func TestForeignKeysEnforced(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec("INSERT INTO reading_records (child_id, title) VALUES (?, ?)", 999, "Orphan")
	if err == nil {
		t.Error("expected foreign key violation for unknown child")
	}
}
