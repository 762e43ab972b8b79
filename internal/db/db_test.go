package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestOpen_FreshInstallMarksMigrationsApplied(t *testing.T) {
	conn, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer conn.Close()

	var version int
	if err := conn.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		t.Fatalf("failed to read schema version: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("schema version = %d, want %d", version, len(migrations))
	}

	if _, err := conn.Exec("INSERT INTO system_log (actor_id, level, message) VALUES ('p1', 'info', 'hello')"); err != nil {
		t.Errorf("insert into fresh schema failed: %v", err)
	}
}

func TestInitSchema_MigratesVersionOne(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.db")
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	conn.SetMaxOpenConns(1)
	defer conn.Close()

	// Lay down a version-1 database by hand.
	if err := createVersionTable(conn); err != nil {
		t.Fatal(err)
	}
	tx, err := conn.Begin()
	if err != nil {
		t.Fatal(err)
	}
	if err := migrationV1(tx); err != nil {
		t.Fatal(err)
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (1)"); err != nil {
		t.Fatal(err)
	}
	if _, err := tx.Exec("INSERT INTO system_log (level, message) VALUES ('info', 'old line')"); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	if err := InitSchema(conn); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}

	var actor string
	if err := conn.QueryRow("SELECT actor_id FROM system_log WHERE message = 'old line'").Scan(&actor); err != nil {
		t.Fatalf("expected actor_id column after migration: %v", err)
	}
	if actor != "" {
		t.Errorf("actor_id = %q, want empty default", actor)
	}

	// Running again is a no-op.
	if err := InitSchema(conn); err != nil {
		t.Errorf("second InitSchema() error = %v", err)
	}
}
