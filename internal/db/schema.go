// Package db owns the local SQLite database that backs the client's system log.
package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete modern schema for fresh installs.
// This schema reflects the current state after all migrations.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. Tests load it via
// GetSchemaSQL() instead of declaring their own tables, so a repository that
// references a missing column fails immediately with "no such column".
const SchemaSQL = `
-- System log (rolling audit trail, bounded per actor by the repository)
CREATE TABLE IF NOT EXISTS system_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	actor_id TEXT NOT NULL DEFAULT '',
	level TEXT NOT NULL CHECK(level IN ('debug', 'info', 'warn', 'error')) DEFAULT 'info',
	message TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_system_log_actor ON system_log(actor_id, id);
`

// InitSchema creates the database schema on a fresh database, or runs any
// pending migrations on an existing one.
func InitSchema(conn *sql.DB) error {
	var tableCount int
	err := conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		return RunMigrations(conn)
	}

	// Fresh install - create modern schema directly and mark every migration applied
	if _, err := conn.Exec(SchemaSQL); err != nil {
		return err
	}
	if err := createVersionTable(conn); err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := conn.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
