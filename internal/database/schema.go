package database

import (
	"database/sql"
	"fmt"
)

// Schema version for migrations
const currentSchemaVersion = 3

var migrations = []migration{
	{
		version: 1,
		up: []string{
			// One row per path ever handled; rows are never rewritten
			`CREATE TABLE seen_items (
				path TEXT PRIMARY KEY,
				kind TEXT NOT NULL,
				title TEXT NOT NULL DEFAULT '',
				tmdb_id INTEGER NOT NULL DEFAULT 0,
				season INTEGER,
				seen_at INTEGER NOT NULL
			)`,
			`CREATE INDEX idx_seen_kind ON seen_items(kind, seen_at DESC)`,

			`CREATE TABLE schema_version (
				version INTEGER PRIMARY KEY,
				applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,

			`INSERT INTO schema_version (version) VALUES (1)`,
		},
	},
	{
		version: 2,
		up: []string{
			// found = 0 rows record a confirmed empty search
			`CREATE TABLE lookup_cache (
				query_key TEXT NOT NULL,
				kind TEXT NOT NULL,
				found INTEGER NOT NULL,
				tmdb_id INTEGER NOT NULL DEFAULT 0,
				title TEXT NOT NULL DEFAULT '',
				original_title TEXT NOT NULL DEFAULT '',
				year TEXT NOT NULL DEFAULT '',
				overview TEXT NOT NULL DEFAULT '',
				fetched_at INTEGER NOT NULL,
				PRIMARY KEY (query_key, kind)
			)`,
			`CREATE INDEX idx_lookup_cache_fetched ON lookup_cache(fetched_at)`,

			`INSERT INTO schema_version (version) VALUES (2)`,
		},
	},
	{
		version: 3,
		up: []string{
			`CREATE TABLE scan_runs (
				id TEXT PRIMARY KEY,
				root TEXT NOT NULL,
				kind TEXT NOT NULL,
				dry_run INTEGER NOT NULL DEFAULT 0,
				status TEXT NOT NULL,
				started_at INTEGER NOT NULL,
				finished_at INTEGER,
				scanned INTEGER NOT NULL DEFAULT 0,
				new_items INTEGER NOT NULL DEFAULT 0,
				matched INTEGER NOT NULL DEFAULT 0,
				unmatched INTEGER NOT NULL DEFAULT 0,
				failed INTEGER NOT NULL DEFAULT 0,
				error_message TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX idx_scan_runs_started ON scan_runs(started_at DESC)`,

			`INSERT INTO schema_version (version) VALUES (3)`,
		},
	},
}

type migration struct {
	version int
	up      []string
}

// applyMigrations applies any pending schema migrations
func applyMigrations(db *sql.DB) error {
	var currentVersion int
	err := db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&currentVersion)
	if err != nil {
		// schema_version doesn't exist yet - this is a fresh database
		currentVersion = 0
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("migration %d: %w", m.version, err)
		}
	}

	return nil
}

// applyMigration runs one migration in a transaction; each migration inserts
// its own schema_version row
func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.up {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}
