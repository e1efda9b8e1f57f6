package main

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

var db *sql.DB

func openDatabase(path string) error {
	var err error
	db, err = sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return initSchema()
}

func initSchema() error {
	statements := []string{
		// Append-only content snapshots. The UNIQUE constraint makes the
		// loser of a concurrent write fail loudly instead of silently
		// duplicating a version number.
		`CREATE TABLE IF NOT EXISTS content_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content_type TEXT NOT NULL,
			version INTEGER NOT NULL,
			data TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(content_type, version)
		)`,
		// One row per processed webhook delivery, keyed on the commit
		// range, so redelivered pushes don't bump the version twice.
		`CREATE TABLE IF NOT EXISTS webhook_deliveries (
			delivery_key TEXT PRIMARY KEY,
			received_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS visitors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			hashed_ip TEXT NOT NULL,
			user_agent TEXT,
			path TEXT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
