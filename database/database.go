package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // Import the SQLite3 driver
)

// InitDB opens the member database and makes sure every table exists.
func InitDB(dbPath string) (*sql.DB, error) {
	// Ensure the directory for the database file exists.
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer; the batch is sequential anyway.
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	membersSQL := `
    CREATE TABLE IF NOT EXISTS members (
        id INTEGER PRIMARY KEY,
        handle TEXT NOT NULL DEFAULT '',
        in_chat BOOLEAN NOT NULL DEFAULT 1,
        pace TEXT NOT NULL DEFAULT 'daily',
        mode TEXT NOT NULL DEFAULT '',
        post_today BOOLEAN NOT NULL DEFAULT 0,
        strikes_count INTEGER NOT NULL DEFAULT 0,
        consecutive_posts_count INTEGER NOT NULL DEFAULT 0,
        units_count INTEGER NOT NULL DEFAULT 0,
        pause_started_at DATETIME,
        pause_until DATETIME,
        pause_days INTEGER NOT NULL DEFAULT 0,
        subscription_active BOOLEAN,
        subscription_days_left INTEGER NOT NULL DEFAULT 0,
        expires_at DATETIME,
        last_post_date DATETIME,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        joined_at DATETIME,
        left_at DATETIME,
        updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        club BOOLEAN NOT NULL DEFAULT 0,
        public_remind BOOLEAN NOT NULL DEFAULT 0
    );`
	if _, err := db.Exec(membersSQL); err != nil {
		return fmt.Errorf("failed to create members table: %w", err)
	}

	runsSQL := `
    CREATE TABLE IF NOT EXISTS cycle_runs (
        kind TEXT NOT NULL,
        run_date TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        UNIQUE(kind, run_date)
    );`
	if _, err := db.Exec(runsSQL); err != nil {
		return fmt.Errorf("failed to create cycle_runs table: %w", err)
	}
	return nil
}
