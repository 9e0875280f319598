package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS receipts (
			access_key TEXT PRIMARY KEY,
			merchant_name TEXT,
			cnpj TEXT,
			address TEXT,
			purchase_timestamp TEXT NOT NULL,
			total_items TEXT,
			total_amount TEXT,
			discount TEXT,
			paid_amount TEXT,
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS receipt_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			access_key TEXT NOT NULL,
			code TEXT,
			name TEXT,
			quantity TEXT,
			unit_type TEXT,
			unit_price TEXT,
			total_price TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_receipt_items_access_key ON receipt_items(access_key)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	return nil
}
