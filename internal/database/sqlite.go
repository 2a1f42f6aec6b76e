package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // Import the sqlite3 driver.
	"go.uber.org/zap"
)

// InitDB connects to the SQLite database and creates the schema.
func InitDB(dataSourceName string, log *zap.SugaredLogger) (*sql.DB, error) {
	// Ensure the directory for the database file exists.
	dir := filepath.Dir(dataSourceName)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Immediate transactions take the write lock up front, so two appends
	// never both read a turn log and then race to rewrite it.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_txlock=immediate", dataSourceName)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Enable WAL mode for better concurrency.
	// This allows readers to not block writers.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		log.Warnw("Failed to enable WAL mode for SQLite, continuing without it.", "error", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables executes the SQL statements to create the database schema.
// Each session is one row; its turns live inline in the JSON `turns` column.
func createTables(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			owner_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			title TEXT NOT NULL,
			title_state TEXT NOT NULL CHECK(title_state IN ('sentinel', 'derived', 'user')),
			turns TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (owner_id, session_id)
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_owner_updated_at ON sessions(owner_id, updated_at DESC);
	`
	_, err := db.Exec(schema)
	return err
}
