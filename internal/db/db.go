package db

import (
	"database/sql"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	"github.com/billmal071/d5s/internal/config"
	_ "modernc.org/sqlite"
)

var database *sql.DB

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    book_id         TEXT NOT NULL,
    code            TEXT,
    title           TEXT NOT NULL,
    timestamp       TEXT NOT NULL,
    dir             TEXT NOT NULL,
    version         TEXT,
    pages           INTEGER DEFAULT 0,
    assets          INTEGER DEFAULT 0,
    status          TEXT DEFAULT 'pending',
    error_message   TEXT,
    entry_json      TEXT NOT NULL,
    verified        BOOLEAN DEFAULT 0,
    created_at      DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at      DATETIME DEFAULT CURRENT_TIMESTAMP,
    completed_at    DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_book ON runs(book_id);

CREATE TABLE IF NOT EXISTS catalog_cache (
    cache_key       TEXT PRIMARY KEY,
    results_json    TEXT NOT NULL,
    result_count    INTEGER NOT NULL,
    created_at      INTEGER NOT NULL,
    expires_at      INTEGER NOT NULL
);
`

// Init initializes the database connection and schema
func Init() error {
	return InitPath(config.GetDBPath())
}

// InitPath opens the database at dbPath and creates the schema
func InitPath(dbPath string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return err
	}

	database = db
	return nil
}

// DB returns the database connection
func DB() *sql.DB {
	return database
}

// Close closes the database connection
func Close() error {
	if database != nil {
		err := database.Close()
		database = nil
		return err
	}
	return nil
}

// builder returns a statement builder bound to the open connection
func builder() sq.StatementBuilderType {
	return sq.StatementBuilder.RunWith(database)
}
