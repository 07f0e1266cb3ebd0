package sink

import (
	// SQLite driver, registered for database/sql.
	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteFactory writes generated rows into a local SQLite database
// file.
func NewSQLiteFactory(path string) *DBFactory {
	return NewDBFactory("sqlite3", path)
}
