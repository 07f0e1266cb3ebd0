package sink

import (
	// PostgreSQL driver, registered for database/sql.
	_ "github.com/lib/pq"
)

// NewPostgresFactory writes generated rows straight into a PostgreSQL
// database.
func NewPostgresFactory(dsn string) *DBFactory {
	return NewDBFactory("postgres", dsn)
}
