package sink

import (
	"bytes"
	"database/sql"
	"fmt"
	"strings"
	"sync"
)

// DBFactory executes the generated statements directly against a
// database instead of writing files. It only accepts the SQL dialect.
type DBFactory struct {
	driver string
	dsn    string

	mu sync.Mutex
	db *sql.DB
}

// NewDBFactory creates a factory for the given database/sql driver.
func NewDBFactory(driver, dsn string) *DBFactory {
	return &DBFactory{driver: driver, dsn: dsn}
}

// Connect opens and pings the database.
func (f *DBFactory) Connect() error {
	db, err := sql.Open(f.driver, f.dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s target: %w", f.driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to %s target: %w", f.driver, err)
	}
	f.db = db
	return nil
}

func (f *DBFactory) WriteSchema(_, tableName, content string) error {
	stmt := fmt.Sprintf("CREATE TABLE %s %s", tableName, content)
	if _, err := f.db.Exec(stmt); err != nil {
		// Re-running against an existing schema is routine.
		if strings.Contains(strings.ToLower(err.Error()), "already exists") {
			return nil
		}
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}
	return nil
}

func (f *DBFactory) Open(string, int, int, string) (Sink, error) {
	return &dbSink{factory: f}, nil
}

func (f *DBFactory) Close() error {
	if f.db != nil {
		return f.db.Close()
	}
	return nil
}

// dbSink buffers formatted SQL text and executes it one statement at a
// time. sqlite serializes writers, so execution takes the factory lock.
type dbSink struct {
	factory *DBFactory
	buf     bytes.Buffer
}

func (s *dbSink) Write(p []byte) (int, error) {
	return s.buf.Write(p)
}

func (s *dbSink) EndStatement() error {
	stmt := s.buf.String()
	s.buf.Reset()
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	s.factory.mu.Lock()
	defer s.factory.mu.Unlock()
	if _, err := s.factory.db.Exec(stmt); err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}
	return nil
}

func (s *dbSink) Close() error {
	if s.buf.Len() > 0 {
		return s.EndStatement()
	}
	return nil
}
