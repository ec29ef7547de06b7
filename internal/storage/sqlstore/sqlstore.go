// Package sqlstore provides a database/sql implementation of the
// storage.Store interface for SQLite (embedded, pure Go) and MySQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/payledger/internal/models"
	"github.com/mmynk/payledger/internal/storage"
)

// Supported database/sql driver names.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store on top of *sql.DB.
// Queries use '?' placeholders, which both drivers accept.
type Store struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// New creates a SQLite-backed Store at dbPath.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Foreign keys and the busy timeout are per connection in SQLite, so
	// they go in the DSN rather than a one-off PRAGMA.
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	return Open(DriverSQLite, dsn)
}

// Open connects with the given driver and DSN, verifies the connection and
// runs migrations.
func Open(driver, dsn string) (*Store, error) {
	if _, ok := schemas[driver]; !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, db, driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db, driver: driver, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// notFound wraps storage.ErrNotFound with the kind and key of the record.
func notFound(kind, key string) error {
	return fmt.Errorf("%s %s: %w", kind, key, storage.ErrNotFound)
}

// requireAffected turns a write that touched no row into a not-found error.
func requireAffected(res sql.Result, kind, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound(kind, key)
	}
	return nil
}

// updatedOrExists accepts an UPDATE that touched no row when the row exists:
// MySQL reports only rows whose values actually changed.
func updatedOrExists(res sql.Result, exists func() error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return exists()
	}
	return nil
}

// placeholders returns "?, ?, ?" for n arguments.
// Used for building IN clauses.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// nullString maps "" to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullInt maps 0 to NULL.
func nullInt(n int64) sql.NullInt64 {
	return sql.NullInt64{Int64: n, Valid: n != 0}
}

// parseDay reads a due date column. MySQL may hand DATE values back as
// full timestamps when parseTime is enabled, so only the day prefix is used.
func parseDay(raw sql.NullString) (*time.Time, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	s := raw.String
	if len(s) > len(models.DateLayout) {
		s = s[:len(models.DateLayout)]
	}
	day, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid due date %q: %w", raw.String, err)
	}
	return &day, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
