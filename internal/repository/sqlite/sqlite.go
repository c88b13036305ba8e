// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// The driver is modernc.org/sqlite (pure Go, no CGo). The whole blog lives in
// one file, or in ":memory:" for tests.
//
// SCHEMA LIFECYCLE:
// The schema is a fixed set of SQL files embedded in the binary (migrations/)
// and applied with golang-migrate. It is never applied implicitly:
//   - Init         (the `init-db` command) clears all data and recreates the tables
//   - EnsureSchema (called by `serve`)     only checks that Init has been run
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// SchemaVersion is the migration version Init leaves the database at.
const SchemaVersion = 1

// ErrSchemaMissing is returned by EnsureSchema when the database was never initialised.
var ErrSchemaMissing = errors.New("sqlite: database schema is not initialised (run `blog init-db`)")

//go:embed migrations/*.sql
var migrationFS embed.FS

// DB wraps a sql.DB connection pool and implements
// repository.UserRepository and repository.PostRepository.
type DB struct {
	conn *sql.DB
}

// Open opens the SQLite database at dbPath.
//
// dbPath examples:
//   - "data/blog.db" → file-based database (persistent)
//   - ":memory:"     → in-memory database (tests)
//
// PRAGMAs are passed through the DSN so that every pooled connection gets
// them, not just the first one: foreign keys are OFF by default in SQLite.
func Open(dbPath string) (*DB, error) {
	memory := dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory")

	pragmas := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
		"_time_format=sqlite",
	}
	if !memory {
		// WAL allows concurrent readers while a write is in progress.
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}

	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	dsn := dbPath + sep + strings.Join(pragmas, "&")

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each connection to ":memory:" is its own private database,
	// so the pool must never grow past one connection.
	if memory {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	return &DB{conn: conn}, nil
}

// NewWithConn wraps an already-open pool. Used by tests that drive the
// repository with go-sqlmock.
func NewWithConn(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Init clears any existing data and creates fresh tables.
func (db *DB) Init(ctx context.Context) error {
	m, err := db.migrator()
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		// never initialised, nothing to tear down
	case err != nil:
		return fmt.Errorf("sqlite: reading schema version: %w", err)
	default:
		if dirty {
			if err := m.Force(int(version)); err != nil {
				return fmt.Errorf("sqlite: clearing dirty version %d: %w", version, err)
			}
		}
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("sqlite: dropping schema: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlite: creating schema: %w", err)
	}
	return nil
}

// EnsureSchema returns ErrSchemaMissing (wrapped) unless Init has brought the
// database to SchemaVersion.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("sqlite: pinging database: %w", err)
	}

	m, err := db.migrator()
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return ErrSchemaMissing
	}
	if err != nil {
		return fmt.Errorf("sqlite: reading schema version: %w", err)
	}
	if dirty || version != SchemaVersion {
		return fmt.Errorf("%w: found version %d (dirty=%t), want %d",
			ErrSchemaMissing, version, dirty, SchemaVersion)
	}
	return nil
}

// migrator builds a golang-migrate instance over the embedded SQL files.
//
// The returned *migrate.Migrate is deliberately never Closed: its sqlite
// driver closes the *sql.DB it was given, and that pool belongs to DB.
func (db *DB) migrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading embedded migrations: %w", err)
	}

	drv, err := migratesqlite.WithInstance(db.conn, &migratesqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("sqlite: preparing migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return nil, fmt.Errorf("sqlite: creating migrator: %w", err)
	}
	return m, nil
}
