// Package sqlstore provides a database/sql implementation of storage.PlanStore.
// SQLite (pure Go, no CGO) is the default; PostgreSQL is supported through lib/pq.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/dinevote/internal/storage"
)

// Ensure Store implements storage.PlanStore
var _ storage.PlanStore = (*Store)(nil)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its dialect and filesystem in package globals.
var migrateMu sync.Mutex

type dialect struct {
	driver string
	goose  string

	// readTx is used for snapshot reads spanning several tables.
	readTx *sql.TxOptions

	// positional is true when the driver wants $1, $2... instead of ?.
	positional bool
}

var dialects = map[string]dialect{
	DriverSQLite: {
		driver: "sqlite",
		goose:  "sqlite3",
	},
	DriverPostgres: {
		driver:     "postgres",
		goose:      "postgres",
		readTx:     &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true},
		positional: true,
	},
}

// rebind rewrites ? placeholders for drivers that need numbered ones.
func (d dialect) rebind(query string) string {
	if !d.positional {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Store implements storage.PlanStore on top of database/sql.
type Store struct {
	db      *sql.DB
	dialect dialect
	policy  storage.RetryPolicy
}

// New opens a SQLite database at dbPath.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string, policy storage.RetryPolicy) (*Store, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := "file:" + dbPath +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	return Open(DriverSQLite, dsn, policy)
}

// Open connects with the named driver ("sqlite" or "postgres") and runs migrations.
func Open(driver, dsn string, policy storage.RetryPolicy) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(db, d); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db, dialect: d, policy: policy}, nil
}

func migrate(db *sql.DB, d dialect) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect(d.goose); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.Up(db, "migrations")
}

// gooseLogger routes goose output through slog.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	slog.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrations")
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrations")
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
