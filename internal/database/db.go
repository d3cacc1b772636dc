package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DB wraps a *sql.DB together with the driver it was opened with, so
// repositories can adapt placeholder syntax.
type DB struct {
	SQL    *sql.DB
	Driver string
}

// Open connects to the database, verifies the connection and applies the
// embedded schema.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	switch driver {
	case DriverPostgres:
	case DriverSQLite:
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// sqlite allows a single writer.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	d := &DB{SQL: db, Driver: driver}
	if err := d.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// EnsureSchema creates the tables used by the service if they do not exist.
func (d *DB) EnsureSchema(ctx context.Context) error {
	script, err := schemaFS.ReadFile("schema/" + d.Driver + ".sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	for _, stmt := range strings.Split(string(script), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := d.SQL.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

var placeholder = regexp.MustCompile(`\$\d+`)

// Rebind converts postgres-style $N placeholders to ? for sqlite. Queries
// must reference every argument once and in order.
func (d *DB) Rebind(query string) string {
	if d.Driver != DriverSQLite {
		return query
	}
	return placeholder.ReplaceAllString(query, "?")
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.SQL.Close()
}
