// Package adapter defines the contract between sqlsift and the databases
// it can execute rendered SQL against.
//
// Concrete drivers live in internal/adapter and register themselves with
// this package's registry in their init functions.
package adapter

import (
	"context"
	"database/sql"
)

// Config holds the connection settings for a database target.
type Config struct {
	// Driver selects the registered adapter ("duckdb", "postgres", "sqlite").
	Driver string

	// DSN is the driver-specific connection string. Empty means the
	// driver's default (in-memory for file databases).
	DSN string

	// Options contains additional driver-specific settings.
	Options map[string]string
}

// Rows wraps sql.Rows to provide a consistent interface across adapters.
type Rows struct {
	*sql.Rows
}

// Adapter is the interface every database driver implements.
type Adapter interface {
	// Connect establishes a connection using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// DialectName returns the SQL dialect name ("duckdb", "postgres", "sqlite").
	DialectName() string
}
