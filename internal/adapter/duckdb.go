// Package adapter provides the database drivers sqlsift can execute
// rendered SQL against. Each driver registers itself with the pkg/adapter
// registry; importing this package for side effects makes all drivers
// available.
package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/sqlsift/sqlsift/pkg/adapter"
)

func init() {
	adapter.Register("duckdb", func(logger *slog.Logger) adapter.Adapter { return NewDuckDB(logger) })
}

// DuckDB implements the adapter.Adapter interface for DuckDB.
type DuckDB struct {
	adapter.BaseSQLAdapter
}

// NewDuckDB creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func NewDuckDB(logger *slog.Logger) *DuckDB {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DuckDB{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// DialectName returns the SQL dialect for this adapter.
func (a *DuckDB) DialectName() string {
	return "duckdb"
}

// Connect establishes a connection to DuckDB.
// An empty DSN opens an in-memory database.
func (a *DuckDB) Connect(ctx context.Context, cfg adapter.Config) error {
	a.Logger.Debug("connecting to duckdb", slog.String("dsn", cfg.DSN))

	db, err := sql.Open("duckdb", cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// Ensure DuckDB implements the adapter interface
var _ adapter.Adapter = (*DuckDB)(nil)
