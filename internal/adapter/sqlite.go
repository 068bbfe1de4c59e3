package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	_ "modernc.org/sqlite" // cgo-free sqlite driver

	"github.com/sqlsift/sqlsift/pkg/adapter"
)

func init() {
	adapter.Register("sqlite", func(logger *slog.Logger) adapter.Adapter { return NewSQLite(logger) })
}

// SQLite implements the adapter.Adapter interface for SQLite.
type SQLite struct {
	adapter.BaseSQLAdapter
}

// NewSQLite creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func NewSQLite(logger *slog.Logger) *SQLite {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SQLite{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// DialectName returns the SQL dialect for this adapter.
func (a *SQLite) DialectName() string {
	return "sqlite"
}

// Connect establishes a connection to SQLite.
// An empty DSN opens an in-memory database.
func (a *SQLite) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = ":memory:"
	}

	a.Logger.Debug("connecting to sqlite", slog.String("dsn", dsn))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// Ensure SQLite implements the adapter interface
var _ adapter.Adapter = (*SQLite)(nil)
