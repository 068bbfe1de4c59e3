package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// defaultListLimit bounds ListRuns when the caller passes no limit.
const defaultListLimit = 50

// Run is one recorded invocation of a template command.
type Run struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Command       string    `json:"command"`
	Template      string    `json:"template"`
	Reduced       string    `json:"reduced,omitempty"`
	DemoSQL       string    `json:"demo_sql,omitempty"`
	VariableCount int       `json:"variable_count"`
	Removed       int       `json:"removed"`
	Kept          int       `json:"kept"`
	DecisionsJSON string    `json:"decisions_json,omitempty"`
}

// RecordRun inserts a run into the history. A missing ID or CreatedAt
// is filled in before the insert.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if run.ID == "" {
		run.ID = generateID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	s.logger.Debug("recording run",
		slog.String("id", run.ID),
		slog.String("command", run.Command))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, command, template, reduced, demo_sql, variable_count, removed, kept, decisions_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt, run.Command, run.Template, run.Reduced, run.DemoSQL,
		run.VariableCount, run.Removed, run.Kept, run.DecisionsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return nil
}

// GetRun retrieves a run by ID. A unique ID prefix of at least four
// characters also matches, so short IDs from history listings work.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx, selectRunColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return s.getRunByPrefix(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

func (s *Store) getRunByPrefix(ctx context.Context, prefix string) (*Run, error) {
	if len(prefix) < 4 {
		return nil, fmt.Errorf("run not found: %s", prefix)
	}

	rows, err := s.db.QueryContext(ctx,
		selectRunColumns+` FROM runs WHERE id LIKE ? ORDER BY created_at DESC LIMIT 2`,
		prefix+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	defer rows.Close()

	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("run not found: %s", prefix)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous run id: %s", prefix)
	}
}

// ListRuns retrieves the most recent runs, newest first, up to limit.
// A limit of zero or less uses the default.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		selectRunColumns+` FROM runs ORDER BY created_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Clear deletes all recorded runs and reports how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear runs: %w", err)
	}

	removed, _ := result.RowsAffected()
	return removed, nil
}

const selectRunColumns = `SELECT id, created_at, command, template, reduced, demo_sql, variable_count, removed, kept, decisions_json`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	err := row.Scan(
		&run.ID, &run.CreatedAt, &run.Command, &run.Template, &run.Reduced,
		&run.DemoSQL, &run.VariableCount, &run.Removed, &run.Kept, &run.DecisionsJSON,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}
