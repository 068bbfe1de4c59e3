package state

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:", nil)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_OpenClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	store, err := Open(path, nil)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	version, err := store.MigrationVersion()
	if err != nil {
		t.Fatalf("failed to get migration version: %v", err)
	}
	if version != 1 {
		t.Errorf("expected migration version 1, got %d", version)
	}

	if store.Path() != path {
		t.Errorf("expected path %q, got %q", path, store.Path())
	}

	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestStore_RunLifecycle(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		setup     func(t *testing.T, store *Store) *Run
		operation func(t *testing.T, store *Store, run *Run)
	}{
		{
			name: "record fills id and created_at",
			setup: func(t *testing.T, store *Store) *Run {
				run := &Run{Command: "reduce", Template: "SELECT 1"}
				if err := store.RecordRun(ctx, run); err != nil {
					t.Fatalf("failed to record run: %v", err)
				}
				return run
			},
			operation: func(t *testing.T, store *Store, run *Run) {
				if run.ID == "" {
					t.Error("run ID should not be empty")
				}
				if run.CreatedAt.IsZero() {
					t.Error("created_at should be set")
				}
			},
		},
		{
			name: "get run round-trips fields",
			setup: func(t *testing.T, store *Store) *Run {
				run := &Run{
					Command:       "analyze",
					Template:      "SELECT * FROM t WHERE {% if a %}1{% endif %}",
					Reduced:       "SELECT * FROM t WHERE 1",
					DemoSQL:       "SELECT * FROM t WHERE 1",
					VariableCount: 1,
					Removed:       0,
					Kept:          1,
					DecisionsJSON: `[{"keep":true}]`,
				}
				if err := store.RecordRun(ctx, run); err != nil {
					t.Fatalf("failed to record run: %v", err)
				}
				return run
			},
			operation: func(t *testing.T, store *Store, run *Run) {
				retrieved, err := store.GetRun(ctx, run.ID)
				if err != nil {
					t.Fatalf("failed to get run: %v", err)
				}
				if retrieved.Command != "analyze" {
					t.Errorf("expected command 'analyze', got %q", retrieved.Command)
				}
				if retrieved.Reduced != run.Reduced {
					t.Errorf("expected reduced %q, got %q", run.Reduced, retrieved.Reduced)
				}
				if retrieved.VariableCount != 1 || retrieved.Kept != 1 {
					t.Errorf("expected counts to round-trip, got %+v", retrieved)
				}
				if retrieved.DecisionsJSON != run.DecisionsJSON {
					t.Errorf("expected decisions %q, got %q", run.DecisionsJSON, retrieved.DecisionsJSON)
				}
			},
		},
		{
			name: "get run by prefix",
			setup: func(t *testing.T, store *Store) *Run {
				run := &Run{Command: "render", Template: "SELECT 2"}
				if err := store.RecordRun(ctx, run); err != nil {
					t.Fatalf("failed to record run: %v", err)
				}
				return run
			},
			operation: func(t *testing.T, store *Store, run *Run) {
				retrieved, err := store.GetRun(ctx, run.ID[:8])
				if err != nil {
					t.Fatalf("failed to get run by prefix: %v", err)
				}
				if retrieved.ID != run.ID {
					t.Errorf("expected ID %q, got %q", run.ID, retrieved.ID)
				}
			},
		},
		{
			name: "get run not found",
			setup: func(t *testing.T, store *Store) *Run {
				return nil
			},
			operation: func(t *testing.T, store *Store, run *Run) {
				_, err := store.GetRun(ctx, "nonexistent-id")
				if err == nil {
					t.Error("expected error for nonexistent run")
				}
				if err != nil && !strings.Contains(err.Error(), "run not found") {
					t.Errorf("expected not found error, got %v", err)
				}
			},
		},
		{
			name: "ambiguous prefix is an error",
			setup: func(t *testing.T, store *Store) *Run {
				for _, id := range []string{"feed1111", "feed2222"} {
					run := &Run{ID: id, Command: "reduce", Template: "SELECT 3"}
					if err := store.RecordRun(ctx, run); err != nil {
						t.Fatalf("failed to record run: %v", err)
					}
				}
				return nil
			},
			operation: func(t *testing.T, store *Store, run *Run) {
				_, err := store.GetRun(ctx, "feed")
				if err == nil {
					t.Fatal("expected error for ambiguous prefix")
				}
				if !strings.Contains(err.Error(), "ambiguous") {
					t.Errorf("expected ambiguous error, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestStore(t)
			run := tt.setup(t, store)
			tt.operation(t, store, run)
		})
	}
}

func TestStore_ListRuns(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := &Run{
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Command:   "reduce",
			Template:  "SELECT 1",
		}
		if err := store.RecordRun(ctx, run); err != nil {
			t.Fatalf("failed to record run: %v", err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if !runs[0].CreatedAt.After(runs[1].CreatedAt) {
		t.Errorf("expected newest first, got %v then %v", runs[0].CreatedAt, runs[1].CreatedAt)
	}

	all, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("failed to list runs with default limit: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 runs with default limit, got %d", len(all))
	}
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	for i := 0; i < 2; i++ {
		if err := store.RecordRun(ctx, &Run{Command: "render", Template: "SELECT 1"}); err != nil {
			t.Fatalf("failed to record run: %v", err)
		}
	}

	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("failed to clear runs: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected empty history, got %d runs", len(runs))
	}
}
