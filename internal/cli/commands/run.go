package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sqlsift/sqlsift/internal/output"
	"github.com/sqlsift/sqlsift/internal/state"
	"github.com/sqlsift/sqlsift/pkg/adapter"

	// Register the built-in database drivers.
	_ "github.com/sqlsift/sqlsift/internal/adapter"
)

const defaultRowLimit = 100

// RunOptions holds options for the run command.
type RunOptions struct {
	Vars  []string
	Limit int
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Render a template and execute it against the configured database",
		Long: `Render a template into SQL and execute it via the configured adapter.

Queries print their rows as a table; statements without a result set
report success. The adapter comes from sqlsift.yml (duckdb in-memory by
default).`,
		Example: `  # Run against the default in-memory duckdb
  sqlsift run query.sql.j2 --var user_id=7

  # Run with demo values and cap the rows shown
  sqlsift run query.sql.j2 --limit 10

  # Rows as JSON for scripting
  sqlsift run query.sql.j2 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "Variable as NAME=VALUE (repeatable)")
	cmd.Flags().IntVar(&opts.Limit, "limit", defaultRowLimit, "Maximum rows to display (0 for all)")

	return cmd
}

func runExecute(cmd *cobra.Command, path string, opts *RunOptions) error {
	cmdCtx := NewCommandContext(cmd)
	ctx := cmd.Context()

	input, err := readTemplate(path)
	if err != nil {
		return err
	}

	vars, err := cmdCtx.LoadContextVars(opts.Vars)
	if err != nil {
		return err
	}

	// Render first so a template error never touches the database.
	var sqlText string
	if vars == nil {
		report := cmdCtx.Analyzer.Analyze(ctx, input, nil)
		if report.Error != "" {
			return fmt.Errorf("%s", report.Error)
		}
		sqlText = report.DemoSQL
	} else {
		res := cmdCtx.Analyzer.RenderOnly(ctx, input, vars)
		if res.Error != "" {
			return fmt.Errorf("%s", res.Error)
		}
		sqlText = res.SQL
	}

	store, cleanup, err := cmdCtx.OpenHistory()
	if err != nil {
		return err
	}
	defer cleanup()

	return executeSQL(ctx, cmdCtx, sqlText, opts.Limit, func() {
		cmdCtx.RecordRun(ctx, store, &state.Run{
			Command:  "run",
			Template: input,
			DemoSQL:  sqlText,
		})
	})
}

// executeSQL connects the configured adapter, executes sqlText, and prints
// the outcome in the renderer's mode. record runs once the statement has
// succeeded, before any output. Shared by run and history rerun.
func executeSQL(ctx context.Context, cmdCtx *CommandContext, sqlText string, limit int, record func()) error {
	r := cmdCtx.Renderer

	adapterCfg := cmdCtx.Cfg.GetAdapter().ToAdapterConfig()
	db, err := adapter.New(adapterCfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	if err := db.Connect(ctx, adapterCfg); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", adapterCfg.Driver, err)
	}
	defer func() { _ = db.Close() }()

	if !isQueryStatement(sqlText) {
		if err := execWithSpinner(ctx, r, db, sqlText); err != nil {
			return err
		}
		if record != nil {
			record()
		}
		r.Success(fmt.Sprintf("executed against %s", db.DialectName()))
		return nil
	}

	rows, err := queryWithSpinner(ctx, r, db, sqlText)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	cols, results, err := scanRows(rows, limit)
	if err != nil {
		return err
	}
	if record != nil {
		record()
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(runOutput{Success: true, Columns: cols, Rows: results})

	case output.ModeMarkdown:
		output.MarkdownTable(r.Writer(), cols, resultMarkdownRows(cols, results))

	default:
		output.ResultsTable(r.Writer(), cols, results)
	}

	return nil
}

// runOutput is the JSON payload for the run command.
type runOutput struct {
	Success bool             `json:"success"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

func execWithSpinner(ctx context.Context, r *output.Renderer, db adapter.Adapter, sqlText string) error {
	if !r.IsTerminal() {
		return db.Exec(ctx, sqlText)
	}

	sp := r.NewSpinner("executing")
	sp.Start()
	if err := db.Exec(ctx, sqlText); err != nil {
		sp.Fail("execution failed")
		return err
	}
	sp.Stop()
	return nil
}

func queryWithSpinner(ctx context.Context, r *output.Renderer, db adapter.Adapter, sqlText string) (*adapter.Rows, error) {
	if !r.IsTerminal() {
		return db.Query(ctx, sqlText)
	}

	sp := r.NewSpinner("running query")
	sp.Start()
	rows, err := db.Query(ctx, sqlText)
	if err != nil {
		sp.Fail("query failed")
		return nil, err
	}
	sp.Stop()
	return rows, nil
}

// isQueryStatement reports whether the SQL produces a result set.
func isQueryStatement(sqlText string) bool {
	first := strings.ToUpper(firstWord(sqlText))
	switch first {
	case "SELECT", "WITH", "SHOW", "PRAGMA", "DESCRIBE", "EXPLAIN", "VALUES", "TABLE":
		return true
	}
	return false
}

func firstWord(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		if i := strings.IndexAny(line, " \t("); i > 0 {
			return line[:i]
		}
		return line
	}
	return ""
}

// scanRows reads up to limit rows into name-keyed maps.
func scanRows(rows *adapter.Rows, limit int) ([]string, []map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var results []map[string]any
	for rows.Next() {
		if limit > 0 && len(results) >= limit {
			break
		}

		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return cols, results, nil
}

func resultMarkdownRows(cols []string, rows []map[string]any) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(cols))
		for i, col := range cols {
			if row[col] == nil {
				cells[i] = "NULL"
			} else {
				cells[i] = fmt.Sprintf("%v", row[col])
			}
		}
		out = append(out, cells)
	}
	return out
}
