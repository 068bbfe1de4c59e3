package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sqlsift/sqlsift/internal/output"
	"github.com/sqlsift/sqlsift/internal/reduce"
	"github.com/sqlsift/sqlsift/internal/state"
)

// NewHistoryCommand creates the history command with its subcommands.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded analysis runs",
		Long: `Inspect the local history of reduce, render, analyze, and run
invocations. History lives in a SQLite database under the project
directory and can be disabled in sqlsift.yml.`,
		Example: `  # Recent runs
  sqlsift history list

  # Everything about one run (unique id prefix is enough)
  sqlsift history show 3f2a91c4

  # Execute a recorded run's SQL again
  sqlsift history rerun 3f2a91c4

  # Drop all recorded runs
  sqlsift history clear`,
	}

	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryRerunCommand())
	cmd.AddCommand(newHistoryClearCommand())

	return cmd
}

func newHistoryListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistoryList(cmd, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")

	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd, args[0])
		},
	}
}

func newHistoryRerunCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "rerun <id>",
		Short: "Execute a recorded run's SQL again",
		Long: `Execute the rendered SQL of a recorded run against the configured
adapter. Only runs that recorded rendered SQL (render, analyze, run,
fill) can be replayed; reduce output still carries {{ }} markers.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryRerun(cmd, args[0], limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", defaultRowLimit, "Maximum rows to display (0 for all)")

	return cmd
}

func newHistoryClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistoryClear(cmd)
		},
	}
}

// requireHistory opens the history store, erroring when history is
// disabled instead of silently no-opping.
func requireHistory(cmdCtx *CommandContext) (*state.Store, func(), error) {
	store, cleanup, err := cmdCtx.OpenHistory()
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return nil, nil, fmt.Errorf("history is disabled (enable it in sqlsift.yml)")
	}
	return store, cleanup, nil
}

func runHistoryList(cmd *cobra.Command, limit int) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	store, cleanup, err := requireHistory(cmdCtx)
	if err != nil {
		return err
	}
	defer cleanup()

	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(historyListOutput{Success: true, Runs: runs})

	case output.ModeMarkdown:
		output.MarkdownTable(r.Writer(), historyColumns, historyMarkdownRows(runs))

	default:
		output.ResultsTable(r.Writer(), historyColumns, historyTableRows(runs))
	}

	return nil
}

func runHistoryShow(cmd *cobra.Command, id string) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	store, cleanup, err := requireHistory(cmdCtx)
	if err != nil {
		return err
	}
	defer cleanup()

	run, err := store.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(run)
	}

	r.Header(1, fmt.Sprintf("Run %s", shortID(run.ID)))
	r.Println("")
	r.Printf("command:   %s\n", run.Command)
	r.Printf("created:   %s\n", run.CreatedAt.Local().Format(time.RFC3339))
	r.Printf("variables: %d\n", run.VariableCount)
	r.Printf("blocks:    kept %d, removed %d\n", run.Kept, run.Removed)

	if run.Reduced != "" {
		r.Println("")
		r.Header(2, "Reduced SQL")
		r.Println(run.Reduced)
	}
	if run.DemoSQL != "" {
		r.Println("")
		r.Header(2, "Rendered SQL")
		r.Println(run.DemoSQL)
	}

	if run.DecisionsJSON != "" {
		var decisions []reduce.Decision
		if err := json.Unmarshal([]byte(run.DecisionsJSON), &decisions); err == nil && len(decisions) > 0 {
			r.Println("")
			output.DecisionsTable(r.Writer(), decisions)
		}
	}

	return nil
}

func runHistoryRerun(cmd *cobra.Command, id string, limit int) error {
	cmdCtx := NewCommandContext(cmd)

	store, cleanup, err := requireHistory(cmdCtx)
	if err != nil {
		return err
	}
	defer cleanup()

	run, err := store.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	if run.DemoSQL == "" {
		return fmt.Errorf("run %s recorded no rendered SQL (use show to inspect it)", shortID(run.ID))
	}

	return executeSQL(cmd.Context(), cmdCtx, run.DemoSQL, limit, nil)
}

func runHistoryClear(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	store, cleanup, err := requireHistory(cmdCtx)
	if err != nil {
		return err
	}
	defer cleanup()

	removed, err := store.Clear(cmd.Context())
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(struct {
			Success bool  `json:"success"`
			Removed int64 `json:"removed"`
		}{true, removed})
	}

	r.Success(fmt.Sprintf("removed %d runs", removed))
	return nil
}

// historyListOutput is the JSON payload for history list.
type historyListOutput struct {
	Success bool         `json:"success"`
	Runs    []*state.Run `json:"runs"`
}

var historyColumns = []string{"id", "created", "command", "vars", "kept", "removed", "template"}

func historyTableRows(runs []*state.Run) []map[string]any {
	rows := make([]map[string]any, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, map[string]any{
			"id":       shortID(run.ID),
			"created":  run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			"command":  run.Command,
			"vars":     run.VariableCount,
			"kept":     run.Kept,
			"removed":  run.Removed,
			"template": templateSummary(run.Template),
		})
	}
	return rows
}

func historyMarkdownRows(runs []*state.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			run.Command,
			fmt.Sprintf("%d", run.VariableCount),
			fmt.Sprintf("%d", run.Kept),
			fmt.Sprintf("%d", run.Removed),
			templateSummary(run.Template),
		})
	}
	return rows
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// templateSummary compresses a template to one short line.
func templateSummary(template string) string {
	summary := strings.Join(strings.Fields(template), " ")
	if len(summary) > 48 {
		return summary[:45] + "..."
	}
	return summary
}
