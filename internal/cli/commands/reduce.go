package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqlsift/sqlsift/internal/output"
	"github.com/sqlsift/sqlsift/internal/reduce"
	"github.com/sqlsift/sqlsift/internal/state"
)

// ReduceOptions holds options for the reduce command.
type ReduceOptions struct {
	Vars    []string
	Demo    bool
	Explain bool
}

// NewReduceCommand creates the reduce command.
func NewReduceCommand() *cobra.Command {
	opts := &ReduceOptions{}

	cmd := &cobra.Command{
		Use:   "reduce <file>",
		Short: "Strip conditional blocks against a variable context",
		Long: `Reduce a template by evaluating its conditional blocks against the
given variables. Blocks whose condition is falsy are removed, the rest
are unwrapped. Variables stay as placeholders; use "render" to
substitute them.

Without --var, a vars file, or --demo, conditions evaluate against an
empty context, so every conditional block is stripped.`,
		Example: `  # Reduce with explicit variables
  sqlsift reduce query.sql.j2 --var include_deleted=true --var region=eu

  # Reduce against synthesized demo values
  sqlsift reduce query.sql.j2 --demo

  # Show why each block was kept or removed
  sqlsift reduce query.sql.j2 --var status=active --explain`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReduce(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "Variable as NAME=VALUE (repeatable)")
	cmd.Flags().BoolVar(&opts.Demo, "demo", false, "Synthesize demo values for all variables")
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "Show the per-block decision log")

	return cmd
}

func runReduce(cmd *cobra.Command, path string, opts *ReduceOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	input, err := readTemplate(path)
	if err != nil {
		return err
	}

	vars, err := cmdCtx.LoadContextVars(opts.Vars)
	if err != nil {
		return err
	}
	switch {
	case opts.Demo:
		if vars != nil {
			r.Warning("ignoring --demo because variables were provided")
		}
	case vars == nil:
		// Reduce against an empty context: unknowns are falsy.
		vars = map[string]any{}
	}

	report := cmdCtx.Analyzer.Analyze(cmd.Context(), input, vars)
	if report.Error != "" {
		return fmt.Errorf("%s", report.Error)
	}

	store, closeStore, err := cmdCtx.OpenHistory()
	if err != nil {
		return err
	}
	defer closeStore()
	cmdCtx.RecordRun(cmd.Context(), store, &state.Run{
		Command:       "reduce",
		Template:      input,
		Reduced:       report.Reduced,
		VariableCount: len(report.Variables),
		Removed:       report.Removed,
		Kept:          report.Kept,
		DecisionsJSON: decisionsJSON(report.Decisions),
	})

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(report)

	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Reduced SQL"))
		r.Println("")
		r.Println(output.FormatSQLBlock(report.Reduced))
		if opts.Explain {
			r.Println("")
			r.Println(output.FormatHeader(2, "Decisions"))
			r.Println("")
			output.MarkdownTable(r.Writer(), decisionMarkdownColumns, decisionMarkdownRows(report.Decisions))
		}

	case output.ModeTable:
		r.Println(report.Reduced)
		r.Println("")
		output.DecisionsTable(r.Writer(), report.Decisions)

	default:
		r.Println(report.Reduced)
		if opts.Explain {
			r.Println("")
			output.DecisionsTable(r.Writer(), report.Decisions)
		}
	}

	return nil
}

var decisionMarkdownColumns = []string{"Condition", "Verdict", "Reason"}

func decisionMarkdownRows(decisions []reduce.Decision) [][]string {
	rows := make([][]string, 0, len(decisions))
	for _, d := range decisions {
		verdict := "removed"
		if d.Keep {
			verdict = "kept"
		}
		rows = append(rows, []string{d.Condition, verdict, d.Reason})
	}
	return rows
}
