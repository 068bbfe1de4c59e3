package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqlsift/sqlsift/internal/analyze"
	"github.com/sqlsift/sqlsift/internal/output"
	"github.com/sqlsift/sqlsift/internal/state"
)

// RenderOptions holds options for the render command.
type RenderOptions struct {
	Vars []string
}

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a template into runnable SQL",
		Long: `Reduce a template's conditional blocks and substitute its variables,
producing SQL ready to execute.

With --var or a vars file the given values are substituted and a missing
variable is an error. Without any variables, demo values are synthesized
from the extracted defaults.`,
		Example: `  # Render with demo values
  sqlsift render query.sql.j2

  # Render with explicit variables
  sqlsift render query.sql.j2 --var user_id=7 --var region=eu

  # Render and save to file
  sqlsift render query.sql.j2 > rendered.sql`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRenderTemplate(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "Variable as NAME=VALUE (repeatable)")

	return cmd
}

func runRenderTemplate(cmd *cobra.Command, path string, opts *RenderOptions) error {
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

	store, cleanup, err := cmdCtx.OpenHistory()
	if err != nil {
		return err
	}
	defer cleanup()

	var res analyze.RenderResult
	var reduced string
	varCount := 0

	if vars == nil {
		// Demo render: synthesize values from the extracted defaults.
		report := cmdCtx.Analyzer.Analyze(cmd.Context(), input, nil)
		res = analyze.RenderResult{Success: report.Success, SQL: report.DemoSQL, Error: report.Error}
		reduced = report.Reduced
		varCount = len(report.Variables)
	} else {
		res = cmdCtx.Analyzer.RenderOnly(cmd.Context(), input, vars)
		varCount = len(vars)
	}

	if res.Error != "" {
		return fmt.Errorf("%s", res.Error)
	}

	cmdCtx.RecordRun(cmd.Context(), store, &state.Run{
		Command:       "render",
		Template:      input,
		Reduced:       reduced,
		DemoSQL:       res.SQL,
		VariableCount: varCount,
	})

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(res)

	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Rendered SQL"))
		r.Println("")
		r.Println(output.FormatSQLBlock(res.SQL))

	default:
		r.Println(res.SQL)
	}

	return nil
}
