package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqlsift/sqlsift/internal/output"
	"github.com/sqlsift/sqlsift/internal/state"
	"github.com/sqlsift/sqlsift/internal/tui"
)

// NewFillCommand creates the fill command.
func NewFillCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fill <file>",
		Short: "Fill a template's variables interactively and render it",
		Long: `Open an interactive form with one field per extracted variable, then
render the template with the entered values.

Each field shows the variable's inferred type and demo default; leaving
a field empty accepts the default. Booleans toggle with y/n.`,
		Example: `  sqlsift fill query.sql.j2

  # Save the result
  sqlsift fill query.sql.j2 > rendered.sql`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFill(cmd, args[0])
		},
	}

	return cmd
}

func runFill(cmd *cobra.Command, path string) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	input, err := readTemplate(path)
	if err != nil {
		return err
	}

	vars := cmdCtx.Analyzer.Extract(cmd.Context(), input)
	if len(vars) == 0 {
		r.Warning("template has no variables; rendering as-is")
	}

	values, err := tui.Run(vars)
	if err != nil {
		if errors.Is(err, tui.ErrCancelled) {
			r.Warning("cancelled")
			return nil
		}
		return err
	}

	res := cmdCtx.Analyzer.RenderOnly(cmd.Context(), input, values)
	if res.Error != "" {
		return fmt.Errorf("%s", res.Error)
	}

	store, cleanup, err := cmdCtx.OpenHistory()
	if err != nil {
		return err
	}
	defer cleanup()

	cmdCtx.RecordRun(cmd.Context(), store, &state.Run{
		Command:       "fill",
		Template:      input,
		DemoSQL:       res.SQL,
		VariableCount: len(values),
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
