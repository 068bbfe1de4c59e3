package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqlsift/sqlsift/internal/analyze"
	"github.com/sqlsift/sqlsift/internal/output"
	"github.com/sqlsift/sqlsift/internal/state"
)

// AnalyzeOptions holds options for the analyze command.
type AnalyzeOptions struct {
	Vars []string
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <file>...",
		Short: "Full analysis of one or more templates",
		Long: `Analyze templates end to end: extract variable descriptors, reduce
conditional blocks, and render demo SQL.

Multiple files are analyzed concurrently; results keep the argument
order. A template that fails to parse reports its error in place
without aborting the batch.`,
		Example: `  # Analyze one template
  sqlsift analyze query.sql.j2

  # Analyze a directory's worth of templates
  sqlsift analyze templates/*.sql.j2

  # Protocol output for tooling
  sqlsift analyze query.sql.j2 --output json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "Variable as NAME=VALUE (repeatable)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, paths []string, opts *AnalyzeOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	vars, err := cmdCtx.LoadContextVars(opts.Vars)
	if err != nil {
		return err
	}

	store, cleanup, err := cmdCtx.OpenHistory()
	if err != nil {
		return err
	}
	defer cleanup()

	var reports []analyze.FileReport
	if len(paths) == 1 && paths[0] == "-" {
		input, err := readTemplate("-")
		if err != nil {
			return err
		}
		reports = []analyze.FileReport{{
			Path:   "-",
			Report: cmdCtx.Analyzer.Analyze(cmd.Context(), input, vars),
		}}
	} else {
		reports, err = cmdCtx.Analyzer.AnalyzeFiles(cmd.Context(), paths, vars)
		if err != nil {
			return err
		}
	}

	for _, fr := range reports {
		varCount := len(fr.Variables)
		cmdCtx.RecordRun(cmd.Context(), store, &state.Run{
			Command:       "analyze",
			Template:      fr.Path,
			Reduced:       fr.Reduced,
			DemoSQL:       fr.DemoSQL,
			VariableCount: varCount,
			Removed:       fr.Removed,
			Kept:          fr.Kept,
			DecisionsJSON: decisionsJSON(fr.Decisions),
		})
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		// One template keeps the bare report shape for tooling.
		if len(reports) == 1 {
			return r.JSON(reports[0].Report)
		}
		return r.JSON(reports)

	case output.ModeMarkdown:
		for i, fr := range reports {
			if i > 0 {
				r.Println("")
			}
			writeMarkdownReport(r, fr)
		}

	default:
		for i, fr := range reports {
			if i > 0 {
				r.Println("")
			}
			writeTextReport(r, fr)
		}
	}

	return nil
}

func writeTextReport(r *output.Renderer, fr analyze.FileReport) {
	r.Header(1, fr.Path)

	if fr.Error != "" {
		r.Error(fr.Error)
		return
	}

	r.Println("")
	output.VariablesTable(r.Writer(), fr.Variables)

	if fr.HasConditionals {
		r.Println("")
		output.DecisionsTable(r.Writer(), fr.Decisions)
	}
	if fr.HasLoops {
		r.Warning("template contains loops; loop blocks are preserved, not reduced")
	}

	if fr.DemoSQL != "" {
		r.Println("")
		r.Header(2, "Demo SQL")
		r.Println(fr.DemoSQL)
	}
}

func writeMarkdownReport(r *output.Renderer, fr analyze.FileReport) {
	r.Println(output.FormatHeader(1, fr.Path))
	r.Println("")

	if fr.Error != "" {
		r.Println(output.FormatKeyValue("error", fr.Error))
		return
	}

	output.MarkdownTable(r.Writer(), varsMarkdownColumns, varsMarkdownRows(fr.Variables))

	if fr.HasConditionals {
		r.Println("")
		r.Println(output.FormatHeader(2, "Decisions"))
		r.Println("")
		output.MarkdownTable(r.Writer(), decisionMarkdownColumns, decisionMarkdownRows(fr.Decisions))
	}

	if fr.DemoSQL != "" {
		r.Println("")
		r.Println(output.FormatHeader(2, "Demo SQL"))
		r.Println("")
		r.Println(output.FormatSQLBlock(fr.DemoSQL))
	}

	r.Println("")
	r.Println(output.FormatKeyValue("kept", fmt.Sprintf("%d", fr.Kept)))
	r.Println(output.FormatKeyValue("removed", fmt.Sprintf("%d", fr.Removed)))
}
