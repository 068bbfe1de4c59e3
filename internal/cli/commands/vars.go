package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sqlsift/sqlsift/internal/extract"
	"github.com/sqlsift/sqlsift/internal/output"
)

// NewVarsCommand creates the vars command.
func NewVarsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vars <file>",
		Short: "Extract variable descriptors from a template",
		Long: `Extract the variables a template expects, with inferred types, demo
defaults, and filter chains.

Reads from stdin when the file argument is "-".`,
		Example: `  # Show variables as a table
  sqlsift vars query.sql.j2

  # From stdin
  cat query.sql.j2 | sqlsift vars -

  # Machine-readable
  sqlsift vars query.sql.j2 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVars(cmd, args[0])
		},
	}

	return cmd
}

func runVars(cmd *cobra.Command, path string) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	input, err := readTemplate(path)
	if err != nil {
		return err
	}

	vars := cmdCtx.Analyzer.Extract(cmd.Context(), input)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(varsOutput{Success: true, Variables: vars})

	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Variables"))
		r.Println("")
		output.MarkdownTable(r.Writer(), varsMarkdownColumns, varsMarkdownRows(vars))

	default:
		output.VariablesTable(r.Writer(), vars)
	}

	return nil
}

// varsOutput is the JSON payload for the vars command.
type varsOutput struct {
	Success   bool               `json:"success"`
	Variables []extract.Variable `json:"variables"`
}

var varsMarkdownColumns = []string{"Name", "Type", "Default", "Required", "Filters", "Method"}

func varsMarkdownRows(vars []extract.Variable) [][]string {
	rows := make([][]string, 0, len(vars))
	for _, v := range vars {
		dflt := ""
		if v.Default != nil {
			dflt = fmt.Sprintf("%v", v.Default)
		}
		rows = append(rows, []string{
			v.Name,
			string(v.Type),
			dflt,
			fmt.Sprintf("%t", v.Required),
			strings.Join(v.Filters, ", "),
			string(v.Method),
		})
	}
	return rows
}
