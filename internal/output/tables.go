package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sqlsift/sqlsift/internal/extract"
	"github.com/sqlsift/sqlsift/internal/reduce"
)

var titleCaser = cases.Title(language.English)

// VariablesTable renders extracted variable descriptors as a table.
func VariablesTable(w io.Writer, vars []extract.Variable) {
	if len(vars) == 0 {
		_, _ = fmt.Fprintln(w, "(no variables)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Type", "Default", "Required", "Filters", "Method"})

	for _, v := range vars {
		name := v.Name
		if !v.Valid {
			name += " (!)"
		}
		dflt := ""
		if v.Default != nil {
			dflt = fmt.Sprintf("%v", v.Default)
		}
		t.AppendRow(table.Row{
			name,
			titleCaser.String(string(v.Type)),
			dflt,
			yesNo(v.Required),
			strings.Join(v.Filters, ", "),
			string(v.Method),
		})
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d variables)\n", len(vars))

	for _, v := range vars {
		if !v.Valid && v.ValidationError != "" {
			_, _ = fmt.Fprintf(w, "! %s: %s\n", v.Name, v.ValidationError)
		}
	}
}

// DecisionsTable renders the reduction decision log as a table.
func DecisionsTable(w io.Writer, decisions []reduce.Decision) {
	if len(decisions) == 0 {
		_, _ = fmt.Fprintln(w, "(no conditional blocks)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Condition", "Verdict", "Reason"})

	for _, d := range decisions {
		verdict := "removed"
		if d.Keep {
			verdict = "kept"
		}
		t.AppendRow(table.Row{d.Condition, titleCaser.String(verdict), d.Reason})
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d decisions)\n", len(decisions))
}

// ResultsTable renders query results as a table with a row count footer.
func ResultsTable(w io.Writer, cols []string, rows []map[string]any) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(cols))
	for i, col := range cols {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, result := range rows {
		row := make(table.Row, len(cols))
		for i, col := range cols {
			row[i] = formatValue(result[col])
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
