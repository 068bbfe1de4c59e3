package output

import (
	"fmt"
	"io"
	"strings"
)

// FormatHeader formats a markdown header at the given level.
func FormatHeader(level int, text string) string {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue formats a bolded key-value line.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s**: %s", key, value)
}

// FormatSQLBlock wraps sql in a fenced code block.
func FormatSQLBlock(sql string) string {
	return "```sql\n" + strings.TrimRight(sql, "\n") + "\n```"
}

// MarkdownTable writes a pipe table with a header row.
func MarkdownTable(w io.Writer, cols []string, rows [][]string) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cols, " | "))

	seps := make([]string, len(cols))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, row := range rows {
		cells := make([]string, len(cols))
		for i := range cols {
			if i < len(row) {
				cells[i] = escapeMarkdownCell(row[i])
			}
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
}

// escapeMarkdownCell keeps cell content on one line and pipes literal.
func escapeMarkdownCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
