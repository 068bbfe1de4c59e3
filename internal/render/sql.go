package render

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FormatSQL renders a value as a SQL literal: strings single-quoted with
// embedded quotes doubled, numbers bare, booleans TRUE/FALSE, nil NULL,
// lists comma-joined element literals.
func FormatSQL(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"

	case string:
		return quoteSQL(val)

	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"

	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)

	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)

	case []string:
		parts := make([]string, len(val))
		for i, s := range val {
			parts[i] = quoteSQL(s)
		}
		return strings.Join(parts, ", ")

	case []any:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = FormatSQL(e)
		}
		return strings.Join(parts, ", ")

	case map[string]any:
		b, err := json.Marshal(val)
		if err != nil {
			return quoteSQL(fmt.Sprintf("%v", val))
		}
		return quoteSQL(string(b))

	default:
		return quoteSQL(fmt.Sprintf("%v", val))
	}
}

func quoteSQL(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// CleanupSQL tidies rendered output: full-line template comments are
// dropped, runs of blank lines collapse to one, and leading and trailing
// blank lines are trimmed.
func CleanupSQL(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "{#") && strings.HasSuffix(trimmed, "#}") {
			continue
		}
		if trimmed == "" {
			blank = true
			continue
		}
		if blank && len(out) > 0 {
			out = append(out, "")
		}
		blank = false
		out = append(out, line)
	}

	return strings.Join(out, "\n")
}
