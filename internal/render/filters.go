package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und)

// applyFilter applies one filter from a pipe chain to the current value.
func applyFilter(name string, args []string, value any) (any, error) {
	switch name {
	case "upper":
		return strings.ToUpper(text(value)), nil

	case "lower":
		return strings.ToLower(text(value)), nil

	case "title":
		return titleCaser.String(text(value)), nil

	case "trim":
		return strings.TrimSpace(text(value)), nil

	case "default":
		if len(args) != 1 {
			return nil, filterErr(name, "expects one argument")
		}
		if value == nil {
			return argValue(args[0]), nil
		}
		return value, nil

	case "join":
		sep := ", "
		if len(args) > 0 {
			sep = argString(args[0])
		}
		elems, ok := elements(value)
		if !ok {
			return nil, filterErr(name, "value is not a list")
		}
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = text(e)
		}
		return strings.Join(parts, sep), nil

	case "round":
		places := 0
		if len(args) > 0 {
			n, err := argInt(args[0])
			if err != nil {
				return nil, filterErr(name, "argument must be an integer")
			}
			places = n
		}
		f, ok := toFloat(value)
		if !ok {
			return nil, filterErr(name, "value is not numeric")
		}
		shift := math.Pow(10, float64(places))
		return math.Round(f*shift) / shift, nil

	case "int":
		f, ok := toFloat(value)
		if !ok {
			return nil, filterErr(name, "value is not numeric")
		}
		return int64(f), nil

	case "float":
		f, ok := toFloat(value)
		if !ok {
			return nil, filterErr(name, "value is not numeric")
		}
		return f, nil

	case "truncate":
		if len(args) != 1 {
			return nil, filterErr(name, "expects one argument")
		}
		n, err := argInt(args[0])
		if err != nil || n < 0 {
			return nil, filterErr(name, "argument must be a non-negative integer")
		}
		s := text(value)
		if utf8.RuneCountInString(s) <= n {
			return s, nil
		}
		runes := []rune(s)
		return string(runes[:n]), nil

	case "replace":
		if len(args) != 2 {
			return nil, filterErr(name, "expects two arguments")
		}
		return strings.ReplaceAll(text(value), argString(args[0]), argString(args[1])), nil

	case "length":
		switch val := value.(type) {
		case string:
			return utf8.RuneCountInString(val), nil
		case []any:
			return len(val), nil
		case []string:
			return len(val), nil
		case map[string]any:
			return len(val), nil
		default:
			return nil, filterErr(name, "value has no length")
		}

	default:
		return nil, &RenderError{Expr: name, Message: "unknown filter"}
	}
}

func filterErr(filter, msg string) *RenderError {
	return &RenderError{Expr: filter, Message: msg}
}

// parseFilter splits a chain segment like "truncate(10)" into the filter
// name and its raw argument strings.
func parseFilter(segment string) (string, []string, error) {
	segment = strings.TrimSpace(segment)

	idx := strings.IndexByte(segment, '(')
	if idx < 0 {
		return segment, nil, nil
	}
	if !strings.HasSuffix(segment, ")") {
		return "", nil, &RenderError{Expr: segment, Message: "malformed filter call"}
	}

	name := strings.TrimSpace(segment[:idx])
	inner := segment[idx+1 : len(segment)-1]
	return name, splitArgs(inner), nil
}

// splitArgs splits filter arguments on commas outside quotes.
func splitArgs(inner string) []string {
	if strings.TrimSpace(inner) == "" {
		return nil
	}

	var args []string
	var quote byte
	start := 0

	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ',':
			args = append(args, strings.TrimSpace(inner[start:i]))
			start = i + 1
		}
	}

	return append(args, strings.TrimSpace(inner[start:]))
}

// argString unwraps a quoted argument; unquoted arguments pass through.
func argString(arg string) string {
	if len(arg) >= 2 {
		if (arg[0] == '\'' && arg[len(arg)-1] == '\'') || (arg[0] == '"' && arg[len(arg)-1] == '"') {
			return arg[1 : len(arg)-1]
		}
	}
	return arg
}

// argValue gives a typed rendering of an argument: quoted text stays a
// string, numbers and booleans convert.
func argValue(arg string) any {
	if len(arg) >= 2 {
		if (arg[0] == '\'' && arg[len(arg)-1] == '\'') || (arg[0] == '"' && arg[len(arg)-1] == '"') {
			return arg[1 : len(arg)-1]
		}
	}
	if n, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(arg, 64); err == nil {
		return f
	}
	switch strings.ToLower(arg) {
	case "true":
		return true
	case "false":
		return false
	}
	return arg
}

func argInt(arg string) (int, error) {
	return strconv.Atoi(argString(arg))
}

// text renders a value as plain text for string-oriented filters.
func text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
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
	default:
		return fmt.Sprintf("%v", val)
	}
}

// toFloat coerces numeric values and numeric strings to float64.
func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// elements normalizes list-like values for the join filter.
func elements(v any) ([]any, bool) {
	switch val := v.(type) {
	case []any:
		return val, true
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}
