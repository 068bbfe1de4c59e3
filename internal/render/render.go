// Package render substitutes {{ ... }} expressions in a reduced template,
// applying filter chains and formatting the results as SQL literals.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sqlsift/sqlsift/internal/template"
)

// RenderError reports a substitution failure: an undefined variable, an
// unknown filter, or a filter applied to an unsuitable value.
type RenderError struct {
	Expr    string
	Message string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("cannot render %q: %s", e.Expr, e.Message)
}

// Render replaces every {{ ... }} expression with the SQL literal of its
// resolved, filtered value. Expressions are spliced right to left so spans
// from one scan stay valid throughout.
func Render(input string, ctx map[string]any) (string, error) {
	exprs := template.NewScanner(input, "").Expressions()

	out := input
	for i := len(exprs) - 1; i >= 0; i-- {
		e := exprs[i]
		text, err := evalBody(e.Body, ctx)
		if err != nil {
			return "", err
		}
		out = out[:e.Start] + text + out[e.End:]
	}
	return out, nil
}

// evalBody resolves one expression body: base value, filter chain, SQL
// formatting.
func evalBody(body string, ctx map[string]any) (string, error) {
	segments := template.SplitPipes(body)
	base := strings.TrimSpace(segments[0])

	value, found := resolve(base, ctx)
	if !found {
		if lit, ok := literalValue(base); ok {
			value, found = lit, true
		}
	}
	// A default filter in the chain suppresses the undefined error and
	// supplies the value instead.
	if !found && !chainHasDefault(segments[1:]) {
		return "", &RenderError{Expr: base, Message: "variable is not defined"}
	}

	for _, seg := range segments[1:] {
		name, args, err := parseFilter(seg)
		if err != nil {
			return "", err
		}
		value, err = applyFilter(name, args, value)
		if err != nil {
			return "", err
		}
	}

	return FormatSQL(value), nil
}

// resolve looks a name up in the context: flat dotted key first, then
// nested map traversal.
func resolve(name string, ctx map[string]any) (any, bool) {
	if v, ok := ctx[name]; ok {
		return v, true
	}

	parts := strings.Split(name, ".")
	if len(parts) == 1 {
		return nil, false
	}

	m := ctx
	for i, part := range parts {
		v, ok := m[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		m, ok = v.(map[string]any)
		if !ok {
			return nil, false
		}
	}
	return nil, false
}

// literalValue interprets an expression base that is a literal rather than
// a variable reference.
func literalValue(text string) (any, bool) {
	if len(text) >= 2 {
		if (text[0] == '\'' && text[len(text)-1] == '\'') || (text[0] == '"' && text[len(text)-1] == '"') {
			return text[1 : len(text)-1], true
		}
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f, true
	}
	switch strings.ToLower(text) {
	case "true":
		return true, true
	case "false":
		return false, true
	case "none", "null":
		return nil, true
	}
	return nil, false
}

func chainHasDefault(segments []string) bool {
	for _, seg := range segments {
		if name, _, err := parseFilter(seg); err == nil && name == "default" {
			return true
		}
	}
	return false
}
