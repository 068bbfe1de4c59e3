package extract

import (
	"context"
	"regexp"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/sqlsift/sqlsift/internal/template"

	starctx "github.com/sqlsift/sqlsift/internal/starlark"
)

// identRe matches an identifier, optionally extended by dotted property
// segments.
var identRe = regexp.MustCompile(`[a-zA-Z_]\w*(?:\.[a-zA-Z_]\w*)*`)

// validated is the second extraction tier: syntax-check every body with
// the engine (failures logged, never fatal), run the pattern scan, then
// probe-render each variable to record whether it evaluates cleanly.
func (x *Extractor) validated(ctx context.Context, bodies []body, loopVars map[string]bool) []Variable {
	for _, b := range bodies {
		if err := starctx.ValidateExpr(b.text); err != nil {
			x.logger.Debug("expression failed validation", "expr", b.text, "error", err)
		}
	}

	vars := x.pattern(bodies, loopVars)
	for i := range vars {
		vars[i].Method = MethodValidatedPattern
		if err := x.probe(ctx, vars[i]); err != nil {
			vars[i].Valid = false
			vars[i].ValidationError = err.Error()
		}
	}
	return vars
}

// pattern is the third extraction tier: pull variable names out of
// expression bodies by splitting on pipes, and out of condition bodies by
// scanning identifier tokens.
func (x *Extractor) pattern(bodies []body, loopVars map[string]bool) []Variable {
	acc := newAccumulator(MethodPattern)

	for _, b := range bodies {
		if b.cond {
			scanCondition(b.text, acc)
			continue
		}
		scanExpression(b.text, acc)
	}

	return acc.variables(loopVars)
}

// scanExpression handles a {{ ... }} body: the segment before the first
// pipe is the base variable, the rest is its filter chain. Filter
// arguments are stripped down to the bare filter name.
func scanExpression(text string, acc *accumulator) {
	segments := template.SplitPipes(text)
	if len(segments) == 0 {
		return
	}

	base := strings.TrimSpace(segments[0])
	if idx := strings.IndexByte(base, '['); idx > 0 {
		// Subscript access contributes its base name: user['name'] -> user.
		base = strings.TrimSpace(base[:idx])
	}
	if !isVariableName(base) {
		return
	}

	acc.add(base)
	for _, seg := range segments[1:] {
		name := strings.TrimSpace(seg)
		if idx := strings.IndexByte(name, '('); idx >= 0 {
			name = strings.TrimSpace(name[:idx])
		}
		if identRe.FindString(name) == name && name != "" {
			acc.addFilter(base, name)
		}
	}
}

// scanCondition handles an if/elif body: every identifier token that is
// not a keyword is a variable reference. Quoted regions are blanked first
// so string literals never contribute names.
func scanCondition(text string, acc *accumulator) {
	for _, token := range identRe.FindAllString(stripQuoted(text), -1) {
		if isKeyword(token) {
			continue
		}
		acc.add(token)
	}
}

// stripQuoted replaces quoted regions with spaces, preserving offsets.
func stripQuoted(text string) string {
	out := []byte(text)
	var quote byte

	for i := 0; i < len(out); i++ {
		c := out[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			out[i] = ' '
		case c == '\'' || c == '"':
			quote = c
			out[i] = ' '
		}
	}

	return string(out)
}

// isVariableName reports whether text is a plain or dotted identifier and
// not a reserved word.
func isVariableName(text string) bool {
	return text != "" && identRe.FindString(text) == text && !isKeyword(text)
}

// probe evaluates the variable's own reference expression against a
// context holding its synthetic default, verifying the name resolves the
// way a render would.
func (x *Extractor) probe(ctx context.Context, v Variable) error {
	_, err := x.engine.EvalExpr(ctx, v.Name, probeVars(v.Name, v.Default))
	return err
}

// probeVars builds the one-variable context for a probe. Dotted names are
// materialized as attribute-bearing structs so property access resolves.
func probeVars(name string, value any) map[string]any {
	parts := strings.Split(name, ".")
	if len(parts) == 1 {
		return map[string]any{name: value}
	}

	leaf, err := starctx.GoToStarlark(value)
	if err != nil {
		leaf = starlark.None
	}

	current := leaf
	for i := len(parts) - 1; i >= 1; i-- {
		current = starlarkstruct.FromStringDict(
			starlarkstruct.Default,
			starlark.StringDict{parts[i]: current},
		)
	}

	return map[string]any{parts[0]: current}
}
