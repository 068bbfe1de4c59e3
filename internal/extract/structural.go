package extract

import (
	"go.starlark.net/syntax"

	starctx "github.com/sqlsift/sqlsift/internal/starlark"
)

// structural is the first extraction tier: parse every expression body
// into a syntax tree and walk it. Any body that fails to parse aborts the
// tier, as does finding no variables at all; both cases fall through to
// the pattern tiers.
func (x *Extractor) structural(bodies []body, loopVars map[string]bool) ([]Variable, bool) {
	acc := newAccumulator(MethodStructural)

	for _, b := range bodies {
		expr, err := starctx.ParseExpr(b.text)
		if err != nil {
			x.logger.Debug("expression not structurally parseable", "expr", b.text, "error", err)
			return nil, false
		}
		walkExpr(expr, acc, loopVars)
	}

	vars := acc.variables(loopVars)
	if len(vars) == 0 {
		return nil, false
	}
	return vars, true
}

// walkExpr records every variable reference under e. It returns the name
// of the subtree's base variable so filter applications can attach to it,
// or "" when the subtree has no single base.
func walkExpr(e syntax.Expr, acc *accumulator, loopVars map[string]bool) string {
	switch node := e.(type) {
	case *syntax.Ident:
		if isKeyword(node.Name) {
			return ""
		}
		acc.add(node.Name)
		return node.Name

	case *syntax.DotExpr:
		// base.attr is one combined dotted name; the base is not
		// recorded separately.
		if name, ok := flattenDot(node); ok {
			acc.add(name)
			return name
		}
		walkExpr(node.X, acc, loopVars)
		return ""

	case *syntax.BinaryExpr:
		if node.Op == syntax.PIPE {
			base := walkExpr(node.X, acc, loopVars)
			if filter := filterName(node.Y, acc, loopVars); filter != "" && base != "" {
				acc.addFilter(base, filter)
			}
			return base
		}
		base := walkExpr(node.X, acc, loopVars)
		walkExpr(node.Y, acc, loopVars)
		return base

	case *syntax.UnaryExpr:
		if node.X == nil {
			return ""
		}
		return walkExpr(node.X, acc, loopVars)

	case *syntax.ParenExpr:
		return walkExpr(node.X, acc, loopVars)

	case *syntax.CallExpr:
		// A bare identifier in call position is a function, not an
		// input variable.
		if _, ok := node.Fn.(*syntax.Ident); !ok {
			walkExpr(node.Fn, acc, loopVars)
		}
		for _, arg := range node.Args {
			walkExpr(arg, acc, loopVars)
		}
		return ""

	case *syntax.IndexExpr:
		base := walkExpr(node.X, acc, loopVars)
		walkExpr(node.Y, acc, loopVars)
		return base

	case *syntax.SliceExpr:
		base := walkExpr(node.X, acc, loopVars)
		for _, part := range []syntax.Expr{node.Lo, node.Hi, node.Step} {
			if part != nil {
				walkExpr(part, acc, loopVars)
			}
		}
		return base

	case *syntax.ListExpr:
		for _, elem := range node.List {
			walkExpr(elem, acc, loopVars)
		}
		return ""

	case *syntax.TupleExpr:
		for _, elem := range node.List {
			walkExpr(elem, acc, loopVars)
		}
		return ""

	case *syntax.DictExpr:
		for _, entry := range node.List {
			if kv, ok := entry.(*syntax.DictEntry); ok {
				walkExpr(kv.Key, acc, loopVars)
				walkExpr(kv.Value, acc, loopVars)
			}
		}
		return ""

	case *syntax.CondExpr:
		walkExpr(node.Cond, acc, loopVars)
		walkExpr(node.True, acc, loopVars)
		walkExpr(node.False, acc, loopVars)
		return ""

	case *syntax.Comprehension:
		for _, clause := range node.Clauses {
			switch c := clause.(type) {
			case *syntax.ForClause:
				markLoopVars(c.Vars, loopVars)
				walkExpr(c.X, acc, loopVars)
			case *syntax.IfClause:
				walkExpr(c.Cond, acc, loopVars)
			}
		}
		walkExpr(node.Body, acc, loopVars)
		return ""

	default:
		// Literals and anything unrecognized carry no variable refs.
		return ""
	}
}

// filterName extracts the filter name from the right side of a pipe:
// either a bare identifier ("upper") or a call ("truncate(10)"). Call
// arguments are still walked for nested variable references.
func filterName(e syntax.Expr, acc *accumulator, loopVars map[string]bool) string {
	switch node := e.(type) {
	case *syntax.Ident:
		return node.Name
	case *syntax.CallExpr:
		for _, arg := range node.Args {
			walkExpr(arg, acc, loopVars)
		}
		if ident, ok := node.Fn.(*syntax.Ident); ok {
			return ident.Name
		}
	}
	return ""
}

// flattenDot builds the combined dotted name for an attribute chain whose
// base is a plain identifier, e.g. user.profile.email.
func flattenDot(e *syntax.DotExpr) (string, bool) {
	switch x := e.X.(type) {
	case *syntax.Ident:
		if isKeyword(x.Name) {
			return "", false
		}
		return x.Name + "." + e.Name.Name, true
	case *syntax.DotExpr:
		base, ok := flattenDot(x)
		if !ok {
			return "", false
		}
		return base + "." + e.Name.Name, true
	default:
		return "", false
	}
}

// markLoopVars records comprehension-bound names so they are excluded
// from the extracted set.
func markLoopVars(e syntax.Expr, loopVars map[string]bool) {
	switch node := e.(type) {
	case *syntax.Ident:
		loopVars[node.Name] = true
	case *syntax.TupleExpr:
		for _, elem := range node.List {
			markLoopVars(elem, loopVars)
		}
	case *syntax.ListExpr:
		for _, elem := range node.List {
			markLoopVars(elem, loopVars)
		}
	case *syntax.ParenExpr:
		markLoopVars(node.X, loopVars)
	}
}
