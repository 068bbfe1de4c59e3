package starlark

import (
	"go.starlark.net/syntax"
)

// ParseExpr statically parses an expression without executing it.
// The returned tree is what the variable extractor walks.
func ParseExpr(expr string) (syntax.Expr, error) {
	parsed, err := syntax.ParseExpr("<expr>", expr, 0)
	if err != nil {
		return nil, newExprError(expr, err)
	}
	return parsed, nil
}

// ValidateExpr reports whether an expression is syntactically well formed.
func ValidateExpr(expr string) error {
	_, err := ParseExpr(expr)
	return err
}
