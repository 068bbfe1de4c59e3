// Package starlark evaluates template expressions as Starlark code and
// provides static parsing helpers for structural analysis of expression text.
package starlark

import (
	"context"
	"errors"
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Engine evaluates expressions against a set of template variables.
// Threads are pooled so concurrent analyses reuse them.
type Engine struct {
	pool *ThreadPool
}

// NewEngine creates an engine with a default-sized thread pool.
func NewEngine() *Engine {
	return &Engine{pool: NewThreadPool(0)}
}

// EvalExpr evaluates a single expression with vars as globals and returns
// the result converted back to a Go value.
func (e *Engine) EvalExpr(ctx context.Context, expr string, vars map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	globals, err := globalsFrom(vars)
	if err != nil {
		return nil, &ExprError{Expr: expr, Message: err.Error()}
	}

	thread := e.pool.Get("expr")
	defer e.pool.Put(thread)

	result, err := starlark.Eval(thread, "<expr>", expr, globals) //nolint:staticcheck // SA1019: will migrate to EvalOptions later
	if err != nil {
		return nil, newExprError(expr, err)
	}

	return ToGo(result)
}

// EvalString evaluates an expression and renders the result as a plain string.
// None becomes the empty string; other values use their Starlark representation.
func (e *Engine) EvalString(ctx context.Context, expr string, vars map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	globals, err := globalsFrom(vars)
	if err != nil {
		return "", &ExprError{Expr: expr, Message: err.Error()}
	}

	thread := e.pool.Get("expr")
	defer e.pool.Put(thread)

	result, err := starlark.Eval(thread, "<expr>", expr, globals) //nolint:staticcheck // SA1019: will migrate to EvalOptions later
	if err != nil {
		return "", newExprError(expr, err)
	}

	switch v := result.(type) {
	case starlark.String:
		return string(v), nil
	case starlark.NoneType:
		return "", nil
	default:
		return result.String(), nil
	}
}

// globalsFrom converts template variables into a Starlark globals dict.
func globalsFrom(vars map[string]any) (starlark.StringDict, error) {
	globals := make(starlark.StringDict, len(vars))
	for name, value := range vars {
		sv, err := GoToStarlark(value)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		globals[name] = sv
	}
	return globals, nil
}

// ExprError represents a failure to parse or evaluate a template expression.
type ExprError struct {
	Expr    string
	Line    int
	Message string
}

func (e *ExprError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: error evaluating %q: %s", e.Line, e.Expr, e.Message)
	}
	return fmt.Sprintf("error evaluating %q: %s", e.Expr, e.Message)
}

// newExprError wraps an evaluation failure, pulling the bare message out of
// Starlark's error types so callers do not see backtrace noise.
func newExprError(expr string, err error) *ExprError {
	ee := &ExprError{Expr: expr, Message: err.Error()}

	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		ee.Message = evalErr.Msg
	}

	var synErr syntax.Error
	if errors.As(err, &synErr) {
		ee.Line = int(synErr.Pos.Line)
		ee.Message = synErr.Msg
	}

	return ee
}
