// Package extract discovers template variables and synthesizes demo values.
//
// Extraction runs in three tiers, first success wins: a structural walk of
// each expression's syntax tree, a pattern scan enriched by engine
// validation, and a bare pattern scan. Later tiers trade precision for
// resilience against expressions the structural parser cannot handle.
package extract

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/sqlsift/sqlsift/internal/template"

	starctx "github.com/sqlsift/sqlsift/internal/starlark"
)

// Type is the inferred value category of a variable.
type Type string

const (
	TypeString   Type = "string"
	TypeNumber   Type = "number"
	TypeBoolean  Type = "boolean"
	TypeDate     Type = "date"
	TypeDatetime Type = "datetime"
	TypeJSON     Type = "json"
	TypeUUID     Type = "uuid"
	TypeEmail    Type = "email"
	TypeURL      Type = "url"
)

// Method identifies which extraction tier produced a variable.
type Method string

const (
	MethodStructural       Method = "structural"
	MethodValidatedPattern Method = "validated-pattern"
	MethodPattern          Method = "pattern"
)

// Variable describes one template variable.
// Names may be dotted property paths (e.g. "user.id"); a dotted reference
// yields a single combined descriptor, never one per path segment.
type Variable struct {
	Name            string   `json:"name"`
	Type            Type     `json:"type"`
	Default         any      `json:"default"`
	Required        bool     `json:"required"`
	Filters         []string `json:"filters,omitempty"`
	Method          Method   `json:"extraction_method"`
	Valid           bool     `json:"valid"`
	ValidationError string   `json:"validation_error,omitempty"`
}

// Extractor discovers variables in template text.
type Extractor struct {
	engine *starctx.Engine
	logger *slog.Logger
}

// New creates an extractor. A nil engine disables the structural and
// validated tiers; a nil logger discards log output.
func New(engine *starctx.Engine, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Extractor{engine: engine, logger: logger}
}

// Extract returns the ordered, deduplicated variables referenced by the
// template. It never fails: tiers that cannot handle the input fall
// through to the next one.
func (x *Extractor) Extract(ctx context.Context, input string) []Variable {
	bodies, loopVars := collectBodies(input)

	if x.engine == nil {
		return x.pattern(bodies, loopVars)
	}

	if vars, ok := x.structural(bodies, loopVars); ok {
		return vars
	}
	x.logger.Debug("structural extraction fell through, using validated pattern scan")

	return x.validated(ctx, bodies, loopVars)
}

// body is one expression string pulled out of the template, either the
// contents of an output expression or an if/elif condition.
type body struct {
	text string
	cond bool
}

// collectBodies gathers every expression body in the template, plus the
// names bound by for loops (excluded from results: they are loop-local,
// not inputs).
func collectBodies(input string) ([]body, map[string]bool) {
	sc := template.NewScanner(input, "")

	var bodies []body
	for _, e := range sc.Expressions() {
		bodies = append(bodies, body{text: e.Body})
	}

	loopVars := make(map[string]bool)
	for _, d := range sc.Directives() {
		switch d.Kind {
		case template.DirectiveIf, template.DirectiveElif:
			bodies = append(bodies, body{text: d.Expr, cond: true})
		case template.DirectiveFor:
			names, iterable := splitFor(d.Expr)
			for _, n := range names {
				loopVars[n] = true
			}
			if iterable != "" {
				bodies = append(bodies, body{text: iterable})
			}
		}
	}

	return bodies, loopVars
}

// splitFor breaks "item in items" into the bound names and the iterable
// expression. Multiple bound names ("k, v in pairs") are supported.
func splitFor(expr string) ([]string, string) {
	idx := strings.Index(expr, " in ")
	if idx < 0 {
		return nil, ""
	}

	var names []string
	for _, part := range strings.Split(expr[:idx], ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names, strings.TrimSpace(expr[idx+len(" in "):])
}

// keywords are expression words that look like identifiers but never name
// a variable.
var keywords = map[string]bool{
	"and":   true,
	"or":    true,
	"not":   true,
	"in":    true,
	"is":    true,
	"none":  true,
	"null":  true,
	"true":  true,
	"false": true,
}

func isKeyword(name string) bool {
	return keywords[strings.ToLower(name)]
}

// accumulator collects variables in first-seen order, merging filters from
// repeated references.
type accumulator struct {
	method Method
	order  []string
	byName map[string]*Variable
}

func newAccumulator(method Method) *accumulator {
	return &accumulator{method: method, byName: make(map[string]*Variable)}
}

func (a *accumulator) add(name string) *Variable {
	if v, ok := a.byName[name]; ok {
		return v
	}

	t := InferType(name)
	v := &Variable{
		Name:     name,
		Type:     t,
		Default:  DefaultFor(t, name),
		Required: InferRequired(name),
		Method:   a.method,
		Valid:    true,
	}
	a.byName[name] = v
	a.order = append(a.order, name)
	return v
}

func (a *accumulator) addFilter(name, filter string) {
	v, ok := a.byName[name]
	if !ok {
		return
	}
	for _, f := range v.Filters {
		if f == filter {
			return
		}
	}
	v.Filters = append(v.Filters, filter)
}

// variables returns the accumulated descriptors, dropping loop-local names
// (including dotted references whose base is loop-local).
func (a *accumulator) variables(loopVars map[string]bool) []Variable {
	vars := make([]Variable, 0, len(a.order))
	for _, name := range a.order {
		base, _, _ := strings.Cut(name, ".")
		if loopVars[base] {
			continue
		}
		vars = append(vars, *a.byName[name])
	}
	return vars
}

// DemoContext builds a context mapping every variable to its default demo
// value. Dotted names become flat dotted keys, matching the context
// contract used by reduction and rendering.
func DemoContext(vars []Variable) map[string]any {
	ctx := make(map[string]any, len(vars))
	for _, v := range vars {
		ctx[v.Name] = v.Default
	}
	return ctx
}
