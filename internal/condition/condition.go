// Package condition parses and evaluates the condition language used inside
// {% if %} directives: existence checks, comparisons, membership tests, and
// and/or chains over Python-style truthiness. The parser never fails; any
// string it cannot classify becomes a bare variable truthiness check.
package condition

import (
	"fmt"
	"strings"
)

// Context is the flat variable mapping conditions are evaluated against.
// Dotted names are plain keys here, not nested lookups.
type Context map[string]any

// Parsed is the closed set of condition tree nodes. Exactly five
// implementations exist: Existence, Comparison, Membership, Logical, and
// VariableRef. Trees are immutable once built.
type Parsed interface {
	fmt.Stringer
	cond() // marker method to close the set
}

// Existence is an `x is not None` / `x is None` check. Exists is true for the
// negated-None form, which asserts presence.
type Existence struct {
	Variable string
	Exists   bool
}

func (e *Existence) cond() {}
func (e *Existence) String() string {
	if e.Exists {
		return e.Variable + " is not None"
	}
	return e.Variable + " is None"
}

// Comparison is a binary `left op right` check. Both sides are kept as raw
// operand strings; resolution against the context happens at evaluation time.
type Comparison struct {
	Left  string
	Op    string // one of == != > < >= <=
	Right string
}

func (c *Comparison) cond() {}
func (c *Comparison) String() string {
	return fmt.Sprintf("%s %s %s", c.Left, c.Op, c.Right)
}

// Membership is an `x in y` / `x not in y` check.
type Membership struct {
	Needle  string
	Negated bool
	Target  string
}

func (m *Membership) cond() {}
func (m *Membership) String() string {
	if m.Negated {
		return fmt.Sprintf("%s not in %s", m.Needle, m.Target)
	}
	return fmt.Sprintf("%s in %s", m.Needle, m.Target)
}

// Logical is a flat and/or chain evaluated strictly left to right. There is
// no precedence between the two operators and no parenthetical grouping.
// Invariant: len(Operators) == len(Operands)-1.
type Logical struct {
	Operands  []Parsed
	Operators []string // each "and" or "or"
}

func (l *Logical) cond() {}
func (l *Logical) String() string {
	var sb strings.Builder
	for i, op := range l.Operands {
		if i > 0 {
			sb.WriteString(" " + l.Operators[i-1] + " ")
		}
		sb.WriteString(op.String())
	}
	return sb.String()
}

// VariableRef is a bare variable truthiness check, the fallback for anything
// the other recognizers do not claim.
type VariableRef struct {
	Name string
}

func (v *VariableRef) cond()          {}
func (v *VariableRef) String() string { return v.Name }

// GuardVariable returns the variable name whose absence from the context
// forces removal of the guarded block: the referenced name for bare and
// existence checks, and the left-side variable of a comparison. Membership
// and logical chains carry no guard.
func GuardVariable(p Parsed) (string, bool) {
	switch c := p.(type) {
	case *VariableRef:
		return c.Name, c.Name != ""
	case *Existence:
		return c.Variable, c.Variable != ""
	case *Comparison:
		if name, ok := operandVariable(c.Left); ok {
			return name, true
		}
	}
	return "", false
}
