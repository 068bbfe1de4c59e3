package condition

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Evaluate computes the truth of p against ctx. The second return value is a
// human-readable justification used for the decision log. Logical chains
// evaluate every operand so the justification covers the whole chain; the
// boolean result still matches left-to-right short-circuit semantics.
func Evaluate(p Parsed, ctx Context) (bool, string) {
	switch c := p.(type) {
	case *VariableRef:
		v, ok := ctx[c.Name]
		if !ok {
			return false, fmt.Sprintf("'%s' is not defined", c.Name)
		}
		t, why := truthy(v)
		return t, fmt.Sprintf("'%s' is %s (%s)", c.Name, verdict(t), why)

	case *Existence:
		v, ok := ctx[c.Variable]
		present := ok && v != nil
		res := present == c.Exists
		if present {
			return res, fmt.Sprintf("'%s' is defined and not null", c.Variable)
		}
		return res, fmt.Sprintf("'%s' is null or not defined", c.Variable)

	case *Comparison:
		return evalComparison(c, ctx)

	case *Membership:
		return evalMembership(c, ctx)

	case *Logical:
		return evalLogical(c, ctx)
	}
	return false, "unrecognized condition"
}

func evalComparison(c *Comparison, ctx Context) (bool, string) {
	left := resolveOperand(c.Left, ctx)
	right := resolveOperand(c.Right, ctx)

	switch c.Op {
	case "==", "!=":
		eq := looseEqual(left.value, right.value)
		res := eq == (c.Op == "==")
		return res, fmt.Sprintf("%s %s %s is %t", left.describe(), c.Op, right.describe(), res)
	default:
		lf, lok := numify(left.value)
		rf, rok := numify(right.value)
		if !lok || !rok {
			return false, fmt.Sprintf("cannot compare %s %s %s numerically", left.describe(), c.Op, right.describe())
		}

		var res bool
		switch c.Op {
		case ">":
			res = lf > rf
		case "<":
			res = lf < rf
		case ">=":
			res = lf >= rf
		case "<=":
			res = lf <= rf
		}
		return res, fmt.Sprintf("%s %s %s is %t", left.describe(), c.Op, right.describe(), res)
	}
}

func evalMembership(m *Membership, ctx Context) (bool, string) {
	needle := resolveOperand(m.Needle, ctx)
	target := resolveOperand(m.Target, ctx)

	found, classified := contains(target.value, needle.value)
	if !classified {
		// Neither list-like nor string-like: always false, negated or not.
		return false, fmt.Sprintf("%s is neither a list nor a string", target.describe())
	}

	res := found != m.Negated
	op := "in"
	if m.Negated {
		op = "not in"
	}
	return res, fmt.Sprintf("%s %s %s is %t", needle.describe(), op, target.describe(), res)
}

// contains reports element containment for lists and substring containment
// for strings. The second return value is false when the target is neither.
func contains(target, needle any) (found, classified bool) {
	switch tv := target.(type) {
	case string:
		return strings.Contains(tv, strval(needle)), true
	case []any:
		for _, el := range tv {
			if looseEqual(needle, el) {
				return true, true
			}
		}
		return false, true
	}

	if target != nil {
		rv := reflect.ValueOf(target)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			for i := 0; i < rv.Len(); i++ {
				if looseEqual(needle, rv.Index(i).Interface()) {
					return true, true
				}
			}
			return false, true
		}
	}
	return false, false
}

func evalLogical(l *Logical, ctx Context) (bool, string) {
	result, first := Evaluate(l.Operands[0], ctx)
	parts := []string{first}

	for i, op := range l.Operators {
		r, why := Evaluate(l.Operands[i+1], ctx)
		parts = append(parts, op+" "+why)
		if op == "and" {
			result = result && r
		} else {
			result = result || r
		}
	}
	return result, strings.Join(parts, ", ")
}

// operand is a resolved comparison or membership side.
type operand struct {
	raw     string
	value   any
	isVar   bool
	defined bool // variable found in context; always true for literals
}

func (o operand) describe() string {
	if o.isVar {
		if !o.defined {
			return fmt.Sprintf("'%s' (undefined)", o.raw)
		}
		return fmt.Sprintf("'%s' (%s)", o.raw, displayValue(o.value))
	}
	return displayValue(o.value)
}

// resolveOperand interprets an operand string as a literal when possible and
// as a context lookup otherwise. JSON-style list literals are accepted as
// membership targets.
func resolveOperand(raw string, ctx Context) operand {
	s := strings.TrimSpace(raw)

	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return operand{raw: s, value: s[1 : len(s)-1], defined: true}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return operand{raw: s, value: f, defined: true}
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		var list []any
		if err := json.Unmarshal([]byte(s), &list); err == nil {
			return operand{raw: s, value: list, defined: true}
		}
	}
	switch strings.ToLower(s) {
	case "true":
		return operand{raw: s, value: true, defined: true}
	case "false":
		return operand{raw: s, value: false, defined: true}
	case "none", "null":
		return operand{raw: s, value: nil, defined: true}
	}

	v, ok := ctx[s]
	return operand{raw: s, value: v, isVar: true, defined: ok}
}

// operandVariable reports the variable name an operand string refers to, or
// false when it is a literal.
func operandVariable(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if s[0] == '\'' || s[0] == '"' || s[0] == '[' {
		return "", false
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return "", false
	}
	switch strings.ToLower(s) {
	case "true", "false", "none", "null":
		return "", false
	}
	return s, true
}

// looseEqual compares two values numerically when both coerce to numbers and
// by canonical string form otherwise.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	af, aok := numify(a)
	bf, bok := numify(b)
	if aok && bok {
		return af == bf
	}
	return strval(a) == strval(b)
}

func numify(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func strval(v any) string {
	switch x := v.(type) {
	case nil:
		return "none"
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func displayValue(v any) string {
	if v == nil {
		return "null"
	}
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprintf("%v", v)
}

func verdict(b bool) string {
	if b {
		return "truthy"
	}
	return "falsy"
}
