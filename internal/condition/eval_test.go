package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		condition string
		ctx       Context
		want      bool
	}{
		{"truthy variable", "active", Context{"active": true}, true},
		{"falsy variable", "active", Context{"active": false}, false},
		{"missing variable", "active", Context{}, false},
		{"falsy string variable", "flag", Context{"flag": "no"}, false},
		{"dotted key lookup", "user.active", Context{"user.active": 1}, true},

		{"exists with value", "email is not None", Context{"email": "a@b.c"}, true},
		{"exists with nil", "email is not None", Context{"email": nil}, false},
		{"exists missing", "email is not None", Context{}, false},
		{"not exists with nil", "deleted_at is None", Context{"deleted_at": nil}, true},
		{"not exists with value", "deleted_at is None", Context{"deleted_at": "2024-01-01"}, false},

		{"numeric gte true", "age >= 18", Context{"age": 21}, true},
		{"numeric gte false", "age >= 18", Context{"age": 17}, false},
		{"numeric from string", "age > 18", Context{"age": "19"}, true},
		{"loose equality number string", "count == '3'", Context{"count": 3}, true},
		{"string equality", "status == 'active'", Context{"status": "active"}, true},
		{"string inequality", "status != 'active'", Context{"status": "archived"}, true},
		{"ordering non-numeric", "name > 'abc'", Context{"name": "zzz"}, false},
		{"missing comparison side", "age >= 18", Context{}, false},

		{"substring membership", "'adm' in role", Context{"role": "admin"}, true},
		{"list membership", "status in allowed", Context{"status": "on", "allowed": []any{"on", "off"}}, true},
		{"list membership miss", "status in allowed", Context{"status": "idle", "allowed": []any{"on", "off"}}, false},
		{"negated membership", "status not in banned", Context{"status": "ok", "banned": []any{"bad"}}, true},
		{"literal list target", "status in [1, 2, 3]", Context{"status": 2}, true},
		{"unclassifiable target", "x in n", Context{"x": 1, "n": 42}, false},
		{"unclassifiable target negated", "x not in n", Context{"x": 1, "n": 42}, false},

		{"and with falsy operand", "a and b", Context{"a": true, "b": 0}, false},
		{"or with falsy operand", "a or b", Context{"a": true, "b": 0}, true},
		{"chain left to right", "a or b and c", Context{"a": true, "b": false, "c": false}, false},
		{"compound operands", "user.active and age >= 18", Context{"user.active": true, "age": 21}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := Evaluate(Parse(tt.condition), tt.ctx)
			assert.Equal(t, tt.want, got, "condition %q, reason: %s", tt.condition, reason)
			assert.NotEmpty(t, reason)
		})
	}
}

func TestEvaluate_Justifications(t *testing.T) {
	tests := []struct {
		name      string
		condition string
		ctx       Context
		contains  string
	}{
		{"missing variable named", "ghost", Context{}, "'ghost' is not defined"},
		{"existence reason", "email is not None", Context{"email": "x"}, "defined and not null"},
		{"comparison values shown", "age >= 18", Context{"age": 21}, "'age' (21) >= 18 is true"},
		{"membership failure explained", "x in n", Context{"n": 42}, "neither a list nor a string"},
		{"chain joins operand reasons", "a and b", Context{"a": 1, "b": 0}, "and"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, reason := Evaluate(Parse(tt.condition), tt.ctx)
			assert.Contains(t, reason, tt.contains)
		})
	}
}

func TestEvaluate_NoShortCircuitResultParity(t *testing.T) {
	// Every operand is evaluated for the audit trail; the result must still
	// match what short-circuit evaluation would produce.
	ctx := Context{"t": true, "f": false}
	cases := map[string]bool{
		"f and t":       false,
		"f and t or t":  true, // ((f and t) or t)
		"t or f and f":  false,
		"t and t and f": false,
		"f or f or t":   true,
	}
	for cond, want := range cases {
		got, reason := Evaluate(Parse(cond), ctx)
		require.Equal(t, want, got, "condition %q, reason: %s", cond, reason)
	}
}
