package render

import (
	"errors"
	"strings"
	"testing"
)

func TestRender_Substitution(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		ctx      map[string]any
		expected string
	}{
		{
			name:     "plain text",
			input:    "SELECT * FROM users",
			ctx:      nil,
			expected: "SELECT * FROM users",
		},
		{
			name:     "number",
			input:    "SELECT * FROM users WHERE id = {{ user_id }}",
			ctx:      map[string]any{"user_id": 42},
			expected: "SELECT * FROM users WHERE id = 42",
		},
		{
			name:     "string is quoted",
			input:    "WHERE name = {{ name }}",
			ctx:      map[string]any{"name": "O'Brien"},
			expected: "WHERE name = 'O''Brien'",
		},
		{
			name:     "boolean",
			input:    "WHERE active = {{ active }}",
			ctx:      map[string]any{"active": true},
			expected: "WHERE active = TRUE",
		},
		{
			name:     "nil becomes NULL",
			input:    "WHERE deleted_at = {{ deleted_at }}",
			ctx:      map[string]any{"deleted_at": nil},
			expected: "WHERE deleted_at = NULL",
		},
		{
			name:     "flat dotted key",
			input:    "WHERE id = {{ user.id }}",
			ctx:      map[string]any{"user.id": 7},
			expected: "WHERE id = 7",
		},
		{
			name:     "nested map traversal",
			input:    "WHERE id = {{ user.id }}",
			ctx:      map[string]any{"user": map[string]any{"id": 7}},
			expected: "WHERE id = 7",
		},
		{
			name:     "list renders as IN-list elements",
			input:    "WHERE status IN ({{ statuses }})",
			ctx:      map[string]any{"statuses": []any{"new", "open"}},
			expected: "WHERE status IN ('new', 'open')",
		},
		{
			name:     "multiple expressions",
			input:    "{{ a }}, {{ b }}",
			ctx:      map[string]any{"a": 1, "b": 2},
			expected: "1, 2",
		},
		{
			name:     "numeric literal",
			input:    "LIMIT {{ 100 }}",
			ctx:      nil,
			expected: "LIMIT 100",
		},
		{
			name:     "quoted literal",
			input:    "WHERE kind = {{ 'draft' }}",
			ctx:      nil,
			expected: "WHERE kind = 'draft'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Render(tt.input, tt.ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestRender_Filters(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		ctx      map[string]any
		expected string
	}{
		{
			name:     "upper",
			input:    "{{ code | upper }}",
			ctx:      map[string]any{"code": "abc"},
			expected: "'ABC'",
		},
		{
			name:     "lower",
			input:    "{{ code | lower }}",
			ctx:      map[string]any{"code": "ABC"},
			expected: "'abc'",
		},
		{
			name:     "title",
			input:    "{{ name | title }}",
			ctx:      map[string]any{"name": "jane doe"},
			expected: "'Jane Doe'",
		},
		{
			name:     "trim",
			input:    "{{ name | trim }}",
			ctx:      map[string]any{"name": "  padded  "},
			expected: "'padded'",
		},
		{
			name:     "default fills missing variable",
			input:    "{{ missing | default('fallback') }}",
			ctx:      nil,
			expected: "'fallback'",
		},
		{
			name:     "default with numeric argument",
			input:    "{{ missing | default(10) }}",
			ctx:      nil,
			expected: "10",
		},
		{
			name:     "default does not override present value",
			input:    "{{ name | default('x') }}",
			ctx:      map[string]any{"name": "set"},
			expected: "'set'",
		},
		{
			name:     "join produces one string",
			input:    "{{ cols | join(', ') }}",
			ctx:      map[string]any{"cols": []any{"id", "name"}},
			expected: "'id, name'",
		},
		{
			name:     "round",
			input:    "{{ ratio | round(2) }}",
			ctx:      map[string]any{"ratio": 3.14159},
			expected: "3.14",
		},
		{
			name:     "int truncates",
			input:    "{{ n | int }}",
			ctx:      map[string]any{"n": "42.9"},
			expected: "42",
		},
		{
			name:     "float from string",
			input:    "{{ n | float }}",
			ctx:      map[string]any{"n": "2.5"},
			expected: "2.5",
		},
		{
			name:     "truncate",
			input:    "{{ name | truncate(4) }}",
			ctx:      map[string]any{"name": "demo_value"},
			expected: "'demo'",
		},
		{
			name:     "replace",
			input:    "{{ code | replace('-', '') }}",
			ctx:      map[string]any{"code": "a-b-c"},
			expected: "'abc'",
		},
		{
			name:     "length",
			input:    "{{ items | length }}",
			ctx:      map[string]any{"items": []any{1, 2, 3}},
			expected: "3",
		},
		{
			name:     "chained filters left to right",
			input:    "{{ name | trim | upper }}",
			ctx:      map[string]any{"name": " x "},
			expected: "'X'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Render(tt.input, tt.ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		ctx     map[string]any
		message string
	}{
		{
			name:    "undefined variable",
			input:   "{{ nope }}",
			ctx:     map[string]any{},
			message: "not defined",
		},
		{
			name:    "unknown filter",
			input:   "{{ name | sparkle }}",
			ctx:     map[string]any{"name": "x"},
			message: "unknown filter",
		},
		{
			name:    "round on non-numeric",
			input:   "{{ name | round(2) }}",
			ctx:     map[string]any{"name": "abc"},
			message: "not numeric",
		},
		{
			name:    "malformed filter call",
			input:   "{{ name | truncate(4 }}",
			ctx:     map[string]any{"name": "x"},
			message: "malformed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(tt.input, tt.ctx)
			if err == nil {
				t.Fatal("expected error")
			}

			var re *RenderError
			if !errors.As(err, &re) {
				t.Fatalf("expected *RenderError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.message)
			}
		})
	}
}

func TestFormatSQL(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{"nil", nil, "NULL"},
		{"string", "abc", "'abc'"},
		{"string with quote", "it's", "'it''s'"},
		{"bool true", true, "TRUE"},
		{"bool false", false, "FALSE"},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"float", 2.5, "2.5"},
		{"float without exponent", 10000000.0, "10000000"},
		{"string slice", []string{"a", "b"}, "'a', 'b'"},
		{"mixed slice", []any{1, "x"}, "1, 'x'"},
		{"map as json string", map[string]any{"k": "v"}, `'{"k":"v"}'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatSQL(tt.value); got != tt.expected {
				t.Errorf("FormatSQL(%v) = %q, want %q", tt.value, got, tt.expected)
			}
		})
	}
}

func TestCleanupSQL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "collapses blank runs",
			input:    "SELECT 1\n\n\n\nFROM t",
			expected: "SELECT 1\n\nFROM t",
		},
		{
			name:     "trims leading and trailing blanks",
			input:    "\n\nSELECT 1\n\n",
			expected: "SELECT 1",
		},
		{
			name:     "drops full-line comments",
			input:    "SELECT 1\n{# hidden #}\nFROM t",
			expected: "SELECT 1\nFROM t",
		},
		{
			name:     "keeps indentation",
			input:    "SELECT\n    id\nFROM t",
			expected: "SELECT\n    id\nFROM t",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanupSQL(tt.input); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
