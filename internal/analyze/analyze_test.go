package analyze

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzer_Analyze(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		vars      map[string]any
		checkFunc func(t *testing.T, r Report)
	}{
		{
			name:  "conditional kept with explicit vars",
			input: `SELECT * FROM t WHERE {% if active %}status='on'{% else %}status='off'{% endif %}`,
			vars:  map[string]any{"active": true},
			checkFunc: func(t *testing.T, r Report) {
				require.True(t, r.Success)
				assert.Equal(t, `SELECT * FROM t WHERE status='on'`, r.Reduced)
				assert.Equal(t, 1, r.Kept)
				assert.Equal(t, 0, r.Removed)
				assert.True(t, r.HasConditionals)
				assert.False(t, r.HasLoops)
			},
		},
		{
			name:  "conditional removed with explicit vars",
			input: `SELECT * FROM t WHERE {% if active %}status='on'{% else %}status='off'{% endif %}`,
			vars:  map[string]any{"active": false},
			checkFunc: func(t *testing.T, r Report) {
				require.True(t, r.Success)
				assert.Equal(t, `SELECT * FROM t WHERE status='off'`, r.Reduced)
			},
		},
		{
			name:  "nil vars synthesize demo context",
			input: `SELECT * FROM users{% if is_admin %} WHERE role = 'admin'{% endif %}`,
			vars:  nil,
			checkFunc: func(t *testing.T, r Report) {
				require.True(t, r.Success)
				// is_admin defaults true, so the branch is kept.
				assert.Equal(t, `SELECT * FROM users WHERE role = 'admin'`, r.Reduced)
				require.Len(t, r.Variables, 1)
				assert.Equal(t, "is_admin", r.Variables[0].Name)
			},
		},
		{
			name:  "demo sql substitutes variables",
			input: `SELECT * FROM t WHERE id = {{ user_id }}{% if active %} AND active = 1{% endif %}`,
			vars:  nil,
			checkFunc: func(t *testing.T, r Report) {
				require.True(t, r.Success)
				assert.Equal(t, `SELECT * FROM t WHERE id = 42 AND active = 1`, r.DemoSQL)
			},
		},
		{
			name:  "decision log populated",
			input: `{% if missing_one %}A{% endif %}`,
			vars:  map[string]any{},
			checkFunc: func(t *testing.T, r Report) {
				require.True(t, r.Success)
				require.Len(t, r.Decisions, 1)
				assert.False(t, r.Decisions[0].Keep)
				assert.Equal(t, 1, r.Removed)
			},
		},
		{
			name:  "loops surfaced but untouched",
			input: `SELECT 1{% for x in xs %} + {{ x }}{% endfor %}`,
			vars:  map[string]any{},
			checkFunc: func(t *testing.T, r Report) {
				require.True(t, r.Success)
				assert.True(t, r.HasLoops)
				assert.Contains(t, r.Reduced, "{% for x in xs %}")
			},
		},
		{
			name:  "unterminated block reports error",
			input: `{% if a %}SELECT 1`,
			vars:  map[string]any{"a": true},
			checkFunc: func(t *testing.T, r Report) {
				assert.False(t, r.Success)
				assert.Contains(t, r.Error, "endif")
				// Extraction still ran.
				require.Len(t, r.Variables, 1)
				assert.Equal(t, "a", r.Variables[0].Name)
			},
		},
	}

	a := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.checkFunc(t, a.Analyze(context.Background(), tt.input, tt.vars))
		})
	}
}

func TestAnalyzer_RenderOnly(t *testing.T) {
	a := New(nil)

	t.Run("success", func(t *testing.T) {
		res := a.RenderOnly(context.Background(),
			`SELECT * FROM t WHERE id = {{ id }}{% if active %} AND on = 1{% endif %}`,
			map[string]any{"id": 7, "active": false})

		require.True(t, res.Success, "error: %s", res.Error)
		assert.Equal(t, `SELECT * FROM t WHERE id = 7`, res.SQL)
	})

	t.Run("undefined variable is an error", func(t *testing.T) {
		res := a.RenderOnly(context.Background(), `SELECT {{ nope }}`, map[string]any{})

		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "not defined")
	})
}

func TestAnalyzer_AnalyzeFiles(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.sql")
	require.NoError(t, os.WriteFile(good, []byte(`SELECT {{ n }}`), 0o644))

	missing := filepath.Join(dir, "missing.sql")

	a := New(nil)
	reports, err := a.AnalyzeFiles(context.Background(), []string{good, missing}, map[string]any{"n": 1})
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, good, reports[0].Path)
	assert.True(t, reports[0].Success)
	assert.Equal(t, "SELECT 1", reports[0].DemoSQL)

	assert.Equal(t, missing, reports[1].Path)
	assert.False(t, reports[1].Success)
	assert.NotEmpty(t, reports[1].Error)
}
