package reduce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlsift/sqlsift/internal/condition"
	"github.com/sqlsift/sqlsift/internal/template"
)

func TestProcess(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		ctx         condition.Context
		want        string
		wantKept    int
		wantRemoved int
	}{
		{
			name:     "condition true keeps if branch",
			input:    "SELECT * FROM t WHERE {% if active %}status='on'{% else %}status='off'{% endif %}",
			ctx:      condition.Context{"active": true},
			want:     "SELECT * FROM t WHERE status='on'",
			wantKept: 1,
		},
		{
			name:        "condition false keeps else branch",
			input:       "SELECT * FROM t WHERE {% if active %}status='on'{% else %}status='off'{% endif %}",
			ctx:         condition.Context{"active": false},
			want:        "SELECT * FROM t WHERE status='off'",
			wantRemoved: 1,
		},
		{
			name:        "condition false without else removes block",
			input:       "SELECT * FROM t{% if extra %} JOIN u ON u.id=t.id{% endif %}",
			ctx:         condition.Context{"extra": false},
			want:        "SELECT * FROM t",
			wantRemoved: 1,
		},
		{
			name:        "missing variable removes block",
			input:       "A{% if x %}X{% endif %}B",
			ctx:         condition.Context{},
			want:        "AB",
			wantRemoved: 1,
		},
		{
			name:        "missing variable beats graceful existence check",
			input:       "A{% if x is not None %}X{% endif %}B",
			ctx:         condition.Context{},
			want:        "AB",
			wantRemoved: 1,
		},
		{
			name:        "missing comparison left removes block",
			input:       "A{% if age >= 18 %}X{% endif %}B",
			ctx:         condition.Context{},
			want:        "AB",
			wantRemoved: 1,
		},
		{
			name:     "true condition strips elif and else",
			input:    "{% if a %}A{% elif b %}B{% else %}C{% endif %}",
			ctx:      condition.Context{"a": 1, "b": 1},
			want:     "A",
			wantKept: 1,
		},
		{
			name:        "false condition with elif keeps else only",
			input:       "{% if a %}A{% elif b %}B{% else %}C{% endif %}",
			ctx:         condition.Context{"a": 0, "b": 1},
			want:        "C",
			wantRemoved: 1,
		},
		{
			name:        "false condition with elif and no else removes all",
			input:       "{% if a %}A{% elif b %}B{% endif %}",
			ctx:         condition.Context{"a": 0, "b": 1},
			want:        "",
			wantRemoved: 1,
		},
		{
			name:        "sibling blocks resolved independently",
			input:       "{% if a %}A{% endif %}-{% if b %}B{% endif %}",
			ctx:         condition.Context{"a": true, "b": false},
			want:        "A-",
			wantKept:    1,
			wantRemoved: 1,
		},
		{
			name:     "nested blocks resolve on later passes",
			input:    "{% if outer %}O({% if inner %}I{% endif %}){% endif %}",
			ctx:      condition.Context{"outer": true, "inner": true},
			want:     "O(I)",
			wantKept: 2,
		},
		{
			name:        "nested block removed inside kept branch",
			input:       "{% if outer %}O({% if inner %}I{% endif %}){% endif %}",
			ctx:         condition.Context{"outer": true, "inner": false},
			want:        "O()",
			wantKept:    1,
			wantRemoved: 1,
		},
		{
			name:        "logical chain",
			input:       "{% if a and b %}X{% endif %}",
			ctx:         condition.Context{"a": true, "b": 0},
			want:        "",
			wantRemoved: 1,
		},
		{
			name:  "no directives is a no-op",
			input: "SELECT 1",
			ctx:   condition.Context{},
			want:  "SELECT 1",
		},
		{
			name:  "loop directives left untouched",
			input: "{% for x in xs %}{{ x }}{% endfor %}",
			ctx:   condition.Context{},
			want:  "{% for x in xs %}{{ x }}{% endfor %}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Process(tt.input, "test.sql", tt.ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Reduced)
			assert.Equal(t, tt.wantKept, res.Kept, "kept count")
			assert.Equal(t, tt.wantRemoved, res.Removed, "removed count")
			assert.Len(t, res.Decisions, tt.wantKept+tt.wantRemoved)
		})
	}
}

func TestProcess_Idempotent(t *testing.T) {
	input := "SELECT * FROM t WHERE 1=1{% if a %} AND a=1{% endif %}{% if b %} AND b=2{% endif %}"
	ctx := condition.Context{"a": true, "b": false}

	first, err := Process(input, "", ctx)
	require.NoError(t, err)

	second, err := Process(first.Reduced, "", ctx)
	require.NoError(t, err)

	assert.Equal(t, first.Reduced, second.Reduced)
	assert.Empty(t, second.Decisions, "reduced template should have nothing left to decide")
}

func TestProcess_DecisionOrder(t *testing.T) {
	// Blocks are processed from the end of the template toward the start, and
	// decisions are appended in processing order.
	input := "{% if first %}1{% endif %} {% if second %}2{% endif %}"
	ctx := condition.Context{"first": true, "second": true}

	res, err := Process(input, "", ctx)
	require.NoError(t, err)
	require.Len(t, res.Decisions, 2)
	assert.Equal(t, "second", res.Decisions[0].Condition)
	assert.Equal(t, "first", res.Decisions[1].Condition)
}

func TestProcess_DecisionReasons(t *testing.T) {
	res, err := Process("{% if ghost %}X{% endif %}", "", condition.Context{})
	require.NoError(t, err)
	require.Len(t, res.Decisions, 1)

	d := res.Decisions[0]
	assert.False(t, d.Keep)
	assert.Contains(t, d.Reason, "'ghost' is not defined")
}

func TestProcess_Unterminated(t *testing.T) {
	_, err := Process("{% if a %}X", "test.sql", condition.Context{"a": true})
	require.Error(t, err)

	ube, ok := err.(*template.UnterminatedBlockError)
	require.True(t, ok, "expected UnterminatedBlockError, got %T: %v", err, err)
	assert.Equal(t, template.DirectiveIf, ube.BlockKind)
}
