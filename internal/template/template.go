// Package template scans Jinja-style templated SQL for {{ expr }} expressions
// and {% if/elif/else/endif %} conditional blocks. The scanner balances
// arbitrarily nested blocks without a full grammar; directives must not span
// physical lines.
package template

// Position tracks source location for error reporting.
type Position struct {
	File   string
	Line   int
	Column int
}

// DirectiveKind identifies the type of a {% ... %} directive.
type DirectiveKind int

// DirectiveKind constants for control flow directives.
const (
	DirectiveUnknown DirectiveKind = iota // Unrecognized keyword
	DirectiveIf                           // {% if cond %}
	DirectiveElif                         // {% elif cond %}
	DirectiveElse                         // {% else %}
	DirectiveEndif                        // {% endif %}
	DirectiveFor                          // {% for x in items %}
	DirectiveEndfor                       // {% endfor %}
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveIf:
		return "if"
	case DirectiveElif:
		return "elif"
	case DirectiveElse:
		return "else"
	case DirectiveEndif:
		return "endif"
	case DirectiveFor:
		return "for"
	case DirectiveEndfor:
		return "endfor"
	default:
		return "unknown"
	}
}

// Directive is a single {% ... %} marker. Start and End are byte offsets into
// the scanned input; End points one past the closing delimiter.
type Directive struct {
	Kind  DirectiveKind
	Expr  string // condition (if/elif) or loop expression (for); empty otherwise
	Start int
	End   int
	Pos   Position
}

// Expression is a single {{ ... }} marker with its trimmed body.
type Expression struct {
	Body  string
	Start int
	End   int
	Pos   Position
}

// Branch is one elif arm of a conditional block.
type Branch struct {
	Condition string
	Content   string
}

// Block is an outermost {% if %} ... {% endif %} region. Nested blocks are not
// surfaced separately; their text stays verbatim inside the enclosing branch
// contents. Span holds the byte offsets of the whole region including both
// markers (start inclusive, end exclusive). Blocks are immutable after the
// scan; spans become invalid once the underlying template text changes.
type Block struct {
	Condition   string
	Content     string // if-branch body
	ElseIfs     []Branch
	ElseContent string
	HasElif     bool
	HasElse     bool
	Span        [2]int
	Pos         Position
}
