package template

import "fmt"

// Error is the base interface for all template errors.
type Error interface {
	error
	Position() Position
}

// baseError provides common error functionality.
type baseError struct {
	pos Position
	msg string
}

func (e *baseError) Position() Position { return e.pos }
func (e *baseError) Error() string {
	if e.pos.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.pos.File, e.pos.Line, e.pos.Column, e.msg)
	}
	return fmt.Sprintf("%d:%d: %s", e.pos.Line, e.pos.Column, e.msg)
}

// UnterminatedBlockError indicates a conditional block whose closing directive
// was never found.
type UnterminatedBlockError struct {
	baseError
	BlockKind DirectiveKind // The kind of block left open
}

// NewUnterminatedBlockError creates a new unterminated block error.
func NewUnterminatedBlockError(pos Position, kind DirectiveKind) *UnterminatedBlockError {
	var msg string
	switch kind {
	case DirectiveIf:
		msg = "unclosed 'if' block (missing 'endif')"
	case DirectiveFor:
		msg = "unclosed 'for' block (missing 'endfor')"
	case DirectiveEndif:
		msg = "'endif' without matching 'if'"
	case DirectiveElse:
		msg = "'else' without matching 'if'"
	case DirectiveElif:
		msg = "'elif' without matching 'if'"
	default:
		msg = fmt.Sprintf("unterminated block: %s", kind)
	}
	return &UnterminatedBlockError{
		baseError: baseError{pos: pos, msg: msg},
		BlockKind: kind,
	}
}
