package template

import (
	"strings"
	"unicode/utf8"
)

// Scanner finds template markup in an input string. Each call to Directives
// or Expressions performs a full pass over the input; the scanner itself never
// fails. Malformed markup (an unclosed marker, a directive broken across
// lines) is left in place as literal text.
type Scanner struct {
	input string
	file  string
	pos   int // current byte offset
	line  int // current line number (1-based)
	col   int // current column number (1-based)
}

// NewScanner creates a new scanner for the given input.
func NewScanner(input, file string) *Scanner {
	return &Scanner{input: input, file: file, pos: 0, line: 1, col: 1}
}

// Directives returns every {% ... %} directive in source order.
func (s *Scanner) Directives() []Directive {
	s.reset()
	var out []Directive

	for s.pos < len(s.input) {
		if s.matchString("{%") {
			if d, ok := s.scanDirective(); ok {
				out = append(out, d)
				continue
			}
		}
		s.advance()
	}
	return out
}

// Expressions returns every {{ ... }} expression in source order with its
// trimmed body.
func (s *Scanner) Expressions() []Expression {
	s.reset()
	var out []Expression

	for s.pos < len(s.input) {
		if s.matchString("{{") {
			if e, ok := s.scanExpression(); ok {
				out = append(out, e)
				continue
			}
		}
		s.advance()
	}
	return out
}

// scanDirective consumes a {% ... %} marker starting at the current position.
// Directives must close on the same physical line; on failure the position is
// restored and the marker is treated as text by the caller.
func (s *Scanner) scanDirective() (Directive, bool) {
	start, startLine, startCol := s.pos, s.line, s.col

	// Skip {%
	s.pos += 2
	s.col += 2

	bodyStart := s.pos
	for s.pos < len(s.input) {
		r := s.peek()
		if r == '\n' {
			break
		}
		if r == '\'' || r == '"' {
			if !s.skipQuoted(r) {
				break
			}
			continue
		}
		if s.matchString("%}") {
			body := strings.TrimSpace(s.input[bodyStart:s.pos])
			s.pos += 2
			s.col += 2

			kind, expr := classifyDirective(body)
			return Directive{
				Kind:  kind,
				Expr:  expr,
				Start: start,
				End:   s.pos,
				Pos:   Position{File: s.file, Line: startLine, Column: startCol},
			}, true
		}
		s.advance()
	}

	s.pos, s.line, s.col = start, startLine, startCol
	return Directive{}, false
}

// scanExpression consumes a {{ ... }} marker starting at the current
// position. Nested braces are tracked so dict or set literals inside the
// expression do not end it early. Expressions may span lines.
func (s *Scanner) scanExpression() (Expression, bool) {
	start, startLine, startCol := s.pos, s.line, s.col

	// Skip {{
	s.pos += 2
	s.col += 2

	bodyStart := s.pos
	depth := 0
	for s.pos < len(s.input) {
		if s.matchString("}}") && depth == 0 {
			body := strings.TrimSpace(s.input[bodyStart:s.pos])
			s.pos += 2
			s.col += 2

			return Expression{
				Body:  body,
				Start: start,
				End:   s.pos,
				Pos:   Position{File: s.file, Line: startLine, Column: startCol},
			}, true
		}

		r := s.peek()
		if r == '{' {
			depth++
		} else if r == '}' && depth > 0 {
			depth--
		}
		s.advance()
	}

	s.pos, s.line, s.col = start, startLine, startCol
	return Expression{}, false
}

// skipQuoted advances past a quoted string literal opened by quote. Returns
// false if the literal runs to end of line unclosed.
func (s *Scanner) skipQuoted(quote rune) bool {
	s.advance() // opening quote
	for s.pos < len(s.input) {
		r := s.peek()
		if r == '\n' {
			return false
		}
		if r == '\\' {
			s.advance()
			s.advance()
			continue
		}
		if r == quote {
			s.advance()
			return true
		}
		s.advance()
	}
	return false
}

// SplitPipes splits an expression body on | characters outside quotes,
// separating a base value from its filter chain.
func SplitPipes(text string) []string {
	var segments []string
	var quote byte
	start := 0

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '|':
			segments = append(segments, text[start:i])
			start = i + 1
		}
	}

	return append(segments, text[start:])
}

// classifyDirective splits a directive body into its keyword and trailing
// expression.
func classifyDirective(body string) (DirectiveKind, string) {
	kw, rest := body, ""
	if i := strings.IndexAny(body, " \t"); i >= 0 {
		kw, rest = body[:i], strings.TrimSpace(body[i:])
	}

	switch kw {
	case "if":
		return DirectiveIf, rest
	case "elif":
		return DirectiveElif, rest
	case "else":
		return DirectiveElse, ""
	case "endif":
		return DirectiveEndif, ""
	case "for":
		return DirectiveFor, rest
	case "endfor":
		return DirectiveEndfor, ""
	default:
		return DirectiveUnknown, body
	}
}

// peek returns the current rune without advancing.
func (s *Scanner) peek() rune {
	if s.pos >= len(s.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s.input[s.pos:])
	return r
}

// advance moves to the next rune, updating position tracking.
func (s *Scanner) advance() {
	if s.pos >= len(s.input) {
		return
	}

	r, size := utf8.DecodeRuneInString(s.input[s.pos:])
	s.pos += size

	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
}

// matchString checks if the input at the current position starts with sub.
func (s *Scanner) matchString(sub string) bool {
	return strings.HasPrefix(s.input[s.pos:], sub)
}

func (s *Scanner) reset() {
	s.pos = 0
	s.line = 1
	s.col = 1
}
