package condition

import (
	"regexp"
	"strings"
)

var (
	logicalRe    = regexp.MustCompile(`\s+(and|or)\s+`)
	membershipRe = regexp.MustCompile(`^(.+?)\s+(not\s+)?in\s+(.+)$`)
)

// Parse classifies a raw condition string into its tree form. Recognizers are
// tried in order: existence check, and/or chain, comparison, membership, bare
// variable. The and/or split precedes comparison and membership so that each
// operand of a chain is classified on its own; the split itself is a plain
// regex with no quote awareness or grouping, so operators are combined
// strictly left to right. Parse never fails: anything unclassified becomes a
// VariableRef of the whole trimmed string.
func Parse(raw string) Parsed {
	s := strings.TrimSpace(raw)

	if e, ok := parseExistence(s); ok {
		return e
	}
	if l, ok := splitLogical(s); ok {
		return l
	}
	if c, ok := parseComparison(s); ok {
		return c
	}
	if m, ok := parseMembership(s); ok {
		return m
	}
	return &VariableRef{Name: s}
}

// parseExistence matches `<var> is [not] None|null`. The variable part must
// be a single token; compound strings fall through so the chain split can
// claim them.
func parseExistence(s string) (*Existence, bool) {
	lower := strings.ToLower(s)

	for _, suffix := range []string{" is not none", " is not null"} {
		if strings.HasSuffix(lower, suffix) {
			name := strings.TrimSpace(s[:len(s)-len(suffix)])
			if name != "" && !strings.ContainsAny(name, " \t") {
				return &Existence{Variable: name, Exists: true}, true
			}
		}
	}
	for _, suffix := range []string{" is none", " is null"} {
		if strings.HasSuffix(lower, suffix) {
			name := strings.TrimSpace(s[:len(s)-len(suffix)])
			if name != "" && !strings.ContainsAny(name, " \t") {
				return &Existence{Variable: name, Exists: false}, true
			}
		}
	}
	return nil, false
}

// splitLogical splits a top-level and/or chain into recursively parsed
// operands with operators in encountered order.
func splitLogical(s string) (*Logical, bool) {
	locs := logicalRe.FindAllStringSubmatchIndex(s, -1)
	if len(locs) == 0 {
		return nil, false
	}

	l := &Logical{}
	prev := 0
	for _, m := range locs {
		l.Operands = append(l.Operands, Parse(s[prev:m[0]]))
		l.Operators = append(l.Operators, s[m[2]:m[3]])
		prev = m[1]
	}
	l.Operands = append(l.Operands, Parse(s[prev:]))
	return l, true
}

// parseComparison splits on the first comparison operator found outside
// quotes. Two-character operators are matched before their one-character
// prefixes.
func parseComparison(s string) (*Comparison, bool) {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		if c == '\'' || c == '"' {
			quote = c
			continue
		}

		if i+1 < len(s) {
			op := s[i : i+2]
			switch op {
			case "==", "!=", ">=", "<=":
				left := strings.TrimSpace(s[:i])
				right := strings.TrimSpace(s[i+2:])
				return &Comparison{Left: left, Op: op, Right: right}, true
			}
		}
		if c == '>' || c == '<' {
			left := strings.TrimSpace(s[:i])
			right := strings.TrimSpace(s[i+1:])
			return &Comparison{Left: left, Op: string(c), Right: right}, true
		}
	}
	return nil, false
}

// parseMembership matches `<needle> [not] in <target>` with a lazy needle, so
// the first `in` token wins.
func parseMembership(s string) (*Membership, bool) {
	m := membershipRe.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	return &Membership{
		Needle:  strings.TrimSpace(m[1]),
		Negated: m[2] != "",
		Target:  strings.TrimSpace(m[3]),
	}, true
}
