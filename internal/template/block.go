package template

// ScanBlocks returns the outermost conditional blocks of input in source
// order. Nesting is balanced with a depth counter: inner if/endif pairs stay
// inside the enclosing branch contents and are never surfaced as separate
// blocks. An if directive with no balancing endif yields an
// UnterminatedBlockError. Orphan elif/else/endif directives outside any open
// block are ignored and remain literal text.
func ScanBlocks(input, file string) ([]Block, error) {
	dirs := NewScanner(input, file).Directives()
	var blocks []Block

	for i := 0; i < len(dirs); {
		open := dirs[i]
		if open.Kind != DirectiveIf {
			i++
			continue
		}

		depth := 1
		end := -1
		sawElse := false
		var marks []Directive // depth-1 elif/else marks, then the closing endif

		j := i + 1
		for ; j < len(dirs) && end < 0; j++ {
			d := dirs[j]
			switch d.Kind {
			case DirectiveIf:
				depth++
			case DirectiveEndif:
				depth--
				if depth == 0 {
					end = j
				}
			case DirectiveElif:
				if depth == 1 {
					marks = append(marks, d)
				}
			case DirectiveElse:
				if depth == 1 {
					marks = append(marks, d)
					sawElse = true
				}
			}
		}
		if end < 0 {
			return nil, NewUnterminatedBlockError(open.Pos, DirectiveIf)
		}

		closing := dirs[end]
		marks = append(marks, closing)

		b := Block{
			Condition: open.Expr,
			HasElse:   sawElse,
			Span:      [2]int{open.Start, closing.End},
			Pos:       open.Pos,
		}

		// Branch contents run between consecutive depth-1 marks; each range
		// belongs to the mark that opened it.
		prev := open
		for _, m := range marks {
			content := input[prev.End:m.Start]
			switch prev.Kind {
			case DirectiveIf:
				b.Content = content
			case DirectiveElif:
				b.ElseIfs = append(b.ElseIfs, Branch{Condition: prev.Expr, Content: content})
			case DirectiveElse:
				b.ElseContent = content
			}
			prev = m
		}
		b.HasElif = len(b.ElseIfs) > 0

		blocks = append(blocks, b)
		i = end + 1
	}
	return blocks, nil
}

// HasConditionals reports whether input contains at least one if directive.
func HasConditionals(input string) bool {
	return hasDirective(input, DirectiveIf)
}

// HasLoops reports whether input contains at least one for directive. Loops
// are detected for reporting only; they are never reduced.
func HasLoops(input string) bool {
	return hasDirective(input, DirectiveFor)
}

func hasDirective(input string, kind DirectiveKind) bool {
	for _, d := range NewScanner(input, "").Directives() {
		if d.Kind == kind {
			return true
		}
	}
	return false
}
