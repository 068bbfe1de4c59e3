// Package reduce rewrites templated SQL by resolving conditional blocks
// against a variable context, permanently deleting branches that would not
// render. Reduction decides which branches survive; it never substitutes
// {{ expr }} placeholders.
package reduce

import (
	"fmt"

	"github.com/sqlsift/sqlsift/internal/condition"
	"github.com/sqlsift/sqlsift/internal/template"
)

// Decision records the outcome for one conditional block.
type Decision struct {
	Condition string `json:"condition"`
	Keep      bool   `json:"keep"`
	Reason    string `json:"reason"`
}

// Result is the outcome of one reduction.
type Result struct {
	Reduced   string     `json:"reduced"`
	Removed   int        `json:"removed_blocks"`
	Kept      int        `json:"kept_blocks"`
	Decisions []Decision `json:"decisions"`
}

// Process reduces every conditional block of input against ctx. Outermost
// blocks are rewritten from the end of the template toward the start so that
// earlier spans stay valid while later text changes; surviving branch content
// is then re-scanned, so nested blocks resolve on subsequent passes. The only
// error is an unterminated block (template.UnterminatedBlockError); every
// other failure is local to its block and recorded in the decision log.
func Process(input, file string, ctx condition.Context) (*Result, error) {
	result := &Result{Reduced: input}

	for {
		blocks, err := template.ScanBlocks(result.Reduced, file)
		if err != nil {
			return nil, err
		}
		if len(blocks) == 0 {
			return result, nil
		}

		text := result.Reduced
		for i := len(blocks) - 1; i >= 0; i-- {
			b := blocks[i]
			replacement, d := decide(b, ctx)
			text = text[:b.Span[0]] + replacement + text[b.Span[1]:]

			result.Decisions = append(result.Decisions, d)
			if d.Keep {
				result.Kept++
			} else {
				result.Removed++
			}
		}

		if text == result.Reduced {
			// No block made progress; avoid spinning on pathological input.
			return result, nil
		}
		result.Reduced = text
	}
}

// decide resolves a single block to its replacement text. The missing
// variable pre-check fires before truthy evaluation: a guard variable absent
// from the context removes the whole block even when the condition itself
// would tolerate the absence. Parse or evaluation panics keep the if branch
// (fail open); missing variables remove it (fail closed).
func decide(b template.Block, ctx condition.Context) (replacement string, d Decision) {
	d = Decision{Condition: b.Condition}

	defer func() {
		if r := recover(); r != nil {
			replacement = b.Content
			d.Keep = true
			d.Reason = fmt.Sprintf("condition could not be parsed (%v); keeping content", r)
		}
	}()

	parsed := condition.Parse(b.Condition)

	if name, ok := condition.GuardVariable(parsed); ok {
		if _, present := ctx[name]; !present {
			d.Keep = false
			d.Reason = fmt.Sprintf("'%s' is not defined in the context; removing block", name)
			return "", d
		}
	}

	truth, why := condition.Evaluate(parsed, ctx)
	if truth {
		// The if branch is kept verbatim. elif branches are parsed but never
		// independently selected; a true condition always selects the first
		// branch.
		d.Keep = true
		d.Reason = why
		return b.Content, d
	}

	d.Keep = false
	if b.HasElse {
		d.Reason = why + "; keeping else branch"
		return b.ElseContent, d
	}
	d.Reason = why
	return "", d
}
