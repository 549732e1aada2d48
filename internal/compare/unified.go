package compare

import (
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// contextLines is the number of unchanged lines shown around each change.
const contextLines = 3

// UnifiedDiff builds a line-level diff of a against b. A nil Hunks slice
// means the texts are identical.
func UnifiedDiff(a, b, nameA, nameB string, opts Options) *diff.FileDiff {
	if opts.MaxCells <= 0 {
		opts.MaxCells = DefaultOptions().MaxCells
	}
	la, lb := SplitLines(a), SplitLines(b)
	ops, ok := diffTokens(la, lb, opts.MaxCells)
	if !ok {
		ops = ops[:0]
		for _, l := range la {
			ops = append(ops, op{Removed, l})
		}
		for _, l := range lb {
			ops = append(ops, op{Added, l})
		}
	}

	return &diff.FileDiff{
		OrigName: nameA,
		NewName:  nameB,
		Hunks:    hunks(removalsFirst(ops)),
	}
}

// Unified renders UnifiedDiff in unified diff format. Identical texts yield
// an empty result.
func Unified(a, b, nameA, nameB string, opts Options) ([]byte, error) {
	return diff.PrintFileDiff(UnifiedDiff(a, b, nameA, nameB, opts))
}

// removalsFirst reorders every run of changed lines so its removals come
// before its additions. A last line without newline then sits at the end of
// its side of the hunk.
func removalsFirst(ops []op) []op {
	out := make([]op, 0, len(ops))
	for k := 0; k < len(ops); {
		if ops[k].kind == Equal {
			out = append(out, ops[k])
			k++
			continue
		}
		end := k
		for end < len(ops) && ops[end].kind != Equal {
			end++
		}
		for _, kind := range []Kind{Removed, Added} {
			for _, o := range ops[k:end] {
				if o.kind == kind {
					out = append(out, o)
				}
			}
		}
		k = end
	}
	return out
}

func hunks(ops []op) []*diff.Hunk {
	// origBefore[k] and newBefore[k] count the lines consumed before ops[k].
	origBefore := make([]int, len(ops)+1)
	newBefore := make([]int, len(ops)+1)
	for k, o := range ops {
		origBefore[k+1] = origBefore[k]
		newBefore[k+1] = newBefore[k]
		if o.kind != Added {
			origBefore[k+1]++
		}
		if o.kind != Removed {
			newBefore[k+1]++
		}
	}

	var out []*diff.Hunk
	for k := 0; k < len(ops); {
		for k < len(ops) && ops[k].kind == Equal {
			k++
		}
		if k == len(ops) {
			break
		}

		start := max(k-contextLines, 0)
		end := k
		for {
			for end < len(ops) && ops[end].kind != Equal {
				end++
			}
			next := end
			for next < len(ops) && ops[next].kind == Equal {
				next++
			}
			if next < len(ops) && next-end <= 2*contextLines {
				end = next
				continue
			}
			end = min(end+contextLines, len(ops))
			break
		}

		var body strings.Builder
		var origNoNewline int
		for _, o := range ops[start:end] {
			switch o.kind {
			case Equal:
				body.WriteByte(' ')
			case Removed:
				body.WriteByte('-')
			case Added:
				body.WriteByte('+')
			}
			body.WriteString(o.text)
			// A final line of the first text that lacks a newline is marked
			// mid-hunk; the printer marks an unterminated body end itself.
			if o.kind == Removed && !strings.HasSuffix(o.text, "\n") {
				body.WriteByte('\n')
				origNoNewline = body.Len()
			}
		}

		h := &diff.Hunk{
			OrigStartLine: int32(origBefore[start] + 1),
			OrigLines:     int32(origBefore[end] - origBefore[start]),
			NewStartLine:  int32(newBefore[start] + 1),
			NewLines:      int32(newBefore[end] - newBefore[start]),
			Body:          []byte(body.String()),
		}
		if origNoNewline > 0 && origNoNewline < body.Len() {
			h.OrigNoNewlineAt = int32(origNoNewline)
		} else if origNoNewline > 0 {
			// Nothing follows the removed line, so the body must end
			// unterminated for the printer to add the marker.
			h.Body = h.Body[:len(h.Body)-1]
		}
		if h.OrigLines == 0 {
			h.OrigStartLine--
		}
		if h.NewLines == 0 {
			h.NewStartLine--
		}
		out = append(out, h)
		k = end
	}
	return out
}
