// Package compare diffs the plain text of two witnesses.
//
// The first argument is always the baseline: text found only in the first
// text is Removed, text found only in the second is Added.
package compare

import (
	"strings"
	"unicode"
)

// Kind classifies a diff segment.
type Kind string

const (
	Equal   Kind = "equal"
	Added   Kind = "added"   // only in the second text
	Removed Kind = "removed" // only in the first text
)

// Segment is a run of text sharing one kind.
type Segment struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Options bounds the work a diff may do.
type Options struct {
	// MaxCells caps the LCS table size (tokens of a times tokens of b after
	// the common prefix and suffix are removed). Above it the diff retries at
	// line granularity, then gives up and reports a full replacement.
	MaxCells int
}

// DefaultOptions allows about four million table cells.
func DefaultOptions() Options {
	return Options{MaxCells: 4_000_000}
}

// Diff compares a against b word by word.
func Diff(a, b string) []Segment {
	return DiffWith(a, b, DefaultOptions())
}

// DiffWith is Diff with explicit limits.
func DiffWith(a, b string, opts Options) []Segment {
	if opts.MaxCells <= 0 {
		opts.MaxCells = DefaultOptions().MaxCells
	}
	if ops, ok := diffTokens(Tokenize(a), Tokenize(b), opts.MaxCells); ok {
		return merge(ops)
	}
	if ops, ok := diffTokens(SplitLines(a), SplitLines(b), opts.MaxCells); ok {
		return merge(ops)
	}
	var segs []Segment
	if a != "" {
		segs = append(segs, Segment{Kind: Removed, Text: a})
	}
	if b != "" {
		segs = append(segs, Segment{Kind: Added, Text: b})
	}
	return segs
}

// Tokenize splits s into maximal runs of whitespace and non-whitespace.
// Concatenating the tokens gives back s.
func Tokenize(s string) []string {
	var tokens []string
	start := 0
	prevSpace := false
	for i, r := range s {
		space := unicode.IsSpace(r)
		if i > start && space != prevSpace {
			tokens = append(tokens, s[start:i])
			start = i
		}
		prevSpace = space
	}
	if start < len(s) {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

// SplitLines splits s after every newline. Concatenating the lines gives
// back s.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

type op struct {
	kind Kind
	text string
}

// diffTokens returns one op per token. ok is false when the LCS table
// would exceed maxCells.
func diffTokens(a, b []string, maxCells int) ([]op, bool) {
	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(a)-prefix && suffix < len(b)-prefix && a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}

	midA := a[prefix : len(a)-suffix]
	midB := b[prefix : len(b)-suffix]
	n, m := len(midA), len(midB)
	if n > 0 && m > 0 && n*m > maxCells {
		return nil, false
	}

	ops := make([]op, 0, len(a)+len(b))
	for _, t := range a[:prefix] {
		ops = append(ops, op{Equal, t})
	}

	// lcs[i*(m+1)+j] is the LCS length of midA[i:] and midB[j:].
	width := m + 1
	lcs := make([]int32, (n+1)*width)
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if midA[i] == midB[j] {
				lcs[i*width+j] = lcs[(i+1)*width+j+1] + 1
			} else if down, right := lcs[(i+1)*width+j], lcs[i*width+j+1]; down >= right {
				lcs[i*width+j] = down
			} else {
				lcs[i*width+j] = right
			}
		}
	}

	i, j := 0, 0
	for i < n && j < m {
		switch {
		case midA[i] == midB[j]:
			ops = append(ops, op{Equal, midA[i]})
			i++
			j++
		case lcs[(i+1)*width+j] >= lcs[i*width+j+1]:
			ops = append(ops, op{Removed, midA[i]})
			i++
		default:
			ops = append(ops, op{Added, midB[j]})
			j++
		}
	}
	for ; i < n; i++ {
		ops = append(ops, op{Removed, midA[i]})
	}
	for ; j < m; j++ {
		ops = append(ops, op{Added, midB[j]})
	}

	for _, t := range a[len(a)-suffix:] {
		ops = append(ops, op{Equal, t})
	}
	return ops, true
}

// merge joins adjacent ops of the same kind. Within a changed region all
// removals come before the additions they replace.
func merge(ops []op) []Segment {
	var segs []Segment
	var buf strings.Builder
	var cur Kind
	flush := func() {
		if buf.Len() > 0 {
			segs = append(segs, Segment{Kind: cur, Text: buf.String()})
			buf.Reset()
		}
	}

	for k := 0; k < len(ops); {
		if ops[k].kind == Equal {
			if cur != Equal {
				flush()
				cur = Equal
			}
			buf.WriteString(ops[k].text)
			k++
			continue
		}
		// A changed region: every op up to the next equal one.
		end := k
		for end < len(ops) && ops[end].kind != Equal {
			end++
		}
		flush()
		for _, kind := range []Kind{Removed, Added} {
			cur = kind
			for _, o := range ops[k:end] {
				if o.kind == kind {
					buf.WriteString(o.text)
				}
			}
			flush()
		}
		cur = ""
		k = end
	}
	flush()
	return segs
}

// Reconstruct concatenates the segments whose kind is listed.
func Reconstruct(segs []Segment, kinds ...Kind) string {
	var b strings.Builder
	for _, s := range segs {
		for _, k := range kinds {
			if s.Kind == k {
				b.WriteString(s.Text)
				break
			}
		}
	}
	return b.String()
}

// Split separates a diff into the baseline side (equal and removed) and the
// compared side (equal and added), for side-by-side display.
func Split(segs []Segment) (left, right []Segment) {
	for _, s := range segs {
		switch s.Kind {
		case Equal:
			left = append(left, s)
			right = append(right, s)
		case Removed:
			left = append(left, s)
		case Added:
			right = append(right, s)
		}
	}
	return left, right
}

// Summary counts words per segment kind.
type Summary struct {
	Equal   int `json:"equal_words"`
	Added   int `json:"added_words"`
	Removed int `json:"removed_words"`
	// Similarity is equal words over the words of the longer side.
	Similarity float64 `json:"similarity"`
}

// Summarize counts the words of a diff.
func Summarize(segs []Segment) Summary {
	var s Summary
	for _, seg := range segs {
		n := len(strings.Fields(seg.Text))
		switch seg.Kind {
		case Equal:
			s.Equal += n
		case Added:
			s.Added += n
		case Removed:
			s.Removed += n
		}
	}
	longest := s.Equal + max(s.Added, s.Removed)
	if longest > 0 {
		s.Similarity = float64(s.Equal) / float64(longest)
	} else {
		s.Similarity = 1
	}
	return s
}
