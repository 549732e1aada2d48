package compare

import (
	"strings"
	"testing"

	"github.com/sourcegraph/go-diff/diff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_WordLevel(t *testing.T) {
	segs := Diff("the cat sat", "the dog sat")
	assert.Equal(t, []Segment{
		{Equal, "the "},
		{Removed, "cat"},
		{Added, "dog"},
		{Equal, " sat"},
	}, segs)
}

func TestDiff_Identical(t *testing.T) {
	segs := Diff("uno due", "uno due")
	assert.Equal(t, []Segment{{Equal, "uno due"}}, segs)
	assert.InDelta(t, 1.0, Summarize(segs).Similarity, 1e-9)
}

func TestDiff_EmptySides(t *testing.T) {
	assert.Empty(t, Diff("", ""))
	assert.Equal(t, []Segment{{Added, "nuovo testo"}}, Diff("", "nuovo testo"))
	assert.Equal(t, []Segment{{Removed, "vecchio"}}, Diff("vecchio", ""))
}

func TestDiff_RoundTrip(t *testing.T) {
	pairs := [][2]string{
		{"La camera sembrava buia\ne il vento taceva", "La camera era buia\ne il soffio"},
		{"a b c d e", "x b y d z"},
		{"  leading and trailing  ", "leading trailing"},
		{"una riga\n\nvuota", "una riga\nvuota\n"},
		{"città più bella", "città meno bella"},
		{"", "solo b"},
	}
	for _, p := range pairs {
		segs := Diff(p[0], p[1])
		assert.Equal(t, p[0], Reconstruct(segs, Equal, Removed), "baseline for %q", p)
		assert.Equal(t, p[1], Reconstruct(segs, Equal, Added), "compared for %q", p)
		for i := 1; i < len(segs); i++ {
			assert.False(t, segs[i].Kind == segs[i-1].Kind, "adjacent segments share kind %s", segs[i].Kind)
		}
	}
}

func TestDiffWith_FallsBackToLines(t *testing.T) {
	a := "uno due tre\nquattro cinque\nsei"
	b := "uno due tre\nquattro sette otto\nsei"
	// Word level needs more cells than allowed; line level fits.
	segs := DiffWith(a, b, Options{MaxCells: 2})
	assert.Equal(t, []Segment{
		{Equal, "uno due tre\n"},
		{Removed, "quattro cinque\n"},
		{Added, "quattro sette otto\n"},
		{Equal, "sei"},
	}, segs)
}

func TestDiffWith_GivesUpAsReplacement(t *testing.T) {
	a := "a\nb\nc"
	b := "x\ny\nz"
	segs := DiffWith(a, b, Options{MaxCells: 1})
	assert.Equal(t, []Segment{{Removed, a}, {Added, b}}, segs)
}

func TestTokenize(t *testing.T) {
	in := "  due  parole\n"
	tokens := Tokenize(in)
	assert.Equal(t, []string{"  ", "due", "  ", "parole", "\n"}, tokens)
	assert.Equal(t, in, strings.Join(tokens, ""))
	assert.Empty(t, Tokenize(""))
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a\n", "b"}, SplitLines("a\nb"))
	assert.Equal(t, []string{"a\n", "b\n"}, SplitLines("a\nb\n"))
	assert.Nil(t, SplitLines(""))
}

func TestSplit(t *testing.T) {
	segs := Diff("the cat sat", "the dog sat")
	left, right := Split(segs)
	assert.Equal(t, "the cat sat", Reconstruct(left, Equal, Removed))
	assert.Equal(t, "the dog sat", Reconstruct(right, Equal, Added))
	for _, s := range left {
		assert.NotEqual(t, Added, s.Kind)
	}
	for _, s := range right {
		assert.NotEqual(t, Removed, s.Kind)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(Diff("a b c d", "a x c d e"))
	assert.Equal(t, 3, s.Equal)
	assert.Equal(t, 2, s.Added)
	assert.Equal(t, 1, s.Removed)
	assert.InDelta(t, 3.0/5.0, s.Similarity, 1e-9)
}

func TestRenderHTML(t *testing.T) {
	out, err := RenderHTML(Diff("the cat sat", "the dog sat"))
	require.NoError(t, err)
	assert.Equal(t, `<div class="diff">the <del class="removed">cat</del><ins class="added">dog</ins> sat</div>`, out)

	escaped, err := RenderHTML([]Segment{{Equal, "<b> & co"}})
	require.NoError(t, err)
	assert.Equal(t, `<div class="diff">&lt;b&gt; &amp; co</div>`, escaped)
}

func TestUnified(t *testing.T) {
	a := "uno\ndue\ntre\nquattro\ncinque\nsei\nsette\notto\nnove\ndieci\n"
	b := "uno\ndue\nTRE\nquattro\ncinque\nsei\nsette\notto\nnove\ndieci\nundici\n"

	out, err := Unified(a, b, "A", "B", DefaultOptions())
	require.NoError(t, err)

	fd, err := diff.ParseFileDiff(out)
	require.NoError(t, err)
	assert.Equal(t, "A", fd.OrigName)
	assert.Equal(t, "B", fd.NewName)
	require.Len(t, fd.Hunks, 2)

	first := fd.Hunks[0]
	assert.Equal(t, int32(1), first.OrigStartLine)
	assert.Equal(t, int32(6), first.OrigLines)
	assert.Equal(t, int32(6), first.NewLines)
	assert.Equal(t, " uno\n due\n-tre\n+TRE\n quattro\n cinque\n sei\n", string(first.Body))

	second := fd.Hunks[1]
	assert.Equal(t, int32(8), second.OrigStartLine)
	assert.Equal(t, int32(3), second.OrigLines)
	assert.Equal(t, int32(4), second.NewLines)
	assert.True(t, strings.HasSuffix(string(second.Body), "+undici\n"))
}

func TestUnified_Identical(t *testing.T) {
	out, err := Unified("same\n", "same\n", "A", "B", DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestUnified_MissingFinalNewline(t *testing.T) {
	const marker = "\\ No newline at end of file\n"

	tests := []struct {
		name string
		a, b string
		body string
	}{
		{"both sides changed", "uno\ndue", "uno\ntre",
			" uno\n-due\n" + marker + "+tre\n" + marker},
		{"shared last line", "uno\nfine", "due\nfine",
			"-uno\n+due\n fine\n" + marker},
		{"newline added", "uno", "uno\n",
			"-uno\n" + marker + "+uno\n"},
		{"last line removed", "uno\ndue", "uno\n",
			" uno\n-due\n" + marker},
		{"replacement before unterminated addition", "a\nb\n", "a\nc",
			" a\n-b\n+c\n" + marker},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Unified(tt.a, tt.b, "A", "B", DefaultOptions())
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(string(out), tt.body), "got:\n%s", out)
		})
	}
}

func TestRemovalsFirst(t *testing.T) {
	ops := []op{{Equal, "a"}, {Added, "x"}, {Removed, "y"}, {Added, "z"}, {Equal, "b"}}
	assert.Equal(t,
		[]op{{Equal, "a"}, {Removed, "y"}, {Added, "x"}, {Added, "z"}, {Equal, "b"}},
		removalsFirst(ops))
}
