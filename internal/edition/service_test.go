package edition

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/varianti/internal/compare"
	"github.com/dgallion1/varianti/internal/schema"
	"github.com/dgallion1/varianti/internal/teitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeEdition(t *testing.T, dir, src string) string {
	t.Helper()
	path := filepath.Join(dir, "edition.xml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func newService(t *testing.T) (*Service, string) {
	t.Helper()
	path := writeEdition(t, t.TempDir(), teitest.Edition)
	svc, err := New(Options{Source: path, Schema: schema.Default()}, discard())
	require.NoError(t, err)
	return svc, path
}

func TestNew_LoadsSnapshot(t *testing.T) {
	svc, path := newService(t)
	snap := svc.Snapshot()

	assert.Equal(t, uint64(1), snap.Generation)
	assert.Equal(t, path, snap.Source)
	assert.Len(t, snap.ContentHash, 64)

	var ids []string
	for _, w := range snap.Registry.Enabled() {
		ids = append(ids, w.ID)
	}
	assert.Equal(t, []string{"A", "B", "C"}, ids)
}

func TestNew_MissingFile(t *testing.T) {
	_, err := New(Options{Source: filepath.Join(t.TempDir(), "none.xml"), Schema: schema.Default()}, discard())
	assert.Error(t, err)
}

func TestLoadReader_UnsupportedExtension(t *testing.T) {
	_, err := LoadReader(strings.NewReader(teitest.Edition), "edition.pdf", schema.Default(), 1)
	assert.Error(t, err)
}

func TestText(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	r, err := svc.Text(ctx, "A", false)
	require.NoError(t, err)
	assert.Equal(t, "La camera sembrava buia\ne il vento taceva\nsul balcone spento", r.Text)
	assert.Len(t, r.Lines, 3)

	r, err = svc.Text(ctx, "B", false)
	require.NoError(t, err)
	assert.Equal(t, "fiato taceva\nsul davanzale spento", r.Text)
	assert.Equal(t, 2, r.Span.StartAnchor)

	again, err := svc.Text(ctx, "B", false)
	require.NoError(t, err)
	assert.Same(t, r, again, "second call should be served from cache")

	assert.Contains(t, svc.Stats(), "text")
}

func TestText_UnknownWitness(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Text(ctx, "Z", false)
	var uerr *UnknownWitnessError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "Z", uerr.ID)
	assert.False(t, uerr.Disabled)

	_, err = svc.Text(ctx, "E", false)
	require.ErrorAs(t, err, &uerr)
	assert.True(t, uerr.Disabled, "a witness with two dates is declared but not selectable")
}

func TestText_CanceledContext(t *testing.T) {
	svc, _ := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Text(ctx, "A", false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTML(t *testing.T) {
	svc, _ := newService(t)

	r, err := svc.HTML(context.Background(), "C", false, "")
	require.NoError(t, err)
	assert.Equal(t, "C", r.Prefix)
	assert.Contains(t, r.HTML, `<span id="C-2" class="app" data-anchor="2">soffio</span>`)
	assert.NotContains(t, r.HTML, "spento")
	assert.Equal(t, map[int]string{1: "C-1", 2: "C-2"}, r.Anchors)
}

func TestHTML_CustomPrefixNotCached(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, prefix := range []string{"p1", "p2", "p3"} {
		r, err := svc.HTML(ctx, "A", false, prefix)
		require.NoError(t, err)
		assert.Equal(t, prefix+"-1", r.Anchors[1])
	}
	assert.Equal(t, 0, svc.pages.Len())

	_, err := svc.HTML(ctx, "A", false, "")
	require.NoError(t, err)
	_, err = svc.View(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 3, svc.pages.Len())
}

func TestSweep_EvictsIdleSessions(t *testing.T) {
	path := writeEdition(t, t.TempDir(), teitest.Edition)
	svc, err := New(Options{Source: path, Schema: schema.Default(), SessionIdle: time.Minute}, discard())
	require.NoError(t, err)

	for _, id := range []string{"s1", "s2", "s3"} {
		svc.Sessions().Selector(id)
	}
	svc.sweep(time.Now())
	assert.Equal(t, 3, svc.Sessions().Len())

	svc.sweep(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 0, svc.Sessions().Len())
}

func TestView(t *testing.T) {
	svc, _ := newService(t)

	v, err := svc.View(context.Background(), "B")
	require.NoError(t, err)
	assert.False(t, v.Witness.Force)
	assert.True(t, v.Base.Force)
	assert.Contains(t, v.Witness.HTML, "fiato")
	assert.Contains(t, v.Base.HTML, "vento")
	assert.Equal(t, map[string]string{
		"wit-2":   "final-2",
		"final-2": "wit-2",
		"wit-3":   "final-3",
		"final-3": "wit-3",
	}, v.Pairs)
}

func TestView_UnknownWitness(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.View(context.Background(), "nope")
	var uerr *UnknownWitnessError
	assert.ErrorAs(t, err, &uerr)
}

func TestCompare(t *testing.T) {
	svc, _ := newService(t)

	c, err := svc.Compare(context.Background(), "A", "C")
	require.NoError(t, err)
	assert.Equal(t, c.TextA, compare.Reconstruct(c.Segments, compare.Equal, compare.Removed))
	assert.Equal(t, c.TextB, compare.Reconstruct(c.Segments, compare.Equal, compare.Added))
	assert.Contains(t, c.Segments, compare.Segment{Kind: compare.Removed, Text: "sembrava"})
	assert.Contains(t, c.Segments, compare.Segment{Kind: compare.Added, Text: "era"})
	assert.Greater(t, c.Summary.Equal, 0)

	unified, err := svc.Unified(c)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(unified, []byte("--- A\n+++ C\n")), "got %q", unified)
}

func TestCompare_SameWitness(t *testing.T) {
	svc, _ := newService(t)
	c, err := svc.Compare(context.Background(), "A", "A")
	require.NoError(t, err)
	require.Len(t, c.Segments, 1)
	assert.Equal(t, compare.Equal, c.Segments[0].Kind)
	assert.InDelta(t, 1.0, c.Summary.Similarity, 1e-9)
}

func TestCompare_Concurrent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Compare(ctx, "B", "C")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestWriteDOCX(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, svc.WriteWitnessDOCX(ctx, &buf, "A", false))
	assert.Positive(t, buf.Len())

	buf.Reset()
	require.NoError(t, svc.WriteComparisonDOCX(ctx, &buf, "A", "B"))
	assert.Positive(t, buf.Len())

	assert.Error(t, svc.WriteWitnessDOCX(ctx, io.Discard, "D", false))
}

func TestReload(t *testing.T) {
	svc, path := newService(t)
	ctx := context.Background()

	before, err := svc.Text(ctx, "A", false)
	require.NoError(t, err)

	// Unchanged file keeps the generation.
	require.NoError(t, svc.Reload(ctx))
	assert.Equal(t, uint64(1), svc.Snapshot().Generation)

	changed := strings.Replace(teitest.Edition, "sembrava", "pareva", 1)
	require.NoError(t, os.WriteFile(path, []byte(changed), 0o644))
	require.NoError(t, svc.Reload(ctx))
	assert.Equal(t, uint64(2), svc.Snapshot().Generation)

	after, err := svc.Text(ctx, "A", false)
	require.NoError(t, err)
	assert.NotEqual(t, before.Text, after.Text)
	assert.Contains(t, after.Text, "pareva")

	// A broken file keeps the last good edition.
	require.NoError(t, os.WriteFile(path, []byte("<TEI><text>"), 0o644))
	assert.Error(t, svc.Reload(ctx))
	assert.Equal(t, uint64(2), svc.Snapshot().Generation)
	still, err := svc.Text(ctx, "A", false)
	require.NoError(t, err)
	assert.Equal(t, after.Text, still.Text)
}

func TestReload_NoSource(t *testing.T) {
	snap, err := LoadReader(strings.NewReader(teitest.Edition), "edition.xml", schema.Default(), 1)
	require.NoError(t, err)
	svc := NewFromSnapshot(snap, Options{}, discard())

	assert.True(t, errors.Is(svc.Reload(context.Background()), ErrNoSource))
}
