package edition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgallion1/varianti/internal/apparatus"
	"github.com/dgallion1/varianti/internal/compare"
	"github.com/dgallion1/varianti/internal/diag"
	"github.com/dgallion1/varianti/internal/extract"
	"github.com/dgallion1/varianti/internal/metrics"
	"github.com/dgallion1/varianti/internal/render"
	"github.com/dgallion1/varianti/internal/schema"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Anchor prefixes of the two halves of a witness view.
const (
	WitnessPrefix = "wit"
	BasePrefix    = "final"
)

// UnknownWitnessError is returned for an id that does not name a
// selectable witness.
type UnknownWitnessError struct {
	ID string
	// Disabled is set when the witness is declared but not selectable.
	Disabled bool
}

func (e *UnknownWitnessError) Error() string {
	if e.Disabled {
		return fmt.Sprintf("witness %q is not selectable", e.ID)
	}
	return fmt.Sprintf("unknown witness %q", e.ID)
}

// ErrNoSource is returned by Reload when the service was built without a
// source file.
var ErrNoSource = errors.New("edition has no source file")

// Options configures a Service.
type Options struct {
	Source      string
	Schema      schema.Schema
	CacheTTL    time.Duration
	StatsWindow time.Duration
	// SessionIdle is how long an unused view session is kept.
	SessionIdle time.Duration
	Diff        compare.Options
}

// Service runs render passes against the current snapshot.
type Service struct {
	opts     Options
	log      *slog.Logger
	renderer *render.Renderer

	snap     atomic.Pointer[Snapshot]
	reloadMu sync.Mutex

	texts       *Cache[*TextResult]
	pages       *Cache[*HTMLResult]
	comparisons *Cache[*Comparison]
	stats       *RenderStats
	sessions    Sessions
}

// New loads the source file and returns a service serving it.
func New(opts Options, log *slog.Logger) (*Service, error) {
	snap, err := Load(opts.Source, opts.Schema, 1)
	if err != nil {
		return nil, err
	}
	return NewFromSnapshot(snap, opts, log), nil
}

// NewFromSnapshot returns a service serving snap.
func NewFromSnapshot(snap *Snapshot, opts Options, log *slog.Logger) *Service {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Minute
	}
	if opts.SessionIdle <= 0 {
		opts.SessionIdle = opts.CacheTTL
	}
	if opts.Diff.MaxCells <= 0 {
		opts.Diff = compare.DefaultOptions()
	}
	s := &Service{
		opts:        opts,
		log:         log,
		renderer:    render.New(snap.Schema),
		texts:       NewCache[*TextResult](opts.CacheTTL),
		pages:       NewCache[*HTMLResult](opts.CacheTTL),
		comparisons: NewCache[*Comparison](opts.CacheTTL),
		stats:       NewRenderStats(opts.StatsWindow),
	}
	s.install(snap)
	return s
}

// Snapshot returns the current snapshot.
func (s *Service) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Stats returns pass latencies per operation.
func (s *Service) Stats() map[string]StatsSnapshot {
	return s.stats.Snapshot()
}

func (s *Service) install(snap *Snapshot) {
	s.snap.Store(snap)

	metrics.Generation.Set(float64(snap.Generation))
	metrics.EnabledWitnesses.Set(float64(len(snap.Registry.Enabled())))
	for _, w := range snap.Warnings {
		metrics.Warnings.WithLabelValues(string(w.Kind)).Inc()
	}

	log := s.log.With("generation", snap.Generation, "source", snap.Source)
	diag.Report(log, snap.Warnings)
	log.Info("edition loaded",
		"witnesses", len(snap.Registry.All()),
		"enabled", len(snap.Registry.Enabled()),
		"warnings", len(snap.Warnings),
	)

	s.cleanup(snap.Generation)
}

func (s *Service) cleanup(keepFrom uint64) {
	s.texts.Cleanup(keepFrom)
	s.pages.Cleanup(keepFrom)
	s.comparisons.Cleanup(keepFrom)
}

// Reload re-reads the source file. On failure the current snapshot stays
// in place. An unchanged file keeps the current generation.
func (s *Service) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if s.opts.Source == "" {
		return ErrNoSource
	}

	cur := s.snap.Load()
	next, err := Load(s.opts.Source, cur.Schema, cur.Generation+1)
	if err != nil {
		metrics.ReloadTotal.WithLabelValues("error").Inc()
		s.log.Error("reload failed, keeping current edition", "generation", cur.Generation, "error", err)
		return fmt.Errorf("reload: %w", err)
	}
	if next.ContentHash == cur.ContentHash {
		metrics.ReloadTotal.WithLabelValues("unchanged").Inc()
		return nil
	}

	metrics.ReloadTotal.WithLabelValues("ok").Inc()
	s.install(next)
	return nil
}

// Sessions returns the view sessions of this service.
func (s *Service) Sessions() *Sessions {
	return &s.sessions
}

// Run evicts expired cache entries and idle sessions until ctx is done.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *Service) sweep(now time.Time) {
	s.cleanup(s.snap.Load().Generation)
	s.sessions.evict(now.Add(-s.opts.SessionIdle))
}

// pass is one render operation against a fixed snapshot.
type pass struct {
	op    string
	start time.Time
	snap  *Snapshot
	log   *slog.Logger
}

func (s *Service) begin(op string, snap *Snapshot, attrs ...any) *pass {
	attrs = append([]any{"pass", uuid.NewString(), "op", op, "generation", snap.Generation}, attrs...)
	return &pass{op: op, start: time.Now(), snap: snap, log: s.log.With(attrs...)}
}

func (s *Service) end(p *pass, err error) {
	d := time.Since(p.start)
	s.stats.Record(p.op, d)
	metrics.ObservePass(p.op, p.start, err)
	if err != nil {
		p.log.Warn("pass failed", "error", err, "duration_ms", d.Milliseconds())
		return
	}
	p.log.Debug("pass complete", "duration_ms", d.Milliseconds())
}

func selectable(snap *Snapshot, id string) error {
	w, ok := snap.Registry.Lookup(id)
	if !ok {
		return &UnknownWitnessError{ID: id}
	}
	if !w.Enabled {
		return &UnknownWitnessError{ID: id, Disabled: true}
	}
	return nil
}

// project computes a projection within pass p.
func (s *Service) project(ctx context.Context, p *pass, id string, force bool) (*apparatus.Projection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := selectable(p.snap, id); err != nil {
		return nil, err
	}
	proj := apparatus.Project(p.snap.Doc, id, apparatus.Options{ForceDefault: force, Schema: p.snap.Schema})
	diag.Report(p.log, proj.Warnings)
	return proj, nil
}

// Project computes the projection of a witness on the current snapshot.
func (s *Service) Project(ctx context.Context, id string, force bool) (_ *apparatus.Projection, err error) {
	p := s.begin("project", s.snap.Load(), "witness", id, "force", force)
	defer func() { s.end(p, err) }()
	return s.project(ctx, p, id, force)
}

// TextResult is the plain text of a witness.
type TextResult struct {
	Witness    string         `json:"witness"`
	Force      bool           `json:"force"`
	Generation uint64         `json:"generation"`
	Lines      []string       `json:"lines"`
	Text       string         `json:"text"`
	Span       apparatus.Span `json:"span"`
	Warnings   []diag.Warning `json:"warnings"`
}

// Text returns the plain text of a witness.
func (s *Service) Text(ctx context.Context, id string, force bool) (*TextResult, error) {
	return s.text(ctx, s.snap.Load(), id, force)
}

func (s *Service) text(ctx context.Context, snap *Snapshot, id string, force bool) (_ *TextResult, err error) {
	key := CacheKey{Generation: snap.Generation, Kind: "text", Witness: id, Force: force}
	if r, ok := cached(s.texts, key); ok {
		return r, nil
	}

	p := s.begin("text", snap, "witness", id, "force", force)
	defer func() { s.end(p, err) }()

	proj, err := s.project(ctx, p, id, force)
	if err != nil {
		return nil, err
	}
	lines := extract.Lines(proj.Document, snap.Schema)
	r := &TextResult{
		Witness:    id,
		Force:      force,
		Generation: snap.Generation,
		Lines:      lines,
		Text:       strings.Join(lines, "\n"),
		Span:       proj.Span,
		Warnings:   proj.Warnings,
	}
	s.texts.Put(key, r)
	return r, nil
}

// HTMLResult is the rendered markup of a witness.
type HTMLResult struct {
	Witness    string         `json:"witness"`
	Force      bool           `json:"force"`
	Generation uint64         `json:"generation"`
	Prefix     string         `json:"prefix"`
	HTML       string         `json:"html"`
	Anchors    map[int]string `json:"anchors"`
	Warnings   []diag.Warning `json:"warnings"`
}

// HTML renders a witness. Anchor ids start with prefix, or the witness id
// when prefix is empty. Only the witness id and the view prefixes are
// cached.
func (s *Service) HTML(ctx context.Context, id string, force bool, prefix string) (*HTMLResult, error) {
	return s.html(ctx, s.snap.Load(), id, force, prefix)
}

func (s *Service) html(ctx context.Context, snap *Snapshot, id string, force bool, prefix string) (_ *HTMLResult, err error) {
	if prefix == "" {
		prefix = id
	}
	key := CacheKey{Generation: snap.Generation, Kind: "html", Witness: id, Force: force, Variant: prefix}
	cacheable := prefix == id || prefix == WitnessPrefix || prefix == BasePrefix
	if cacheable {
		if r, ok := cached(s.pages, key); ok {
			return r, nil
		}
	}

	p := s.begin("html", snap, "witness", id, "force", force)
	defer func() { s.end(p, err) }()

	proj, err := s.project(ctx, p, id, force)
	if err != nil {
		return nil, err
	}
	rendered, err := s.renderer.Render(proj, render.NewContext(prefix))
	if err != nil {
		return nil, err
	}
	markup, err := rendered.HTML()
	if err != nil {
		return nil, err
	}
	r := &HTMLResult{
		Witness:    id,
		Force:      force,
		Generation: snap.Generation,
		Prefix:     prefix,
		HTML:       markup,
		Anchors:    rendered.Anchors,
		Warnings:   proj.Warnings,
	}
	if cacheable {
		s.pages.Put(key, r)
	}
	return r, nil
}

// View is a witness rendered next to the base edition over the same span.
type View struct {
	Witness *HTMLResult `json:"witness"`
	Base    *HTMLResult `json:"base"`
	// Pairs maps each anchor id to its counterpart on the other side.
	Pairs map[string]string `json:"pairs"`
}

// View renders the witness and the base edition concurrently.
func (s *Service) View(ctx context.Context, id string) (*View, error) {
	snap := s.snap.Load()
	v := &View{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		v.Witness, err = s.html(gctx, snap, id, false, WitnessPrefix)
		return err
	})
	g.Go(func() (err error) {
		v.Base, err = s.html(gctx, snap, id, true, BasePrefix)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	v.Pairs = render.Pair(
		&render.Rendered{Anchors: v.Witness.Anchors},
		&render.Rendered{Anchors: v.Base.Anchors},
	)
	return v, nil
}

// Comparison is the diff of two witnesses. A is the baseline.
type Comparison struct {
	A          string            `json:"a"`
	B          string            `json:"b"`
	Generation uint64            `json:"generation"`
	Segments   []compare.Segment `json:"segments"`
	Summary    compare.Summary   `json:"summary"`
	TextA      string            `json:"-"`
	TextB      string            `json:"-"`
}

// Compare diffs the plain texts of a and b. Both witnesses are projected
// concurrently on the same snapshot.
func (s *Service) Compare(ctx context.Context, a, b string) (*Comparison, error) {
	snap := s.snap.Load()
	key := CacheKey{Generation: snap.Generation, Kind: "compare", Witness: a + "/" + b}
	if c, ok := cached(s.comparisons, key); ok {
		return c, nil
	}

	var ta, tb *TextResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ta, err = s.text(gctx, snap, a, false)
		return err
	})
	g.Go(func() (err error) {
		tb, err = s.text(gctx, snap, b, false)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p := s.begin("compare", snap, "a", a, "b", b)
	segs := compare.DiffWith(ta.Text, tb.Text, s.opts.Diff)
	c := &Comparison{
		A:          a,
		B:          b,
		Generation: snap.Generation,
		Segments:   segs,
		Summary:    compare.Summarize(segs),
		TextA:      ta.Text,
		TextB:      tb.Text,
	}
	metrics.DiffSegments.Observe(float64(len(segs)))
	s.end(p, nil)

	s.comparisons.Put(key, c)
	return c, nil
}

// Unified renders a comparison as a unified diff.
func (s *Service) Unified(c *Comparison) ([]byte, error) {
	return compare.Unified(c.TextA, c.TextB, c.A, c.B, s.opts.Diff)
}

// WriteWitnessDOCX exports the plain text of a witness as a Word document.
func (s *Service) WriteWitnessDOCX(ctx context.Context, w io.Writer, id string, force bool) error {
	t, err := s.Text(ctx, id, force)
	if err != nil {
		return err
	}
	return render.WriteDOCX(w, s.title(id, force), t.Lines)
}

// WriteComparisonDOCX exports a comparison as a Word document.
func (s *Service) WriteComparisonDOCX(ctx context.Context, w io.Writer, a, b string) error {
	c, err := s.Compare(ctx, a, b)
	if err != nil {
		return err
	}
	return render.WriteComparisonDOCX(w, s.title(a, false)+" / "+s.title(b, false), c.Segments)
}

func (s *Service) title(id string, force bool) string {
	t := id
	if w, ok := s.snap.Load().Registry.Lookup(id); ok && w.Label != "" {
		t = w.Label
	}
	if force {
		t += " (base)"
	}
	return t
}

func cached[V any](c *Cache[V], key CacheKey) (V, bool) {
	v, ok := c.Get(key)
	if ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}
	return v, ok
}
