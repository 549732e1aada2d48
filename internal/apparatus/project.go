// Package apparatus projects a critical edition onto a single witness.
//
// A projection never touches the canonical document. It is built as a new
// tree in one pass: nodes outside the witness's attested span are skipped
// while copying, and every branch-point is replaced by the children of the
// reading the witness follows.
package apparatus

import (
	"fmt"
	"strings"

	"github.com/dgallion1/varianti/internal/diag"
	"github.com/dgallion1/varianti/internal/doctree"
	"github.com/dgallion1/varianti/internal/schema"
)

// Options controls a projection.
type Options struct {
	// ForceDefault selects the default reading at every branch-point even
	// where the witness has its own reading. The span is still trimmed to
	// the witness, so this renders the base edition over the witness's span.
	ForceDefault bool
	Schema       schema.Schema
}

// Projection is the text of one witness. It owns its document exclusively.
type Projection struct {
	WitnessID    string
	ForceDefault bool
	Document     *doctree.Document
	Warnings     []diag.Warning

	// Anchors lists, in output order, the ordinal of every branch-point
	// that contributed content.
	Anchors []int
	// Span describes how the witness's span was resolved.
	Span Span
}

// Span records which boundaries were applied.
type Span struct {
	StartAnchor int `json:"start_anchor,omitempty"` // ordinal of the start branch-point, 0 if open
	EndAnchor   int `json:"end_anchor,omitempty"`   // ordinal of the end branch-point, 0 if open
}

// Project computes the projection of doc for witnessID.
func Project(doc *doctree.Document, witnessID string, opts Options) *Projection {
	p := &projector{
		s:         opts.Schema,
		witnessID: witnessID,
		force:     opts.ForceDefault,
		ordinals:  make(map[*doctree.Node]int),
	}
	for i, app := range doctree.FindAll(doc.Root, p.s.App) {
		p.ordinals[app] = i + 1
	}

	p.resolveSpan(doc.Root)

	var root *doctree.Node
	out := p.copyNode(doc.Root, 0, cursor{start: p.start != nil, end: p.end != nil})
	if len(out) == 1 && out[0].Kind == doctree.ElementNode {
		root = out[0]
	} else {
		// The document element itself was a branch-point.
		root = doctree.NewElement("div")
		root.Children = out
	}

	proj := &Projection{
		WitnessID:    witnessID,
		ForceDefault: opts.ForceDefault,
		Document:     &doctree.Document{Title: doc.Title, Root: root},
		Warnings:     p.warnings,
		Anchors:      p.anchors,
	}
	if p.start != nil {
		proj.Span.StartAnchor = p.ordinals[p.start.Leaf()]
	}
	if p.end != nil {
		proj.Span.EndAnchor = p.ordinals[p.end.Leaf()]
	}
	return proj
}

type projector struct {
	s         schema.Schema
	witnessID string
	force     bool
	ordinals  map[*doctree.Node]int

	// Paths from the root to the start and end branch-points; nil when the
	// span is open on that side.
	start *doctree.Path
	end   *doctree.Path

	warnings []diag.Warning
	anchors  []int
}

// cursor tracks whether the node being copied lies on the path to the start
// or end branch-point. Only nodes on a path have their children bounded.
type cursor struct {
	start bool
	end   bool
}

func (p *projector) warn(kind diag.Kind, element, format string, args ...any) {
	p.warnings = append(p.warnings, diag.Warning{
		Kind:      kind,
		Element:   element,
		WitnessID: p.witnessID,
		Message:   fmt.Sprintf(format, args...),
	})
}

func (p *projector) resolveSpan(root *doctree.Node) {
	starts := p.markers(root, p.s.WitStart)
	if len(starts) > 1 {
		p.warn(diag.AmbiguousMarker, p.s.WitStart, "too many %q for witness %s, using the first", p.s.WitStart, p.witnessID)
	}
	if len(starts) > 0 {
		app, ok := p.branchPoint(starts[0], p.s.WitStart)
		if !ok {
			// A broken start marker leaves the whole tree untrimmed.
			return
		}
		p.start = &app
	}

	ends := p.markers(root, p.s.WitEnd)
	if p.start != nil {
		// Markers preceding the start branch-point are trimmed away with it.
		kept := ends[:0:0]
		for _, e := range ends {
			if !e.Before(*p.start) {
				kept = append(kept, e)
			}
		}
		ends = kept
	}
	if len(ends) > 1 {
		p.warn(diag.AmbiguousMarker, p.s.WitEnd, "too many %q for witness %s, using the first", p.s.WitEnd, p.witnessID)
	}
	if len(ends) > 0 {
		if app, ok := p.branchPoint(ends[0], p.s.WitEnd); ok {
			p.end = &app
		}
	}
}

func (p *projector) markers(root *doctree.Node, tag string) []doctree.Path {
	return doctree.FindPaths(root, func(n *doctree.Node) bool {
		return n.Tag == tag && doctree.ListsWitness(n, p.s.WitAttr, p.witnessID)
	})
}

// branchPoint checks that a marker sits in a witness reading of a
// branch-point and returns the path to that branch-point.
func (p *projector) branchPoint(marker doctree.Path, tag string) (doctree.Path, bool) {
	if len(marker.Nodes) < 3 {
		p.warn(diag.InvalidMarkerPlacement, tag, "invalid use of %q for witness %s: not inside a reading", tag, p.witnessID)
		return doctree.Path{}, false
	}
	rdg := marker.Up(1).Leaf()
	if !rdg.IsElement(p.s.Rdg) {
		p.warn(diag.InvalidMarkerPlacement, tag, "invalid use of %q for witness %s: parent is <%s>, want <%s>", tag, p.witnessID, rdg.Tag, p.s.Rdg)
		return doctree.Path{}, false
	}
	app := marker.Up(2)
	if !app.Leaf().IsElement(p.s.App) {
		p.warn(diag.InvalidMarkerPlacement, tag, "invalid use of %q for witness %s: reading parent is <%s>, want <%s>", tag, p.witnessID, app.Leaf().Tag, p.s.App)
		return doctree.Path{}, false
	}
	return app, true
}

type child struct {
	node *doctree.Node
	at   cursor
}

// children returns the children of n, at the given depth, that survive
// trimming.
func (p *projector) children(n *doctree.Node, depth int, at cursor) []child {
	lo, hi := 0, len(n.Children)-1
	boundStart := at.start && depth+1 < len(p.start.Indexes)
	boundEnd := at.end && depth+1 < len(p.end.Indexes)
	if boundStart {
		lo = p.start.Indexes[depth+1]
	}
	if boundEnd {
		hi = p.end.Indexes[depth+1]
	}

	var out []child
	for i := lo; i <= hi; i++ {
		out = append(out, child{
			node: n.Children[i],
			at: cursor{
				start: boundStart && i == lo,
				end:   boundEnd && i == hi,
			},
		})
	}
	return out
}

func (p *projector) copyNode(n *doctree.Node, depth int, at cursor) []*doctree.Node {
	if n.Kind == doctree.TextNode {
		return []*doctree.Node{doctree.NewText(n.Text)}
	}
	switch {
	case p.s.IsMarker(n.Tag):
		return nil
	case n.Tag == p.s.App:
		return p.collapse(n, depth, at)
	}

	el := doctree.NewElement(n.Tag)
	if len(n.Attrs) > 0 {
		el.Attrs = append([]doctree.Attr(nil), n.Attrs...)
	}
	for _, c := range p.children(n, depth, at) {
		el.Children = append(el.Children, p.copyNode(c.node, depth+1, c.at)...)
	}
	return []*doctree.Node{el}
}

// collapse replaces a branch-point with the content of its selected reading.
func (p *projector) collapse(app *doctree.Node, depth int, at cursor) []*doctree.Node {
	var (
		lems    []child
		matches []child
	)
	for _, c := range p.children(app, depth, at) {
		switch kind := p.classify(c.node); kind {
		case DefaultReading:
			lems = append(lems, c)
		case WitnessReading:
			if doctree.ListsWitness(c.node, p.s.WitAttr, p.witnessID) {
				matches = append(matches, c)
			}
		case Whitespace:
		default:
			desc := "text"
			if c.node.Kind == doctree.ElementNode {
				desc = "<" + c.node.Tag + ">"
			}
			p.warn(diag.UnsupportedReadingNode, p.s.App, "unsupported %s inside %q for witness %s, dropped", desc, p.s.App, p.witnessID)
		}
	}

	if len(matches) > 1 {
		p.warn(diag.AmbiguousReading, p.s.Rdg, "too many %q for witness %s, using the first", p.s.Rdg, p.witnessID)
	}

	var chosen *child
	switch {
	case len(matches) > 0 && !p.force:
		chosen = &matches[0]
	case len(lems) > 0:
		if len(lems) > 1 {
			p.warn(diag.AmbiguousReading, p.s.Lem, "too many %q for witness %s, using the first", p.s.Lem, p.witnessID)
		}
		chosen = &lems[0]
	default:
		// Neither a reading for this witness nor a default: no content.
		return nil
	}

	var out []*doctree.Node
	for _, c := range p.children(chosen.node, depth+1, chosen.at) {
		out = append(out, p.copyNode(c.node, depth+2, c.at)...)
	}
	if len(out) == 0 {
		return nil
	}

	ord := p.ordinals[app]
	for _, n := range out {
		if n.Anchor == 0 {
			n.Anchor = ord
		}
	}
	p.anchors = append(p.anchors, ord)
	return out
}

// ReadingKind classifies a child of a branch-point.
type ReadingKind int

const (
	Unsupported ReadingKind = iota
	DefaultReading
	WitnessReading
	Whitespace
)

func (k ReadingKind) String() string {
	switch k {
	case DefaultReading:
		return "default"
	case WitnessReading:
		return "witness"
	case Whitespace:
		return "whitespace"
	default:
		return "unsupported"
	}
}

// Classify reports what kind of branch-point child n is under s.
func Classify(n *doctree.Node, s schema.Schema) ReadingKind {
	if n.Kind == doctree.TextNode {
		if strings.TrimSpace(n.Text) == "" {
			return Whitespace
		}
		return Unsupported
	}
	switch n.Tag {
	case s.Lem:
		return DefaultReading
	case s.Rdg:
		return WitnessReading
	}
	return Unsupported
}

func (p *projector) classify(n *doctree.Node) ReadingKind {
	return Classify(n, p.s)
}
