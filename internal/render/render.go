// Package render turns a projected edition into HTML.
//
// Every TEI element becomes a custom element named tei-<tag> carrying its
// original name in data-origname, so stylesheets can target TEI markup
// directly. Content spliced out of a branch-point is wrapped in a
// <span class="app"> whose id pairs it with the same branch-point rendered
// elsewhere on the page.
package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/varianti/internal/apparatus"
	"github.com/dgallion1/varianti/internal/doctree"
	"github.com/dgallion1/varianti/internal/schema"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Behavior renders one element. Returning nil renders nothing. Behaviors
// must not modify n.
type Behavior func(r *Renderer, n *doctree.Node, ctx *Context) []*html.Node

// Renderer holds the behavior registry. It is safe for concurrent use once
// configured.
type Renderer struct {
	behaviors map[string]Behavior
}

// New returns a renderer where the schema's annotation-only elements render
// to nothing and line breaks render as <br>.
func New(s schema.Schema) *Renderer {
	r := &Renderer{behaviors: make(map[string]Behavior)}
	for _, tag := range s.StripTags {
		r.Register(tag, Omit)
	}
	if s.Header != "" {
		r.Register(s.Header, Omit)
	}
	r.Register("lb", func(*Renderer, *doctree.Node, *Context) []*html.Node {
		return []*html.Node{{Type: html.ElementNode, Data: "br", DataAtom: atom.Br}}
	})
	return r
}

// Register sets the behavior for tag, replacing any previous one.
func (r *Renderer) Register(tag string, b Behavior) {
	r.behaviors[tag] = b
}

// Omit is the behavior that renders nothing.
func Omit(*Renderer, *doctree.Node, *Context) []*html.Node { return nil }

// Context is the state of one render pass. Anchor ids are derived from the
// prefix and the branch-point ordinal, so two passes over the same edition
// with different prefixes produce ids that can be paired.
type Context struct {
	Prefix  string
	anchors map[int]string
}

// NewContext starts a render pass.
func NewContext(prefix string) *Context {
	return &Context{Prefix: prefix, anchors: make(map[int]string)}
}

// maxPrefix bounds the length of an anchor id prefix.
const maxPrefix = 32

// ValidPrefix reports whether p can start an HTML id: a letter followed by
// letters, digits, '-' or '_', at most 32 characters.
func ValidPrefix(p string) bool {
	if p == "" || len(p) > maxPrefix {
		return false
	}
	for i, c := range p {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '-' || c == '_'):
		default:
			return false
		}
	}
	return true
}

// AnchorID returns the id for a branch-point ordinal and records it as
// issued. Only the first run of an ordinal gets an id.
func (c *Context) AnchorID(ordinal int) (string, bool) {
	if _, ok := c.anchors[ordinal]; ok {
		return "", false
	}
	id := c.Prefix + "-" + strconv.Itoa(ordinal)
	c.anchors[ordinal] = id
	return id, true
}

// Rendered is the output of one pass.
type Rendered struct {
	WitnessID string
	Root      *html.Node
	// Anchors maps branch-point ordinals to the element ids issued for them.
	Anchors map[int]string
}

// HTML serializes the rendered tree.
func (r *Rendered) HTML() (string, error) {
	var b strings.Builder
	if err := html.Render(&b, r.Root); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return b.String(), nil
}

// Render renders a projection. A nil ctx starts a pass prefixed with the
// witness id.
func (r *Renderer) Render(p *apparatus.Projection, ctx *Context) (*Rendered, error) {
	if p == nil || p.Document == nil || p.Document.Root == nil {
		return nil, errors.New("render: empty projection")
	}
	if ctx == nil {
		ctx = NewContext(p.WitnessID)
	}

	root := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr: []html.Attribute{
			{Key: "class", Val: "tei"},
			{Key: "data-witness", Val: p.WitnessID},
		},
	}
	if p.ForceDefault {
		root.Attr = append(root.Attr, html.Attribute{Key: "data-mode", Val: "default"})
	}
	for _, c := range r.nodes([]*doctree.Node{p.Document.Root}, ctx) {
		root.AppendChild(c)
	}

	anchors := make(map[int]string, len(ctx.anchors))
	for k, v := range ctx.anchors {
		anchors[k] = v
	}
	return &Rendered{WitnessID: p.WitnessID, Root: root, Anchors: anchors}, nil
}

// nodes renders a sibling list, grouping consecutive nodes spliced out of
// the same branch-point.
func (r *Renderer) nodes(in []*doctree.Node, ctx *Context) []*html.Node {
	var out []*html.Node
	for i := 0; i < len(in); {
		n := in[i]
		if n.Anchor == 0 {
			out = append(out, r.node(n, ctx)...)
			i++
			continue
		}
		j := i
		for j < len(in) && in[j].Anchor == n.Anchor {
			j++
		}
		span := &html.Node{
			Type:     html.ElementNode,
			Data:     "span",
			DataAtom: atom.Span,
			Attr: []html.Attribute{
				{Key: "class", Val: "app"},
				{Key: "data-anchor", Val: strconv.Itoa(n.Anchor)},
			},
		}
		if id, ok := ctx.AnchorID(n.Anchor); ok {
			span.Attr = append([]html.Attribute{{Key: "id", Val: id}}, span.Attr...)
		}
		for _, c := range r.nodes(stripAnchors(in[i:j]), ctx) {
			span.AppendChild(c)
		}
		out = append(out, span)
		i = j
	}
	return out
}

// stripAnchors returns shallow copies of ns with the anchor cleared, so a
// group is wrapped only once.
func stripAnchors(ns []*doctree.Node) []*doctree.Node {
	out := make([]*doctree.Node, len(ns))
	for i, n := range ns {
		c := *n
		c.Anchor = 0
		out[i] = &c
	}
	return out
}

func (r *Renderer) node(n *doctree.Node, ctx *Context) []*html.Node {
	if n.Kind == doctree.TextNode {
		return []*html.Node{{Type: html.TextNode, Data: n.Text}}
	}
	if b, ok := r.behaviors[n.Tag]; ok {
		return b(r, n, ctx)
	}
	return []*html.Node{r.Element(n, ctx)}
}

// Element renders n with the default mapping: a tei-<tag> element with
// translated attributes and rendered children. Behaviors use it to wrap or
// decorate the default output.
func (r *Renderer) Element(n *doctree.Node, ctx *Context) *html.Node {
	el := &html.Node{
		Type: html.ElementNode,
		Data: "tei-" + strings.ToLower(n.Tag),
		Attr: []html.Attribute{{Key: "data-origname", Val: n.Tag}},
	}
	for _, a := range n.Attrs {
		if key, ok := attrName(a.Name); ok {
			el.Attr = append(el.Attr, html.Attribute{Key: key, Val: a.Value})
		}
	}
	for _, c := range r.nodes(n.Children, ctx) {
		el.AppendChild(c)
	}
	return el
}

// attrName maps a TEI attribute name to an HTML one. Namespace
// declarations are dropped and other prefixed names move under data-.
func attrName(name string) (string, bool) {
	switch {
	case name == "xmlns" || strings.HasPrefix(name, "xmlns:"):
		return "", false
	case name == "xml:id":
		return "id", true
	case name == "xml:lang":
		return "lang", true
	}
	if prefix, local, ok := strings.Cut(name, ":"); ok {
		return "data-" + strings.ToLower(prefix) + "-" + strings.ToLower(local), true
	}
	return name, true
}

// Pair maps every anchor id in a to the id of the same branch-point in b,
// and the reverse. Branch-points rendered on one side only are absent.
func Pair(a, b *Rendered) map[string]string {
	pairs := make(map[string]string)
	for ord, idA := range a.Anchors {
		if idB, ok := b.Anchors[ord]; ok {
			pairs[idA] = idB
			pairs[idB] = idA
		}
	}
	return pairs
}
