package doctree

import "strings"

// NodeKind distinguishes element nodes from text nodes.
type NodeKind int

const (
	ElementNode NodeKind = iota + 1
	TextNode
)

// Attr is a single attribute. Name keeps its prefix, e.g. "xml:id".
type Attr struct {
	Name  string
	Value string
}

// Document is the root of a parsed edition.
type Document struct {
	Title string // file name the document was parsed from
	Root  *Node  // document element
}

// Node is an element or a text node. Trees are built top-down and never
// share nodes; a node belongs to exactly one Document.
type Node struct {
	Kind     NodeKind
	Tag      string  // element name, empty for text
	Attrs    []Attr  // element attributes in source order
	Text     string  // text content, empty for elements
	Children []*Node // element children in document order

	// Anchor is the 1-based ordinal of the branch-point this node was spliced
	// out of during projection. Zero for nodes that were not.
	Anchor int
}

// NewElement returns an element node.
func NewElement(tag string, attrs ...Attr) *Node {
	return &Node{Kind: ElementNode, Tag: tag, Attrs: attrs}
}

// NewText returns a text node.
func NewText(s string) *Node {
	return &Node{Kind: TextNode, Text: s}
}

// IsElement reports whether n is an element with the given tag.
func (n *Node) IsElement(tag string) bool {
	return n != nil && n.Kind == ElementNode && n.Tag == tag
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Append adds children and returns n.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Clone deep-copies n. The copy shares nothing with the original.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		Kind:   n.Kind,
		Tag:    n.Tag,
		Text:   n.Text,
		Anchor: n.Anchor,
	}
	if len(n.Attrs) > 0 {
		c.Attrs = make([]Attr, len(n.Attrs))
		copy(c.Attrs, n.Attrs)
	}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return c
}

// Clone deep-copies the document.
func (d *Document) Clone() *Document {
	return &Document{Title: d.Title, Root: d.Root.Clone()}
}

// TextContent concatenates all descendant text in document order.
func (n *Node) TextContent() string {
	var buf strings.Builder
	var walk func(*Node)
	walk = func(n *Node) {
		if n.Kind == TextNode {
			buf.WriteString(n.Text)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// FindAll returns every element with the given tag in document order.
func FindAll(n *Node, tag string) []*Node {
	var out []*Node
	Walk(n, func(x *Node) bool {
		if x.IsElement(tag) {
			out = append(out, x)
		}
		return true
	})
	return out
}

// Path is the chain of nodes from the document root down to a node,
// together with each node's index within its parent.
type Path struct {
	Nodes   []*Node
	Indexes []int // Indexes[i] is the position of Nodes[i] in Nodes[i-1]; Indexes[0] is 0
}

// Leaf returns the last node of the path.
func (p Path) Leaf() *Node { return p.Nodes[len(p.Nodes)-1] }

// Parent returns the node's parent, nil for the root.
func (p Path) Parent() *Node {
	if len(p.Nodes) < 2 {
		return nil
	}
	return p.Nodes[len(p.Nodes)-2]
}

// Up returns the path truncated by n levels.
func (p Path) Up(n int) Path {
	k := len(p.Nodes) - n
	if k < 1 {
		k = 1
	}
	return Path{Nodes: p.Nodes[:k], Indexes: p.Indexes[:k]}
}

// Before reports whether p is strictly before q in document order, with an
// ancestor ordering before its descendants.
func (p Path) Before(q Path) bool {
	for i := 1; i < len(p.Indexes) && i < len(q.Indexes); i++ {
		if p.Indexes[i] != q.Indexes[i] {
			return p.Indexes[i] < q.Indexes[i]
		}
	}
	return len(p.Indexes) < len(q.Indexes)
}

// FindPaths returns the path to every element matching pred, in document
// order.
func FindPaths(root *Node, pred func(*Node) bool) []Path {
	var out []Path
	nodes := []*Node{root}
	idx := []int{0}
	var walk func(*Node)
	walk = func(n *Node) {
		if n.Kind == ElementNode && pred(n) {
			p := Path{
				Nodes:   append([]*Node(nil), nodes...),
				Indexes: append([]int(nil), idx...),
			}
			out = append(out, p)
		}
		for i, c := range n.Children {
			nodes = append(nodes, c)
			idx = append(idx, i)
			walk(c)
			nodes = nodes[:len(nodes)-1]
			idx = idx[:len(idx)-1]
		}
	}
	walk(root)
	return out
}

// WitnessList splits a witness-list attribute value into its tokens.
func WitnessList(v string) []string {
	return strings.Fields(v)
}

// Ref returns the witness-list token that references id.
func Ref(id string) string { return "#" + id }

// RefID returns the id a token references and whether it is well formed.
func RefID(token string) (string, bool) {
	if len(token) < 2 || token[0] != '#' {
		return "", false
	}
	return token[1:], true
}

// ListsWitness reports whether n's witness-list attribute includes id.
func ListsWitness(n *Node, attr, id string) bool {
	v, ok := n.Attr(attr)
	if !ok {
		return false
	}
	ref := Ref(id)
	for _, tok := range WitnessList(v) {
		if tok == ref {
			return true
		}
	}
	return false
}
