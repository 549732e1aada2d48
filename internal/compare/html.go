package compare

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Node builds an HTML fragment for segs: equal text as is, removed text in
// <del class="removed">, added text in <ins class="added">. The container
// is a <div class="diff"> meant to be styled with white-space: pre-wrap.
func Node(segs []Segment) *html.Node {
	root := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: "class", Val: "diff"}},
	}
	for _, s := range segs {
		text := &html.Node{Type: html.TextNode, Data: s.Text}
		switch s.Kind {
		case Removed:
			del := &html.Node{Type: html.ElementNode, Data: "del", DataAtom: atom.Del,
				Attr: []html.Attribute{{Key: "class", Val: "removed"}}}
			del.AppendChild(text)
			root.AppendChild(del)
		case Added:
			ins := &html.Node{Type: html.ElementNode, Data: "ins", DataAtom: atom.Ins,
				Attr: []html.Attribute{{Key: "class", Val: "added"}}}
			ins.AppendChild(text)
			root.AppendChild(ins)
		default:
			root.AppendChild(text)
		}
	}
	return root
}

// RenderHTML renders Node(segs) to a string.
func RenderHTML(segs []Segment) (string, error) {
	var b strings.Builder
	if err := html.Render(&b, Node(segs)); err != nil {
		return "", err
	}
	return b.String(), nil
}
