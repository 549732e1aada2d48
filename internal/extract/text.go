package extract

import (
	"strings"

	"github.com/dgallion1/varianti/internal/doctree"
	"github.com/dgallion1/varianti/internal/schema"
)

// PlainText returns the text of a projected document, one line-level
// element per output line. Annotation-only elements are skipped.
func PlainText(doc *doctree.Document, s schema.Schema) string {
	return strings.Join(Lines(doc, s), "\n")
}

// Lines returns the normalized text of every non-empty line-level element
// in document order, leaving out the header. A line-level element nested in
// another contributes to the outer one. Documents without line-level
// elements yield one line.
func Lines(doc *doctree.Document, s schema.Schema) []string {
	var lines []string
	found := false

	doctree.Walk(doc.Root, func(n *doctree.Node) bool {
		if n.Kind != doctree.ElementNode {
			return false
		}
		if s.IsStripped(n.Tag) || s.IsHeader(n.Tag) {
			return false
		}
		if s.IsLine(n.Tag) {
			found = true
			if t := normalize(textOf(n, s)); t != "" {
				lines = append(lines, t)
			}
			return false
		}
		return true
	})

	if !found {
		if t := normalize(textOf(doc.Root, s)); t != "" {
			lines = append(lines, t)
		}
	}
	return lines
}

// textOf concatenates the text under n, skipping stripped elements and the
// header.
func textOf(n *doctree.Node, s schema.Schema) string {
	var buf strings.Builder
	var walk func(*doctree.Node)
	walk = func(n *doctree.Node) {
		if n.Kind == doctree.TextNode {
			buf.WriteString(n.Text)
			return
		}
		if s.IsStripped(n.Tag) || s.IsHeader(n.Tag) {
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

// normalize collapses whitespace runs to one space and trims the ends.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
