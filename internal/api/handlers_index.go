package api

import (
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// handleIndex serves the landing page: the editor's notes followed by the
// selectable witnesses, each linking to its view.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.svc.Snapshot()

	title := snap.Doc.Title
	if s.notes != nil && s.notes.Title != "" {
		title = s.notes.Title
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	root := element(atom.Html)
	doc.AppendChild(root)

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, "charset", "utf-8"))
	t := element(atom.Title)
	t.AppendChild(textNode(title))
	head.AppendChild(t)
	root.AppendChild(head)

	body := element(atom.Body)
	root.AppendChild(body)
	h1 := element(atom.H1)
	h1.AppendChild(textNode(title))
	body.AppendChild(h1)

	if s.notes != nil {
		section := element(atom.Section, "class", "notes")
		frag, err := html.ParseFragment(strings.NewReader(s.notes.HTML), section)
		if err != nil {
			s.log.Warn("notes not rendered", "error", err)
		}
		for _, n := range frag {
			section.AppendChild(n)
		}
		body.AppendChild(section)
	}

	h2 := element(atom.H2)
	h2.AppendChild(textNode("Testimoni"))
	body.AppendChild(h2)
	list := element(atom.Ul, "class", "witnesses")
	for _, wit := range snap.Registry.Enabled() {
		li := element(atom.Li, "data-witness", wit.ID)
		a := element(atom.A, "href", "/api/view/"+url.PathEscape(wit.ID))
		a.AppendChild(textNode(wit.Label))
		li.AppendChild(a)
		if d := wit.DateString(); d != "" {
			li.AppendChild(textNode(" (" + d + ")"))
		}
		list.AppendChild(li)
	}
	body.AppendChild(list)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := html.Render(w, doc); err != nil {
		s.log.Error("index render failed", "error", err)
	}
}
