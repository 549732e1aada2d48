package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/varianti/internal/doctree"
)

// XMLParser handles TEI XML files. Names keep their source prefixes
// ("xml:id") so lookups match the attribute names editors write.
type XMLParser struct{}

func (p *XMLParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	dec.Entity = xml.HTMLEntity

	doc := &doctree.Document{
		Title: strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)),
	}

	var stack []*doctree.Node
	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := doctree.NewElement(qualified(t.Name))
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, doctree.Attr{Name: qualified(a.Name), Value: a.Value})
			}
			if len(stack) == 0 {
				if doc.Root != nil {
					return nil, fmt.Errorf("parse xml: second root element <%s>", n.Tag)
				}
				doc.Root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			name := qualified(t.Name)
			if len(stack) == 0 {
				return nil, fmt.Errorf("parse xml: unexpected </%s>", name)
			}
			top := stack[len(stack)-1]
			if top.Tag != name {
				return nil, fmt.Errorf("parse xml: </%s> closes <%s>", name, top.Tag)
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				// Whitespace around the document element.
				continue
			}
			parent := stack[len(stack)-1]
			// Adjacent character data (text split by a comment) is merged.
			if k := len(parent.Children); k > 0 && parent.Children[k-1].Kind == doctree.TextNode {
				parent.Children[k-1].Text += string(t)
				continue
			}
			parent.Children = append(parent.Children, doctree.NewText(string(t)))
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("parse xml: unclosed <%s>", stack[len(stack)-1].Tag)
	}
	if doc.Root == nil {
		return nil, fmt.Errorf("parse xml: no document element")
	}
	return doc, nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
