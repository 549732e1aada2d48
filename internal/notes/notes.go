// Package notes renders the editor's notes that accompany an edition.
//
// Notes are Markdown. They are rendered to HTML for the index page, and
// their headings are collected into an outline used as a table of contents.
package notes

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Section is one heading of the outline.
type Section struct {
	Title    string     `json:"title"`
	ID       string     `json:"id"`
	Level    int        `json:"level"`
	Children []*Section `json:"children,omitempty"`
}

// Notes is a rendered notes document.
type Notes struct {
	Title   string     `json:"title"`
	HTML    string     `json:"html"`
	Outline []*Section `json:"outline"`
}

var md = goldmark.New(goldmark.WithParserOptions(parser.WithAutoHeadingID()))

// Load reads and renders a notes file.
func Load(path string) (*Notes, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read notes: %w", err)
	}
	return Parse(src, filepath.Base(path))
}

// Parse renders Markdown source. The title is the first top-level heading,
// or the file name without extension when there is none.
func Parse(src []byte, filename string) (*Notes, error) {
	doc := md.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, src, doc); err != nil {
		return nil, fmt.Errorf("render notes: %w", err)
	}

	n := &Notes{
		Title: strings.TrimSuffix(strings.TrimSuffix(filename, ".md"), ".markdown"),
		HTML:  buf.String(),
	}

	type stackEntry struct {
		node  *Section
		level int
	}
	root := &Section{}
	stack := []stackEntry{{node: root, level: 0}}
	titled := false

	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		h, ok := c.(*ast.Heading)
		if !ok {
			continue
		}
		sec := &Section{Title: string(h.Text(src)), Level: h.Level}
		if id, ok := h.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				sec.ID = string(b)
			}
		}
		if h.Level == 1 && !titled {
			n.Title = sec.Title
			titled = true
		}

		for len(stack) > 1 && stack[len(stack)-1].level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].node
		parent.Children = append(parent.Children, sec)
		stack = append(stack, stackEntry{node: sec, level: h.Level})
	}
	n.Outline = root.Children
	return n, nil
}
