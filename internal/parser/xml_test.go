package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/varianti/internal/doctree"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<!-- prologue comment -->
<TEI xmlns="http://www.tei-c.org/ns/1.0">
  <teiHeader>
    <listWit>
      <witness xml:id="A"><date when="1914">1914</date></witness>
    </listWit>
  </teiHeader>
  <text><body>
    <l>Nel <app><lem>mezzo</lem><rdg wit="#A">cuore</rdg></app> del cammin &amp; oltre</l>
  </body></text>
</TEI>`

func TestXMLParser_BuildsTree(t *testing.T) {
	p := &XMLParser{}
	doc, err := p.Parse(strings.NewReader(sample), "inferno.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "inferno" {
		t.Errorf("expected title %q, got %q", "inferno", doc.Title)
	}
	if doc.Root.Tag != "TEI" {
		t.Fatalf("expected root TEI, got %q", doc.Root.Tag)
	}
	if v, _ := doc.Root.Attr("xmlns"); v != "http://www.tei-c.org/ns/1.0" {
		t.Errorf("expected default namespace attribute to be kept, got %q", v)
	}

	wits := doctree.FindAll(doc.Root, "witness")
	if len(wits) != 1 {
		t.Fatalf("expected 1 witness, got %d", len(wits))
	}
	if id, ok := wits[0].Attr("xml:id"); !ok || id != "A" {
		t.Errorf("expected xml:id=A, got %q (found=%v)", id, ok)
	}

	lines := doctree.FindAll(doc.Root, "l")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if got := lines[0].TextContent(); got != "Nel mezzocuore del cammin & oltre" {
		t.Errorf("unexpected line text %q", got)
	}
}

func TestXMLParser_MergesTextAroundComments(t *testing.T) {
	p := &XMLParser{}
	doc, err := p.Parse(strings.NewReader(`<l>one <!-- x -->two</l>`), "c.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Root.Children) != 1 {
		t.Fatalf("expected comment-split text to merge, got %d children", len(doc.Root.Children))
	}
	if doc.Root.Children[0].Text != "one two" {
		t.Errorf("unexpected text %q", doc.Root.Children[0].Text)
	}
}

func TestXMLParser_Errors(t *testing.T) {
	cases := map[string]string{
		"mismatched": `<a><b></a></b>`,
		"unclosed":   `<a><b></b>`,
		"empty":      ``,
		"two roots":  `<a/><b/>`,
	}
	p := &XMLParser{}
	for name, input := range cases {
		if _, err := p.Parse(strings.NewReader(input), "bad.xml"); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestForFile(t *testing.T) {
	for _, name := range []string{"a.xml", "B.TEI"} {
		if _, err := ForFile(name); err != nil {
			t.Errorf("ForFile(%q): unexpected error %v", name, err)
		}
		if !IsSupportedExtension(name) {
			t.Errorf("IsSupportedExtension(%q) = false", name)
		}
	}
	if _, err := ForFile("notes.md"); err == nil {
		t.Error("expected error for .md")
	}
}
