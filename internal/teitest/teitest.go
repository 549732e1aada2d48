// Package teitest holds edition fixtures shared by package tests.
package teitest

import (
	"strings"
	"testing"

	"github.com/dgallion1/varianti/internal/doctree"
	"github.com/dgallion1/varianti/internal/parser"
)

// Edition is a small TEI edition with three witnesses:
//   - A (1914) reads the whole poem,
//   - B (3-5-1914) starts at the second line's branch-point,
//   - C (1915) ends at the second line's branch-point.
//
// D has no date and E has two; both are declared but not selectable.
const Edition = `<?xml version="1.0" encoding="UTF-8"?>
<TEI xmlns="http://www.tei-c.org/ns/1.0">
  <teiHeader>
    <listWit>
      <witness xml:id="C"><date when="1915">Edizione 1915</date></witness>
      <witness xml:id="A"><date when="1914">Manoscritto 1914</date></witness>
      <witness xml:id="B"><date when="3-5-1914">Bozza maggio 1914</date></witness>
      <witness xml:id="D">Senza data</witness>
      <witness xml:id="E"><date when="1916">1916</date><date when="1917">1917</date></witness>
    </listWit>
  </teiHeader>
  <text>
    <body>
      <lg>
        <l n="1">La camera <app><lem>era</lem><rdg wit="#A">sembrava</rdg></app> buia</l>
        <l n="2">e il <app><lem>vento</lem><rdg wit="#B"><witStart wit="#B"/>fiato</rdg><rdg wit="#C"><witEnd wit="#C"/>soffio</rdg></app> taceva<note>nota editoriale</note></l>
        <l n="3">sul <app><lem>davanzale</lem><rdg wit="#A #C">balcone</rdg></app> <ptr target="#n1"/>spento</l>
      </lg>
    </body>
  </text>
</TEI>`

// Parse parses an XML fixture or fails the test.
func Parse(t testing.TB, src string) *doctree.Document {
	t.Helper()
	doc, err := (&parser.XMLParser{}).Parse(strings.NewReader(src), "fixture.xml")
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

// Wrap embeds body markup and witness declarations in a minimal TEI
// document. decls maps witness id to its when value; an empty value
// declares the witness without a date.
func Wrap(body string, decls ...[2]string) string {
	var b strings.Builder
	b.WriteString("<TEI><teiHeader><listWit>")
	for _, d := range decls {
		b.WriteString(`<witness xml:id="` + d[0] + `">`)
		if d[1] != "" {
			b.WriteString(`<date when="` + d[1] + `">` + d[1] + `</date>`)
		}
		b.WriteString("</witness>")
	}
	b.WriteString("</listWit></teiHeader><text><body>")
	b.WriteString(body)
	b.WriteString("</body></text></TEI>")
	return b.String()
}
