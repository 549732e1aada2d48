package witness

import (
	"fmt"

	"github.com/dgallion1/varianti/internal/diag"
	"github.com/dgallion1/varianti/internal/doctree"
	"github.com/dgallion1/varianti/internal/schema"
)

// ValidateReferences checks every witness list on boundary markers and
// witness readings. Each unresolved token yields one warning.
func ValidateReferences(doc *doctree.Document, r *Registry, s schema.Schema) []diag.Warning {
	var warnings []diag.Warning

	check := func(kind string, n *doctree.Node) {
		v, ok := n.Attr(s.WitAttr)
		if !ok {
			return
		}
		for _, tok := range doctree.WitnessList(v) {
			if _, found := r.Resolve(tok); found {
				continue
			}
			warnings = append(warnings, diag.Warning{
				Kind:    diag.DanglingWitnessReference,
				Element: n.Tag,
				Ref:     tok,
				Message: fmt.Sprintf("%s validation: unable to find witness %s", kind, tok),
			})
		}
	}

	doctree.Walk(doc.Root, func(n *doctree.Node) bool {
		if n.Kind != doctree.ElementNode {
			return false
		}
		switch n.Tag {
		case s.WitStart:
			check("start", n)
		case s.WitEnd:
			check("end", n)
		case s.Rdg:
			check("reading", n)
		}
		return true
	})
	return warnings
}
