package witness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dgallion1/varianti/internal/caldate"
	"github.com/dgallion1/varianti/internal/diag"
	"github.com/dgallion1/varianti/internal/doctree"
	"github.com/dgallion1/varianti/internal/schema"
)

// Witness is one declared historical source.
type Witness struct {
	ID      string       `json:"id"`
	Label   string       `json:"label"`
	Date    caldate.Date `json:"-"`
	HasDate bool         `json:"-"`
	Enabled bool         `json:"enabled"`
	// Order is the position of the declaration in the source document.
	Order int `json:"order"`
}

// DateString returns the attested date in source notation, or "".
func (w Witness) DateString() string {
	if !w.HasDate {
		return ""
	}
	return w.Date.String()
}

// Registry holds every witness declared by an edition. It is built once and
// read-only afterwards.
type Registry struct {
	all     []Witness // declaration order
	enabled []Witness // ascending by date
	byID    map[string]int
}

// Load reads every witness declaration in doc.
func Load(doc *doctree.Document, s schema.Schema) (*Registry, []diag.Warning) {
	r := &Registry{byID: make(map[string]int)}
	var warnings []diag.Warning

	for i, decl := range doctree.FindAll(doc.Root, s.Witness) {
		id, _ := decl.Attr(s.IDAttr)
		id = strings.TrimSpace(id)
		if id == "" {
			warnings = append(warnings, diag.Warning{
				Kind:    diag.MalformedWitnessDeclaration,
				Element: s.Witness,
				Message: fmt.Sprintf("witness declaration #%d has no %s", i+1, s.IDAttr),
			})
			continue
		}
		if _, dup := r.byID[id]; dup {
			warnings = append(warnings, diag.Warning{
				Kind:      diag.MalformedWitnessDeclaration,
				Element:   s.Witness,
				WitnessID: id,
				Message:   "duplicate witness id, keeping the first declaration",
			})
			continue
		}

		w := Witness{ID: id, Label: id, Order: i}
		dates := doctree.FindAll(decl, s.Date)
		switch len(dates) {
		case 0:
			warnings = append(warnings, diag.Warning{
				Kind:      diag.MalformedWitnessDeclaration,
				Element:   s.Witness,
				WitnessID: id,
				Message:   fmt.Sprintf("excluded: no %s", s.Date),
			})
		case 1:
			if label := strings.Join(strings.Fields(dates[0].TextContent()), " "); label != "" {
				w.Label = label
			}
			when, _ := dates[0].Attr(s.WhenAttr)
			d, err := caldate.Parse(when)
			if err != nil {
				warnings = append(warnings, diag.Warning{
					Kind:      diag.InvalidDateFormat,
					Element:   s.Date,
					WitnessID: id,
					Message:   fmt.Sprintf("excluded: %v", err),
				})
				break
			}
			w.Date = d
			w.HasDate = true
			w.Enabled = true
		default:
			warnings = append(warnings, diag.Warning{
				Kind:      diag.MalformedWitnessDeclaration,
				Element:   s.Witness,
				WitnessID: id,
				Message:   fmt.Sprintf("excluded: multiple %s elements (%d)", s.Date, len(dates)),
			})
		}

		r.byID[id] = len(r.all)
		r.all = append(r.all, w)
	}

	for _, w := range r.all {
		if w.Enabled {
			r.enabled = append(r.enabled, w)
		}
	}
	sort.SliceStable(r.enabled, func(i, j int) bool {
		return r.enabled[i].Date.Before(r.enabled[j].Date)
	})

	return r, warnings
}

// Enabled returns the selectable witnesses, oldest first.
func (r *Registry) Enabled() []Witness {
	return append([]Witness(nil), r.enabled...)
}

// All returns every recorded witness in declaration order, including
// disabled ones.
func (r *Registry) All() []Witness {
	return append([]Witness(nil), r.all...)
}

// Lookup returns the witness with the given id.
func (r *Registry) Lookup(id string) (Witness, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Witness{}, false
	}
	return r.all[i], true
}

// Resolve maps a witness-list token ("#A") to its witness.
func (r *Registry) Resolve(token string) (Witness, bool) {
	id, ok := doctree.RefID(token)
	if !ok {
		return Witness{}, false
	}
	return r.Lookup(id)
}

// Selectable reports whether id names an enabled witness.
func (r *Registry) Selectable(id string) bool {
	w, ok := r.Lookup(id)
	return ok && w.Enabled
}

// Default returns the first enabled witness, the initial selection.
func (r *Registry) Default() (Witness, bool) {
	if len(r.enabled) == 0 {
		return Witness{}, false
	}
	return r.enabled[0], true
}

// DefaultPair returns the oldest and newest enabled witnesses, the initial
// comparison. With a single witness both are the same.
func (r *Registry) DefaultPair() (Witness, Witness, bool) {
	if len(r.enabled) == 0 {
		return Witness{}, Witness{}, false
	}
	return r.enabled[0], r.enabled[len(r.enabled)-1], true
}
