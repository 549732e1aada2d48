package diag

import (
	"fmt"
	"log/slog"
	"strings"
)

// Kind classifies a recoverable problem found in an edition.
type Kind string

const (
	MalformedWitnessDeclaration Kind = "malformed_witness_declaration"
	DanglingWitnessReference    Kind = "dangling_witness_reference"
	AmbiguousMarker             Kind = "ambiguous_marker"
	InvalidMarkerPlacement      Kind = "invalid_marker_placement"
	InvalidDateFormat           Kind = "invalid_date_format"
	AmbiguousReading            Kind = "ambiguous_reading"
	UnsupportedReadingNode      Kind = "unsupported_reading_node"
)

// Warning is a recoverable problem. Processing always continues after one.
type Warning struct {
	Kind      Kind   `json:"kind"`
	Element   string `json:"element,omitempty"`    // tag or marker kind the warning is about
	WitnessID string `json:"witness_id,omitempty"` // witness being loaded or projected
	Ref       string `json:"ref,omitempty"`        // offending witness-list token
	Message   string `json:"message"`
}

func (w Warning) Error() string {
	var b strings.Builder
	b.WriteString(string(w.Kind))
	if w.Element != "" {
		fmt.Fprintf(&b, " <%s>", w.Element)
	}
	if w.WitnessID != "" {
		fmt.Fprintf(&b, " witness=%s", w.WitnessID)
	}
	if w.Ref != "" {
		fmt.Fprintf(&b, " ref=%s", w.Ref)
	}
	b.WriteString(": ")
	b.WriteString(w.Message)
	return b.String()
}

// Report logs each warning at WARN level.
func Report(log *slog.Logger, ws []Warning) {
	for _, w := range ws {
		attrs := []any{"kind", string(w.Kind)}
		if w.Element != "" {
			attrs = append(attrs, "element", w.Element)
		}
		if w.WitnessID != "" {
			attrs = append(attrs, "witness", w.WitnessID)
		}
		if w.Ref != "" {
			attrs = append(attrs, "ref", w.Ref)
		}
		log.Warn(w.Message, attrs...)
	}
}

// Count returns how many warnings have the given kind.
func Count(ws []Warning, kind Kind) int {
	n := 0
	for _, w := range ws {
		if w.Kind == kind {
			n++
		}
	}
	return n
}
