package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Schema names the TEI elements and attributes the edition is encoded with.
// The zero value is not usable; start from Default().
type Schema struct {
	Witness  string `yaml:"witness"`
	Date     string `yaml:"date"`
	App      string `yaml:"app"`
	Lem      string `yaml:"lem"`
	Rdg      string `yaml:"rdg"`
	WitStart string `yaml:"wit_start"`
	WitEnd   string `yaml:"wit_end"`
	// Header is the metadata container skipped by text and markup output.
	// Empty means the whole document is text.
	Header string `yaml:"header"`

	IDAttr   string `yaml:"id_attr"`
	WitAttr  string `yaml:"wit_attr"`
	WhenAttr string `yaml:"when_attr"`

	// LineTags are the line-level elements plain text is assembled from.
	LineTags []string `yaml:"line_tags"`
	// StripTags are annotation-only elements dropped from text output and
	// rendered as nothing in markup output.
	StripTags []string `yaml:"strip_tags"`
}

// Default returns the TEI P5 parallel-segmentation vocabulary.
func Default() Schema {
	return Schema{
		Witness:   "witness",
		Date:      "date",
		App:       "app",
		Lem:       "lem",
		Rdg:       "rdg",
		WitStart:  "witStart",
		WitEnd:    "witEnd",
		Header:    "teiHeader",
		IDAttr:    "xml:id",
		WitAttr:   "wit",
		WhenAttr:  "when",
		LineTags:  []string{"l", "p", "head"},
		StripTags: []string{"note", "ptr"},
	}
}

// LoadFile reads a YAML override file. Keys absent from the file keep their
// default values.
func LoadFile(path string) (Schema, error) {
	s := Default()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read schema: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse schema %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("schema %s: %w", path, err)
	}
	return s, nil
}

// Validate reports the first empty element or attribute name.
func (s Schema) Validate() error {
	fields := []struct{ key, val string }{
		{"witness", s.Witness},
		{"date", s.Date},
		{"app", s.App},
		{"lem", s.Lem},
		{"rdg", s.Rdg},
		{"wit_start", s.WitStart},
		{"wit_end", s.WitEnd},
		{"id_attr", s.IDAttr},
		{"wit_attr", s.WitAttr},
		{"when_attr", s.WhenAttr},
	}
	for _, f := range fields {
		if f.val == "" {
			return fmt.Errorf("%s must not be empty", f.key)
		}
	}
	if s.Lem == s.Rdg {
		return fmt.Errorf("lem and rdg must differ (both %q)", s.Lem)
	}
	return nil
}

// IsLine reports whether tag is a line-level element.
func (s Schema) IsLine(tag string) bool {
	return contains(s.LineTags, tag)
}

// IsStripped reports whether tag is annotation-only.
func (s Schema) IsStripped(tag string) bool {
	return contains(s.StripTags, tag)
}

// IsHeader reports whether tag is the metadata container.
func (s Schema) IsHeader(tag string) bool {
	return s.Header != "" && tag == s.Header
}

// IsMarker reports whether tag is a witness boundary marker.
func (s Schema) IsMarker(tag string) bool {
	return tag == s.WitStart || tag == s.WitEnd
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
