// Package edition serves a loaded critical edition.
//
// The parsed document, its witness registry and its diagnostics form an
// immutable Snapshot. A Service holds the current snapshot behind an atomic
// pointer, runs render passes against it, and swaps in a new snapshot when
// the source file is reloaded.
package edition

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/varianti/internal/diag"
	"github.com/dgallion1/varianti/internal/doctree"
	"github.com/dgallion1/varianti/internal/parser"
	"github.com/dgallion1/varianti/internal/schema"
	"github.com/dgallion1/varianti/internal/witness"
)

// Snapshot is one loaded version of the edition. Nothing in it is modified
// after Load returns.
type Snapshot struct {
	Doc      *doctree.Document
	Schema   schema.Schema
	Registry *witness.Registry
	Warnings []diag.Warning

	Source      string
	ContentHash string
	Generation  uint64
	LoadedAt    time.Time
}

// Load parses the edition at path.
func Load(path string, s schema.Schema, generation uint64) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read edition: %w", err)
	}
	snap, err := LoadReader(bytes.NewReader(data), filepath.Base(path), s, generation)
	if err != nil {
		return nil, err
	}
	snap.Source = path
	snap.ContentHash = ContentHashHex(data)
	return snap, nil
}

// LoadReader parses an edition from r. filename selects the parser.
func LoadReader(r io.Reader, filename string, s schema.Schema, generation uint64) (*Snapshot, error) {
	p, err := parser.ForFile(filename)
	if err != nil {
		return nil, err
	}
	doc, err := p.Parse(r, filename)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	reg, warnings := witness.Load(doc, s)
	warnings = append(warnings, witness.ValidateReferences(doc, reg, s)...)

	return &Snapshot{
		Doc:        doc,
		Schema:     s,
		Registry:   reg,
		Warnings:   warnings,
		Source:     filename,
		Generation: generation,
		LoadedAt:   time.Now(),
	}, nil
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
