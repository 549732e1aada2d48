package api

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/varianti/internal/compare"
)

// handleCompare diffs two witnesses. Missing ids default to the oldest and
// newest enabled witnesses.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	a, b := q.Get("a"), q.Get("b")
	if a == "" || b == "" {
		first, last, ok := s.svc.Snapshot().Registry.DefaultPair()
		if !ok {
			jsonError(w, "edition has no selectable witnesses", http.StatusNotFound)
			return
		}
		if a == "" {
			a = first.ID
		}
		if b == "" {
			b = last.ID
		}
	}

	format := q.Get("format")
	switch format {
	case "", "json", "html", "unified", "docx":
	default:
		jsonError(w, "format must be one of json, html, unified, docx", http.StatusBadRequest)
		return
	}

	c, err := s.svc.Compare(r.Context(), a, b)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	switch format {
	case "html":
		resp, err := diffHTML(c.Segments)
		if err != nil {
			s.serviceError(w, err)
			return
		}
		resp["a"], resp["b"], resp["summary"] = c.A, c.B, c.Summary
		writeJSON(w, resp)
	case "unified":
		out, err := s.svc.Unified(c)
		if err != nil {
			s.serviceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/x-diff; charset=utf-8")
		w.Write(out)
	case "docx":
		var buf bytes.Buffer
		if err := s.svc.WriteComparisonDOCX(r.Context(), &buf, a, b); err != nil {
			s.serviceError(w, err)
			return
		}
		w.Header().Set("Content-Type", docxContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+sanitizeFilename(a+"-"+b)+`.docx"`)
		w.Write(buf.Bytes())
	default:
		writeJSON(w, c)
	}
}

// diffHTML renders the merged diff and both sides of it.
func diffHTML(segs []compare.Segment) (map[string]any, error) {
	left, right := compare.Split(segs)
	out := make(map[string]any, 6)
	for key, part := range map[string][]compare.Segment{"merged": segs, "left": left, "right": right} {
		markup, err := compare.RenderHTML(part)
		if err != nil {
			return nil, err
		}
		out[key] = markup
	}
	return out, nil
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	name = strings.ReplaceAll(name, `"`, "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
