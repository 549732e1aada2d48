package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dgallion1/varianti/internal/diag"
	"github.com/dgallion1/varianti/internal/edition"
	"github.com/dgallion1/varianti/internal/render"
	"github.com/dgallion1/varianti/internal/witness"
	"github.com/go-chi/chi/v5"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// witnessJSON is a witness with its date spelled out.
type witnessJSON struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Date    string `json:"date,omitempty"`
	ISO     string `json:"iso,omitempty"`
	Enabled bool   `json:"enabled"`
	Order   int    `json:"order"`
}

func toJSON(ws []witness.Witness) []witnessJSON {
	out := make([]witnessJSON, 0, len(ws))
	for _, w := range ws {
		j := witnessJSON{ID: w.ID, Label: w.Label, Enabled: w.Enabled, Order: w.Order, Date: w.DateString()}
		if w.HasDate {
			j.ISO = w.Date.ISO()
		}
		out = append(out, j)
	}
	return out
}

func (s *Server) handleListWitnesses(w http.ResponseWriter, r *http.Request) {
	snap := s.svc.Snapshot()
	resp := map[string]any{
		"generation": snap.Generation,
		"witnesses":  toJSON(snap.Registry.Enabled()),
		"all":        toJSON(snap.Registry.All()),
	}
	if def, ok := snap.Registry.Default(); ok {
		resp["default"] = def.ID
	}
	writeJSON(w, resp)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.Snapshot().Registry.Timeline())
}

func (s *Server) handleWarnings(w http.ResponseWriter, r *http.Request) {
	snap := s.svc.Snapshot()
	ws := snap.Warnings
	if ws == nil {
		ws = []diag.Warning{}
	}
	writeJSON(w, map[string]any{
		"generation": snap.Generation,
		"warnings":   ws,
	})
}

func (s *Server) handleWitnessText(w http.ResponseWriter, r *http.Request) {
	force, ok := forceParam(w, r)
	if !ok {
		return
	}
	t, err := s.svc.Text(r.Context(), chi.URLParam(r, "id"), force)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "plain" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(t.Text))
		return
	}
	writeJSON(w, t)
}

func (s *Server) handleWitnessHTML(w http.ResponseWriter, r *http.Request) {
	force, ok := forceParam(w, r)
	if !ok {
		return
	}
	prefix := r.URL.Query().Get("prefix")
	if prefix != "" && !render.ValidPrefix(prefix) {
		jsonError(w, "prefix must be a letter followed by up to 31 letters, digits, '-' or '_'", http.StatusBadRequest)
		return
	}
	h, err := s.svc.HTML(r.Context(), chi.URLParam(r, "id"), force, prefix)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, h)
}

func (s *Server) handleWitnessDOCX(w http.ResponseWriter, r *http.Request) {
	force, ok := forceParam(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	// Render before writing headers so errors can still be reported as JSON.
	if _, err := s.svc.Text(r.Context(), id, force); err != nil {
		s.serviceError(w, err)
		return
	}
	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+sanitizeFilename(id)+`.docx"`)
	if err := s.svc.WriteWitnessDOCX(r.Context(), w, id, force); err != nil {
		s.log.Error("docx export failed", "witness", id, "error", err)
	}
}

// handleView renders a witness next to the base edition. Requests carrying
// a session id are ordered: a view superseded by a newer request of the
// same session while rendering is answered with 409.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	session := r.Header.Get("X-Varianti-Session")
	if session == "" {
		session = r.URL.Query().Get("session")
	}
	var (
		sel    *edition.Selector
		ticket edition.Ticket
	)
	if session != "" {
		sel = s.svc.Sessions().Selector(session)
		ticket = sel.Begin()
	}

	v, err := s.svc.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	if sel != nil && !sel.Current(ticket) {
		jsonError(w, "superseded by a newer selection", http.StatusConflict)
		return
	}
	writeJSON(w, v)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := s.svc.Reload(ctx); err != nil {
		if errors.Is(err, edition.ErrNoSource) {
			jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		jsonError(w, "reload failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	snap := s.svc.Snapshot()
	writeJSON(w, map[string]any{
		"generation":   snap.Generation,
		"content_hash": snap.ContentHash,
		"loaded_at":    snap.LoadedAt,
		"warnings":     len(snap.Warnings),
	})
}

func forceParam(w http.ResponseWriter, r *http.Request) (bool, bool) {
	v := r.URL.Query().Get("force")
	if v == "" {
		return false, true
	}
	force, err := strconv.ParseBool(v)
	if err != nil {
		jsonError(w, "force must be a boolean", http.StatusBadRequest)
		return false, false
	}
	return force, true
}

// serviceError maps edition errors to HTTP statuses.
func (s *Server) serviceError(w http.ResponseWriter, err error) {
	var uerr *edition.UnknownWitnessError
	switch {
	case errors.As(err, &uerr):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		jsonError(w, "request canceled", http.StatusServiceUnavailable)
	default:
		s.log.Error("render failed", "error", err)
		jsonError(w, "render failed: "+err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
