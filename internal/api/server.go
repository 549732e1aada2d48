package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/varianti/internal/config"
	"github.com/dgallion1/varianti/internal/edition"
	"github.com/dgallion1/varianti/internal/notes"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP API server for varianti.
type Server struct {
	router chi.Router
	svc    *edition.Service
	notes  *notes.Notes
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server. nts may be nil.
func NewServer(svc *edition.Service, nts *notes.Notes, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		svc:   svc,
		notes: nts,
		log:   log,
		cfg:   cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/witnesses", s.handleListWitnesses)
		r.Get("/timeline", s.handleTimeline)
		r.Get("/warnings", s.handleWarnings)

		r.Route("/witnesses/{id}", func(r chi.Router) {
			r.Get("/text", s.handleWitnessText)
			r.Get("/html", s.handleWitnessHTML)
			r.Get("/docx", s.handleWitnessDOCX)
		})
		r.Get("/view/{id}", s.handleView)
		r.Get("/compare", s.handleCompare)
		r.Get("/stats/render", s.handleRenderStats)

		// Authenticated endpoints.
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
			r.Post("/reload", s.handleReload)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
