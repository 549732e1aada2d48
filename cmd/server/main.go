package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/varianti/internal/api"
	"github.com/dgallion1/varianti/internal/compare"
	"github.com/dgallion1/varianti/internal/config"
	"github.com/dgallion1/varianti/internal/edition"
	"github.com/dgallion1/varianti/internal/notes"
	"github.com/dgallion1/varianti/internal/schema"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := schema.LoadFile(cfg.SchemaPath)
	if err != nil {
		log.Error("schema not loaded", "error", err)
		os.Exit(1)
	}

	svc, err := edition.New(edition.Options{
		Source:      cfg.SourcePath,
		Schema:      s,
		CacheTTL:    cfg.CacheTTL,
		StatsWindow: cfg.StatsWindow,
		Diff:        compare.Options{MaxCells: cfg.MaxDiffCells},
	}, log)
	if err != nil {
		log.Error("edition not loaded", "source", cfg.SourcePath, "error", err)
		os.Exit(1)
	}
	go svc.Run(ctx)

	var nts *notes.Notes
	if cfg.NotesPath != "" {
		nts, err = notes.Load(cfg.NotesPath)
		if err != nil {
			// The index page still lists witnesses without notes.
			log.Warn("notes not loaded", "path", cfg.NotesPath, "error", err)
		}
	}

	var watcher *edition.Watcher
	if cfg.Watch {
		watcher, err = edition.NewWatcher(cfg.SourcePath, svc, cfg.WatchDebounce, log)
		if err != nil {
			log.Error("watcher not started", "error", err)
			os.Exit(1)
		}
		watcher.Start(ctx)
	}

	srv := api.NewServer(svc, nts, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		if watcher != nil {
			watcher.Stop()
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	snap := svc.Snapshot()
	log.Info("starting varianti",
		"port", cfg.Port,
		"source", cfg.SourcePath,
		"witnesses", len(snap.Registry.Enabled()),
		"warnings", len(snap.Warnings),
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
