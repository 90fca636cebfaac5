package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/sitegrade/api"
	"github.com/use-agent/sitegrade/auditors"
	"github.com/use-agent/sitegrade/browser"
	"github.com/use-agent/sitegrade/cache"
	"github.com/use-agent/sitegrade/config"
	"github.com/use-agent/sitegrade/crawler"
	"github.com/use-agent/sitegrade/detector"
	"github.com/use-agent/sitegrade/enrich"
	"github.com/use-agent/sitegrade/pipeline"
	"github.com/use-agent/sitegrade/progress"
	"github.com/use-agent/sitegrade/store"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("sitegrade starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxPages", cfg.Browser.MaxPages,
	)

	// ── 3. Browser pool (lazy launch on first acquire) ──────────────
	pool := browser.NewPool(cfg.Browser)
	defer pool.Close()

	// ── 4. Scan dependencies ────────────────────────────────────────
	fetcher := browser.NewFetcher()
	crawl := crawler.New(fetcher, cfg.Crawler)
	auditorSet := auditors.NewRemoteSet(cfg.Auditors, nil)
	det := detector.New(cfg.Detector)
	tracker := progress.NewTracker()
	st := store.New(nil)
	defer st.Close()
	cc := cache.New(cfg.Cache.MaxEntries)

	var enricher enrich.Enricher
	if cfg.Enrich.Enabled {
		enricher = enrich.NewClient(cfg.Enrich, nil)
	}

	runner := pipeline.NewRunner(cfg, crawl, pipeline.RodPool{Pool: pool},
		auditorSet, det, enricher, tracker, st)

	// ── 5. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(runner, pool, st, tracker, cc, cfg, startTime)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// pool.Close() runs via defer — drains the page pool and kills Chrome.
	slog.Info("sitegrade stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
