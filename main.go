package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := NewAPIConfig(os.Stdout)
	if err != nil {
		slog.Error("configuration failed", "error", err)
		os.Exit(1)
	}
	cfg.logger.Debug("configuration loaded")

	scheduler := NewScheduler(cfg, cfg.sessionSweepInterval)
	cfg.logger.Info(
		"starting scheduler",
		"sweep", cfg.sessionSweepInterval.String(),
		"idle_timeout", cfg.sessionIdleTimeout.String(),
	)
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              ":" + cfg.port,
		Handler:           newRouter(cfg, scheduler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		cfg.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			cfg.logger.Error("server shutdown failed", "error", err)
		}
	}()

	cfg.logger.Info("starting server", "port", cfg.port, "location_source", cfg.locationSource)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		cfg.logger.Error("server startup failed", "error", err)
		os.Exit(1)
	}
}

// newRouter registers every route and wraps the mux in the middleware chain.
func newRouter(cfg *apiConfig, scheduler *Scheduler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/sessions", cfg.handlerCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", cfg.handlerGetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", cfg.handlerDeleteSession)
	mux.HandleFunc("POST /api/sessions/{id}/location", cfg.handlerLocate)
	mux.HandleFunc("POST /api/sessions/{id}/position", cfg.handlerReportPosition)
	mux.HandleFunc("POST /api/sessions/{id}/weather", cfg.handlerSelectLocation)
	mux.HandleFunc("GET /api/sessions/{id}/search", cfg.handlerSearch)
	mux.HandleFunc("POST /api/sessions/{id}/retry", cfg.handlerRetry)
	mux.HandleFunc("POST /api/sessions/{id}/clear-error", cfg.handlerClearError)
	mux.HandleFunc("GET /api/config", cfg.handlerConfig)
	mux.HandleFunc("GET /healthz", cfg.handlerHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	if cfg.devMode && scheduler != nil {
		cfg.logger.Debug("development mode enabled. Registering /dev/runschedulerjobs endpoint.")
		mux.HandleFunc("POST /dev/runschedulerjobs", scheduler.handlerRunSchedulerJobs)
	}

	return corsMiddleware(metricsMiddleware(mux))
}
