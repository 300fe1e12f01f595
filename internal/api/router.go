package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/privacyops/footprint/internal/pipeline"
	"github.com/privacyops/footprint/internal/removers"
	"github.com/privacyops/footprint/internal/schedule"
	"github.com/privacyops/footprint/internal/store"
)

// RouterConfig holds all dependencies needed to build the HTTP router.
// It is populated in main.go after all components are initialized and
// passed to NewRouter as a single struct to keep the constructor signature
// manageable as the number of dependencies grows.
type RouterConfig struct {
	Stores       *store.Stores
	Scheduler    *schedule.Scheduler
	Pipeline     *pipeline.Pipeline
	Orchestrator *removers.Orchestrator
	Logger       *zap.Logger
}

// NewRouter builds and returns the fully configured Chi router.
// All resource routes are registered under /api/v1; /metrics and /healthz
// sit at the root.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// RequestID generates a unique ID for each request, used in logs and
	// response headers for tracing.
	r.Use(middleware.RequestID)

	// RealIP extracts the real client IP from X-Forwarded-For or X-Real-IP
	// headers when the server runs behind a reverse proxy.
	r.Use(middleware.RealIP)

	// RequestLogger logs every request with method, path, status and latency.
	r.Use(RequestLogger(cfg.Logger))

	// Recoverer catches panics in handlers, logs them, and returns a 500
	// instead of crashing the server.
	r.Use(middleware.Recoverer)

	personHandler := NewPersonHandler(cfg.Stores, cfg.Pipeline, cfg.Logger)
	brokerHandler := NewBrokerHandler(cfg.Stores.Brokers, cfg.Logger)
	removalHandler := NewRemovalHandler(cfg.Orchestrator, cfg.Logger)
	scheduleHandler := NewScheduleHandler(cfg.Scheduler, cfg.Logger)
	statusHandler := NewStatusHandler(cfg.Stores, cfg.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", statusHandler.Get)

		r.Get("/persons", personHandler.List)
		r.Post("/persons", personHandler.Create)
		r.Get("/persons/{id}", personHandler.GetByID)
		r.Patch("/persons/{id}", personHandler.Update)
		r.Post("/persons/{id}/protect", personHandler.Protect)
		r.Get("/persons/{id}/removals", removalHandler.StatusByPerson)

		r.Get("/brokers", brokerHandler.List)
		r.Get("/brokers/stats", brokerHandler.Stats)
		r.Get("/brokers/{slug}", brokerHandler.GetBySlug)

		r.Post("/removals", removalHandler.Submit)

		r.Get("/schedule", scheduleHandler.Status)
		r.Post("/schedule/run", scheduleHandler.Run)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		JSON(w, http.StatusOK, envelope{"status": "ok"})
	})

	return r
}
