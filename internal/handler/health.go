// Package handler serves the agent health endpoint.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Schera-ole/hostagent/internal/agent"
	middlewareinternal "github.com/Schera-ole/hostagent/internal/middleware"
)

// staleIntervals is how many intervals may pass without a tick before the agent is unhealthy.
const staleIntervals = 3

// TickSource reports the most recent tick.
type TickSource interface {
	LastTick() (agent.TickReport, bool)
}

// Pinger checks the store connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status   string            `json:"status"`
	LastTick *agent.TickReport `json:"last_tick,omitempty"`
}

func Router(ticks TickSource, store Pinger, interval time.Duration, logger *zap.SugaredLogger) chi.Router {
	router := chi.NewRouter()
	router.Use(middlewareinternal.LoggingMiddleware(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(5 * time.Second))
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		HealthHandler(w, r, ticks, interval, time.Now())
	})
	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		PingDatabaseHandler(w, r, store, logger)
	})
	return router
}

// HealthHandler reports 200 while ticks keep completing and 503 once no tick
// has completed for staleIntervals intervals.
func HealthHandler(w http.ResponseWriter, r *http.Request, ticks TickSource, interval time.Duration, now time.Time) {
	response := healthResponse{Status: "ok"}
	status := http.StatusOK

	report, ok := ticks.LastTick()
	switch {
	case !ok:
		response.Status = "no tick completed"
		status = http.StatusServiceUnavailable
	case now.Sub(report.Timestamp.Add(report.Duration)) > staleIntervals*interval:
		response.Status = "stale"
		response.LastTick = &report
		status = http.StatusServiceUnavailable
	default:
		response.LastTick = &report
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func PingDatabaseHandler(w http.ResponseWriter, r *http.Request, store Pinger, logger *zap.SugaredLogger) {
	if err := store.Ping(r.Context()); err != nil {
		logger.Errorw("store ping failed", "error", err)
		http.Error(w, "Failed to connect to database: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
