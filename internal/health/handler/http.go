// Package handler serves readiness checks for load balancers and Kubernetes.
package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

const checkTimeout = 2 * time.Second

// Checker probes a single dependency; non-nil error means unhealthy.
type Checker func(ctx context.Context) error

// Handler serves GET /health, running each registered dependency check.
type Handler struct {
	checks map[string]Checker
}

// NewHandler returns a Handler with the given named dependency checks.
// Nil checkers are skipped so callers can pass optional dependencies directly.
func NewHandler(checks map[string]Checker) *Handler {
	filtered := make(map[string]Checker, len(checks))
	for name, check := range checks {
		if check != nil {
			filtered[name] = check
		}
	}
	return &Handler{checks: filtered}
}

// Register mounts the health route on the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
}

// Health runs all checks and reports per-dependency status. Any failing
// check makes the response 503.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			log.Printf("health: %s: %v", name, err)
			results[name] = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]interface{}{
		"status": "ok",
		"checks": results,
	}
	if status != http.StatusOK {
		body["status"] = "unhealthy"
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("health: write response: %v", err)
	}
}
