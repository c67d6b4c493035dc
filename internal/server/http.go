// Package server assembles the HTTP router from handlers and middleware.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	healthhandler "digital-forms-platform/runner/internal/health/handler"
	payhandler "digital-forms-platform/runner/internal/pay/handler"
	payservice "digital-forms-platform/runner/internal/pay/service"
	"digital-forms-platform/runner/internal/server/middleware"
	sessionhandler "digital-forms-platform/runner/internal/session/handler"
	sessionservice "digital-forms-platform/runner/internal/session/service"
	"digital-forms-platform/runner/internal/telemetry/producer"
)

// Deps holds the services and optional collaborators the router needs.
type Deps struct {
	// Sessions backs POST /session/{formId} and GET /session/{token}.
	Sessions *sessionservice.SessionService
	// Pay backs the payment routes. If nil, the routes are not registered.
	Pay *payservice.PayService
	// HealthChecks are the named dependency probes for GET /health (e.g. db, cache, policy).
	HealthChecks map[string]healthhandler.Checker
	// Producer emits per-request telemetry events. May be nil.
	Producer producer.Producer
	// ServiceName names the service in traces.
	ServiceName string
}

// New builds the router: health and application routes with request logging,
// request telemetry, and OTel HTTP instrumentation.
func New(deps Deps) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogging())
	r.Use(middleware.RequestTelemetry(deps.Producer, map[string]bool{"/health": true}))

	healthhandler.NewHandler(deps.HealthChecks).Register(r)
	if deps.Sessions != nil {
		sessionhandler.NewHandler(deps.Sessions).Register(r)
	}
	if deps.Pay != nil {
		payhandler.NewHandler(deps.Pay).Register(r)
	}

	serviceName := deps.ServiceName
	if serviceName == "" {
		serviceName = "forms-runner"
	}
	return otelhttp.NewHandler(r, serviceName)
}
