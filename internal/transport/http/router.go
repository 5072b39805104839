// Package httptransport wires the HTTP surface of the access control
// service.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accesshandler "github.com/CarlosSantos19/parqueadero-app/internal/access/handler"
	directoryhandler "github.com/CarlosSantos19/parqueadero-app/internal/directory/handler"
	platehandler "github.com/CarlosSantos19/parqueadero-app/internal/plate/handler"
	"github.com/CarlosSantos19/parqueadero-app/internal/platform/health"
	"github.com/CarlosSantos19/parqueadero-app/internal/platform/middleware"
)

// Handlers groups the domain handlers mounted under /api.
type Handlers struct {
	Access      *accesshandler.Handler
	Directory   *directoryhandler.Handler
	Recognition *platehandler.Handler
	Health      *health.Handler
}

// NewRouter builds the service router. Gate terminals reach validation and
// QR checks without an operator token; everything that mutates the ledger
// or reads history sits behind auth.
func NewRouter(h Handlers, tokens middleware.TokenValidator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))

	if h.Health != nil {
		h.Health.Register(r)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)

		var public chi.Router = api
		protected := api.With(middleware.RequireAuth(tokens, logger))

		if h.Access != nil {
			h.Access.Register(public, protected)
		}
		if h.Directory != nil {
			h.Directory.Register(public, protected)
		}
		if h.Recognition != nil {
			h.Recognition.Register(protected)
		}
	})

	return r
}
