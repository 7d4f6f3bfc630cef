// Package httptransport assembles the chi router. Handlers stay in their
// feature packages; this layer only mounts them behind the shared middleware
// chain and the auth boundary.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"herdwatch/internal/alert"
	"herdwatch/internal/animal"
	"herdwatch/internal/auth"
	"herdwatch/internal/disease"
	"herdwatch/internal/farm"
	"herdwatch/internal/milk"
	"herdwatch/internal/platform/metrics"
	"herdwatch/internal/platform/middleware"
	"herdwatch/internal/prediction"
	"herdwatch/internal/report"
)

// Handlers collects the feature handlers mounted on the router.
type Handlers struct {
	Auth       *auth.Handler
	Farm       *farm.Handler
	Animal     *animal.Handler
	Milk       *milk.Handler
	Disease    *disease.Handler
	Alert      *alert.Handler
	Report     *report.Handler
	Prediction *prediction.Handler
}

// NewRouter builds the full route tree. Everything under /api except the
// login and registration endpoints requires a valid bearer token.
func NewRouter(h Handlers, validator middleware.TokenValidator, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(public chi.Router) {
		// Registration is public but widens for authenticated admins, so the
		// public group carries optional auth rather than none.
		public.Use(middleware.OptionalAuth(validator, logger))
		h.Auth.RegisterPublic(public)
	})

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth(validator, logger))
		h.Auth.RegisterProtected(protected)
		h.Farm.Register(protected)
		h.Animal.Register(protected)
		h.Milk.Register(protected)
		h.Disease.Register(protected)
		h.Alert.Register(protected)
		h.Report.Register(protected)
		h.Prediction.Register(protected)
	})

	return r
}
