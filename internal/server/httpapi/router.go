package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"assignment_service/pkg/logging"
)

type RouterConfig struct {
	Handler  *AssignmentHandler
	Logger   *logging.Logger
	Observer RequestObserver
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(NewLoggingMiddleware(cfg.Logger))
	if cfg.Observer != nil {
		r.Use(NewMetricsMiddleware(cfg.Observer))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(NewIdentityMiddleware())
		cfg.Handler.RegisterRoutes(r)
	})
	return r
}
