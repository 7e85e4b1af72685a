package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/willcldrr/scalexotics-sub002/internal/http/handlers"
	httpmiddleware "github.com/willcldrr/scalexotics-sub002/internal/http/middleware"
	"github.com/willcldrr/scalexotics-sub002/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	SMSWebhook     *handlers.SMSWebhookHandler
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.SMSWebhook != nil {
		r.Post("/webhooks/sms/{tenantID}", cfg.SMSWebhook.HandleInbound)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
