package transport

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	// MCP serves the streamable MCP endpoint.
	MCP http.Handler
	// Auth guards the MCP endpoint when set.
	Auth func(http.Handler) http.Handler
	// Metrics serves the Prometheus scrape endpoint when set.
	Metrics http.Handler
	// Instrument wraps every route, typically with request metrics.
	Instrument func(http.Handler) http.Handler
	// Health reports extra fields for /health.
	Health func() map[string]any
	Logger *slog.Logger
}

// NewRouter creates the HTTP router with middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(logger))
	if cfg.Instrument != nil {
		r.Use(cfg.Instrument)
	}

	r.Get("/health", healthHandler(cfg.Health))
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	if cfg.MCP != nil {
		r.Group(func(r chi.Router) {
			if cfg.Auth != nil {
				r.Use(cfg.Auth)
			}
			r.Handle("/mcp", cfg.MCP)
		})
	}

	return r
}

func healthHandler(extra func() map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]any{"status": "ok"}
		if extra != nil {
			for k, v := range extra() {
				body[k] = v
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(body)
	}
}
