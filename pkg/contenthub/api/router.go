package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/pagedao/hub-api/pkg/contenthub"
)

// RateLimiter rejects requests over a limit. onLimited writes the rejection.
type RateLimiter interface {
	Middleware(onLimited func(w http.ResponseWriter, r *http.Request)) func(http.Handler) http.Handler
}

// RouterConfig holds everything NewRouter mounts.
type RouterConfig struct {
	Service contenthub.Service
	Logger  *slog.Logger

	// CacheMaxAge is the Cache-Control max-age in seconds
	CacheMaxAge int

	// RateLimiter guards the content routes; nil disables limiting
	RateLimiter RateLimiter

	// Metrics observes every request; MetricsHandler is served on /metrics
	Metrics        RequestObserver
	MetricsHandler http.Handler
}

// NewRouter assembles the public router: content routes under / plus
// /health and /metrics.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(RecoveryMiddleware(logger))
	if cfg.Metrics != nil {
		r.Use(MetricsMiddleware(cfg.Metrics))
	}
	r.Use(CORSMiddleware)
	r.Use(FrameMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "Route not found")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		records := 0
		if reg := cfg.Service.Registry(); reg != nil {
			records = reg.Len()
		}
		render.JSON(w, r, map[string]any{"status": "ok", "registryRecords": records})
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		if cfg.RateLimiter != nil {
			counter, _ := cfg.Metrics.(interface{ IncRateLimited() })
			r.Use(cfg.RateLimiter.Middleware(func(w http.ResponseWriter, r *http.Request) {
				if counter != nil {
					counter.IncRateLimited()
				}
				respondError(w, r, http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded. Please try again later.")
			}))
		}
		r.Use(CacheMiddleware(cfg.CacheMaxAge))
		r.Mount("/", NewHandler(cfg.Service, logger).Routes())
	})

	return r
}
