package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pagedao/hub-api/internal/ratelimit"
	"github.com/pagedao/hub-api/internal/telemetry"
	"github.com/pagedao/hub-api/pkg/contenthub"
	"github.com/pagedao/hub-api/pkg/contenthub/api"
	"github.com/pagedao/hub-api/pkg/contenthub/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .env first, then the process environment on top
	cfg, err := config.Load(config.WithDotEnv(""), config.WithEnv())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracing, err := telemetry.NewTracing(ctx, telemetry.TracingConfig{
		Exporter:     cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Tracer shutdown failed", "error", err)
		}
	}()

	metrics := telemetry.NewMetrics()
	hooks := contenthub.LoggingHook(logger)
	hooks.Merge(metrics.Hooks())

	rt, err := cfg.BuildService(ctx, logger,
		contenthub.WithHooks(hooks),
		contenthub.WithTracer(tracing.Tracer()),
	)
	if err != nil {
		return fmt.Errorf("failed to build service: %w", err)
	}
	defer rt.Close()

	router := api.NewRouter(api.RouterConfig{
		Service:        rt.Service,
		Logger:         logger,
		CacheMaxAge:    cfg.CacheMaxAge,
		RateLimiter:    ratelimit.New(cfg.RateLimitPerMinute),
		Metrics:        metrics,
		MetricsHandler: metrics.Handler(),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Content hub starting",
			"port", cfg.Port,
			"env", cfg.Environment,
			"registry_records", rt.Registry.Len(),
			"history_capacity", rt.History.Capacity(),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	if rt.Sampler != nil {
		rt.Sampler.OnSample(metrics.ObserveSample)
		g.Go(func() error {
			if err := rt.Sampler.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	} else {
		logger.Info("No price source configured, history sampling disabled")
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server exiting")
	return nil
}

func newLogger(cfg *config.ServerConfig) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts)), nil
}
