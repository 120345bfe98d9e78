package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pagedao/hub-api/pkg/contenthub"
	histmemory "github.com/pagedao/hub-api/pkg/contenthub/history/memory"
	histpg "github.com/pagedao/hub-api/pkg/contenthub/history/postgres"
	"github.com/pagedao/hub-api/pkg/contenthub/registrysource"
	regfs "github.com/pagedao/hub-api/pkg/contenthub/registrysource/fs"
	regpg "github.com/pagedao/hub-api/pkg/contenthub/registrysource/postgres"
	regs3 "github.com/pagedao/hub-api/pkg/contenthub/registrysource/s3"
	"github.com/pagedao/hub-api/pkg/contenthub/tracker/gateway"
	"github.com/pagedao/hub-api/pkg/contenthub/tracker/memory"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:                 "8080",
		Environment:          "development",
		LogLevel:             "info",
		RegistryURL:          "memory",
		RegistryLoadTimeout:  30 * time.Second,
		HistoryCapacity:      contenthub.DefaultHistoryCapacity,
		SampleInterval:       contenthub.DefaultSampleInterval,
		ProbeTimeout:         contenthub.DefaultCallTimeout,
		ProbeParallelism:     1,
		AggregateConcurrency: contenthub.DefaultConcurrency,
		MaxTokens:            contenthub.DefaultMaxTokens,
		CacheMaxAge:          60,
		RateLimitPerMinute:   120,
		TracingExporter:      "none",
	}
}

// ServerConfig represents configuration for the content hub server and CLI
type ServerConfig struct {
	Port        string `env:"PORT"`
	Environment string `env:"ENVIRONMENT"` // development, production, testing
	LogLevel    string `env:"LOG_LEVEL"`

	// Registry: "memory", "file:///dir", "s3://bucket/prefix?region=", "postgres://..."
	RegistryURL         string        `env:"REGISTRY_URL"`
	RegistryLoadTimeout time.Duration `env:"REGISTRY_LOAD_TIMEOUT"`
	DBSchema            string        `env:"DB_SCHEMA"` // search_path for Postgres sessions

	// Trackers: exactly one of the two
	TrackerGatewayURL string `env:"TRACKER_GATEWAY_URL"`
	TrackerFixtures   string `env:"TRACKER_FIXTURES"`

	// History: "memory" or "postgres://..."
	HistoryDatabaseURL string        `env:"HISTORY_DATABASE_URL"`
	HistoryCapacity    int           `env:"HISTORY_CAPACITY"`
	SampleInterval     time.Duration `env:"HISTORY_SAMPLE_INTERVAL"`

	// Engine tuning
	ProbeTimeout         time.Duration `env:"PROBE_TIMEOUT"`
	ProbeParallelism     int           `env:"PROBE_PARALLELISM"`
	AggregateConcurrency int           `env:"AGGREGATE_CONCURRENCY"`
	MaxTokens            int           `env:"MAX_TOKENS"`

	// HTTP surface
	CacheMaxAge        int `env:"CACHE_MAX_AGE"`
	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE"`

	// Tracing: none, stdout, otlp
	TracingExporter string `env:"TRACING_EXPORTER"`
	OTLPEndpoint    string `env:"OTLP_ENDPOINT"`
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	if _, err := registryKind(c.RegistryURL); err != nil {
		return err
	}

	switch {
	case c.TrackerGatewayURL == "" && c.TrackerFixtures == "":
		// allowed for Load; BuildService reports it
	case c.TrackerGatewayURL != "" && c.TrackerFixtures != "":
		return errors.New("tracker_gateway_url and tracker_fixtures are mutually exclusive")
	}

	if !isMemory(c.HistoryDatabaseURL) && !isPostgres(c.HistoryDatabaseURL) {
		return fmt.Errorf("unsupported HISTORY_DATABASE_URL format: %s (use 'memory' or 'postgres://...')", c.HistoryDatabaseURL)
	}

	if c.HistoryCapacity <= 0 || c.ProbeParallelism <= 0 || c.AggregateConcurrency <= 0 || c.MaxTokens <= 0 {
		return errors.New("history_capacity, probe_parallelism, aggregate_concurrency and max_tokens must be positive")
	}
	if c.ProbeTimeout <= 0 {
		return errors.New("probe_timeout must be positive")
	}
	if c.CacheMaxAge < 0 || c.RateLimitPerMinute < 0 {
		return errors.New("cache_max_age and rate_limit_per_minute cannot be negative")
	}

	switch c.TracingExporter {
	case "none", "stdout":
	case "otlp":
		if c.OTLPEndpoint == "" {
			return errors.New("otlp_endpoint is required when tracing_exporter is 'otlp'")
		}
	default:
		return fmt.Errorf("tracing_exporter must be 'none', 'stdout' or 'otlp', got: %s", c.TracingExporter)
	}

	return nil
}

// SlogLevel parses LogLevel.
func (c *ServerConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Runtime is everything BuildService wires together. Close releases the
// database pools it opened.
type Runtime struct {
	Service  contenthub.Service
	Registry *contenthub.Registry
	History  contenthub.HistoryStore
	// Sampler is nil when no price source is configured
	Sampler *contenthub.HistorySampler

	pools map[string]*pgxpool.Pool
}

// Close releases every pool opened by BuildService.
func (r *Runtime) Close() {
	for _, pool := range r.pools {
		pool.Close()
	}
}

// BuildService creates a Service and its collaborators from the server
// configuration. options are applied after the configured ones.
func (c *ServerConfig) BuildService(ctx context.Context, logger *slog.Logger, options ...contenthub.Option) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{pools: make(map[string]*pgxpool.Pool)}
	fail := func(err error) (*Runtime, error) {
		rt.Close()
		return nil, err
	}

	registry, err := c.buildRegistry(ctx, rt, logger)
	if err != nil {
		return fail(fmt.Errorf("failed to build registry: %w", err))
	}
	rt.Registry = registry

	trackerOptions, prices, err := c.buildTrackers()
	if err != nil {
		return fail(fmt.Errorf("failed to build trackers: %w", err))
	}

	history, err := c.buildHistory(ctx, rt)
	if err != nil {
		return fail(fmt.Errorf("failed to build history store: %w", err))
	}
	rt.History = history
	if prices != nil {
		rt.Sampler = contenthub.NewHistorySampler(history, prices, c.SampleInterval, logger)
	}

	opts := []contenthub.Option{
		contenthub.WithRegistry(registry),
		contenthub.WithHistoryStore(history),
		contenthub.WithCallTimeout(c.ProbeTimeout),
		contenthub.WithProbeParallelism(c.ProbeParallelism),
		contenthub.WithConcurrency(c.AggregateConcurrency),
		contenthub.WithMaxTokens(c.MaxTokens),
		contenthub.WithLogger(logger),
	}
	opts = append(opts, trackerOptions...)
	opts = append(opts, options...)

	svc, err := contenthub.New(opts...)
	if err != nil {
		return fail(err)
	}
	rt.Service = svc
	return rt, nil
}

// buildRegistry loads the curated registry named by RegistryURL
func (c *ServerConfig) buildRegistry(ctx context.Context, rt *Runtime, logger *slog.Logger) (*contenthub.Registry, error) {
	kind, err := registryKind(c.RegistryURL)
	if err != nil {
		return nil, err
	}

	var src contenthub.RegistrySource
	switch kind {
	case "memory":
		return contenthub.NewRegistry(nil), nil
	case "fs":
		src, err = regfs.New(strings.TrimPrefix(c.RegistryURL, "file://"))
	case "s3":
		var s3cfg regs3.Config
		s3cfg, err = parseS3URL(c.RegistryURL)
		if err == nil {
			src, err = regs3.New(ctx, s3cfg)
		}
	case "postgres":
		var pool *pgxpool.Pool
		pool, err = c.pool(ctx, rt, c.RegistryURL)
		if err == nil {
			pg := regpg.NewWithPool(pool)
			if err = pg.Migrate(ctx); err == nil {
				src = pg
			}
		}
	}
	if err != nil {
		return nil, err
	}

	return registrysource.Load(ctx, src, c.RegistryLoadTimeout, logger)
}

// buildTrackers returns the tracker factory and directory options, plus a
// price source when the backend offers one
func (c *ServerConfig) buildTrackers() ([]contenthub.Option, contenthub.PriceSource, error) {
	var opts []contenthub.Option

	switch {
	case c.TrackerGatewayURL != "":
		client, err := gateway.NewClient(c.TrackerGatewayURL)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, contenthub.WithTrackerFactory(client))
		for _, d := range client.Directories(contenthub.SupportedChains...) {
			opts = append(opts, contenthub.WithAuthorDirectory(d), contenthub.WithCollectionDirectory(d))
		}
		return opts, client, nil

	case c.TrackerFixtures != "":
		f, err := memory.LoadFile(c.TrackerFixtures)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, contenthub.WithTrackerFactory(f))
		for _, d := range f.Directories(contenthub.SupportedChains...) {
			opts = append(opts, contenthub.WithAuthorDirectory(d), contenthub.WithCollectionDirectory(d))
		}
		return opts, nil, nil

	default:
		return nil, nil, errors.New("tracker_gateway_url or tracker_fixtures is required")
	}
}

// buildHistory creates the HistoryStore based on the configuration
func (c *ServerConfig) buildHistory(ctx context.Context, rt *Runtime) (contenthub.HistoryStore, error) {
	if isMemory(c.HistoryDatabaseURL) {
		return histmemory.New(c.HistoryCapacity), nil
	}
	pool, err := c.pool(ctx, rt, c.HistoryDatabaseURL)
	if err != nil {
		return nil, err
	}
	store := histpg.New(pool, c.HistoryCapacity)
	if err := store.Migrate(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// pool opens one pgx pool per distinct database URL
func (c *ServerConfig) pool(ctx context.Context, rt *Runtime, databaseURL string) (*pgxpool.Pool, error) {
	if pool, ok := rt.pools[databaseURL]; ok {
		return pool, nil
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	schema := c.DBSchema
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if schema == "" {
			return nil
		}
		_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
		return err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	rt.pools[databaseURL] = pool
	return pool, nil
}

func registryKind(raw string) (string, error) {
	switch {
	case isMemory(raw):
		return "memory", nil
	case strings.HasPrefix(raw, "file://"):
		if strings.TrimPrefix(raw, "file://") == "" {
			return "", errors.New("filesystem path cannot be empty in REGISTRY_URL")
		}
		return "fs", nil
	case strings.HasPrefix(raw, "s3://"):
		if _, err := parseS3URL(raw); err != nil {
			return "", err
		}
		return "s3", nil
	case isPostgres(raw):
		return "postgres", nil
	}
	return "", fmt.Errorf("unsupported REGISTRY_URL format: %s (use 'memory', 'file://...', 's3://...' or 'postgres://...')", raw)
}

// parseS3URL reads s3://bucket/prefix?region=us-east-1&endpoint=http://localhost:9000&path_style=true
func parseS3URL(raw string) (regs3.Config, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return regs3.Config{}, fmt.Errorf("invalid REGISTRY_URL: %w", err)
	}
	if u.Host == "" {
		return regs3.Config{}, errors.New("S3 bucket name cannot be empty in REGISTRY_URL")
	}
	q := u.Query()
	cfg := regs3.Config{
		Region:       q.Get("region"),
		Bucket:       u.Host,
		Prefix:       strings.Trim(u.Path, "/"),
		Endpoint:     q.Get("endpoint"),
		UsePathStyle: q.Get("path_style") == "true",
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	return cfg, nil
}

func isMemory(raw string) bool {
	return raw == "" || raw == "memory" || raw == "memory://"
}

func isPostgres(raw string) bool {
	return strings.HasPrefix(raw, "postgres://") || strings.HasPrefix(raw, "postgresql://")
}
