package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// WithEnv applies environment variable overrides.
//
// Server:
//
//	PORT, ENVIRONMENT, LOG_LEVEL
//
// Registry:
//
//	REGISTRY_URL - one of:
//	               - "memory" - empty registry (default)
//	               - "file:///path/to/registry" - <chain>.json / .yaml documents
//	               - "s3://bucket/prefix?region=us-east-1" - same documents in S3
//	               - "postgres://..." - content_registry table
//	REGISTRY_LOAD_TIMEOUT - how long startup retries the registry (default 30s)
//
// Trackers (one of):
//
//	TRACKER_GATEWAY_URL - remote tracker gateway base URL
//	TRACKER_FIXTURES - JSON/YAML fixture file
//
// History:
//
//	HISTORY_DATABASE_URL - "memory" (default) or "postgres://..."
//	HISTORY_CAPACITY, HISTORY_SAMPLE_INTERVAL
//
// Tuning:
//
//	PROBE_TIMEOUT, PROBE_PARALLELISM, AGGREGATE_CONCURRENCY, MAX_TOKENS,
//	CACHE_MAX_AGE, RATE_LIMIT_PER_MINUTE, TRACING_EXPORTER, OTLP_ENDPOINT
//
// Unset variables leave the current value alone.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return nil
	}
}

// WithDotEnv loads a .env file into the process environment before the
// following options run. A missing file is not an error. Variables that are
// already set win over the file.
func WithDotEnv(path string) Option {
	return func(c *ServerConfig) error {
		if path == "" {
			path = ".env"
		}
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		return nil
	}
}
