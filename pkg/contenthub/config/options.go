package config

import (
	"fmt"
	"time"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithLogLevel sets the slog level name (debug, info, warn, error)
func WithLogLevel(level string) Option {
	return func(c *ServerConfig) error {
		c.LogLevel = level
		return nil
	}
}

// WithRegistryURL selects the registry source
func WithRegistryURL(u string) Option {
	return func(c *ServerConfig) error {
		if _, err := registryKind(u); err != nil {
			return err
		}
		c.RegistryURL = u
		return nil
	}
}

// WithTrackerGateway reads trackers from a remote gateway
func WithTrackerGateway(baseURL string) Option {
	return func(c *ServerConfig) error {
		if baseURL == "" {
			return fmt.Errorf("tracker gateway URL cannot be empty")
		}
		c.TrackerGatewayURL = baseURL
		c.TrackerFixtures = ""
		return nil
	}
}

// WithTrackerFixtures reads trackers from a fixture file
func WithTrackerFixtures(path string) Option {
	return func(c *ServerConfig) error {
		if path == "" {
			return fmt.Errorf("tracker fixtures path cannot be empty")
		}
		c.TrackerFixtures = path
		c.TrackerGatewayURL = ""
		return nil
	}
}

// WithHistory configures the history store and its capacity
func WithHistory(databaseURL string, capacity int) Option {
	return func(c *ServerConfig) error {
		if capacity <= 0 {
			return fmt.Errorf("history capacity must be positive, got: %d", capacity)
		}
		c.HistoryDatabaseURL = databaseURL
		c.HistoryCapacity = capacity
		return nil
	}
}

// WithProbing sets the per-call timeout and how many candidates are probed at once
func WithProbing(timeout time.Duration, parallelism int) Option {
	return func(c *ServerConfig) error {
		if timeout <= 0 || parallelism <= 0 {
			return fmt.Errorf("probe timeout and parallelism must be positive")
		}
		c.ProbeTimeout = timeout
		c.ProbeParallelism = parallelism
		return nil
	}
}

// WithTracing selects the span exporter
func WithTracing(exporter, endpoint string) Option {
	return func(c *ServerConfig) error {
		c.TracingExporter = exporter
		c.OTLPEndpoint = endpoint
		return nil
	}
}
