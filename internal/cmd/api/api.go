// Package api parses API command flags and composes the service entrypoint.
package api

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	entrypoint "github.com/louisbranch/roomrant/internal/platform/cmd"
	"github.com/louisbranch/roomrant/internal/platform/logging"
	server "github.com/louisbranch/roomrant/internal/services/api/app"
)

// Config holds API command configuration.
type Config struct {
	HTTPAddr      string        `env:"ROOMRANT_HTTP_ADDR"        envDefault:":8000"`
	CatalogPath   string        `env:"ROOMRANT_CATALOG_PATH"`
	QueueCapacity int           `env:"ROOMRANT_QUEUE_CAPACITY"   envDefault:"64"`
	Keepalive     time.Duration `env:"ROOMRANT_STREAM_KEEPALIVE" envDefault:"30s"`
	RateLimit     float64       `env:"ROOMRANT_RATE_LIMIT"       envDefault:"0"`
	LogLevel      string        `env:"ROOMRANT_LOG_LEVEL"        envDefault:"info"`
	LogJSON       bool          `env:"ROOMRANT_LOG_JSON"         envDefault:"false"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "API HTTP listen address")
	fs.StringVar(&cfg.CatalogPath, "catalog-path", cfg.CatalogPath, "YAML room catalog path (empty for builtin rooms)")
	fs.IntVar(&cfg.QueueCapacity, "queue-capacity", cfg.QueueCapacity, "per-stream event queue capacity")
	fs.DurationVar(&cfg.Keepalive, "keepalive", cfg.Keepalive, "stream keepalive ping interval")
	fs.Float64Var(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "requests per second per client IP (0 disables)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (trace, debug, info, warn, error)")
	fs.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "emit JSON log lines instead of console output")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the API app and serves until the context ends.
func Run(ctx context.Context, cfg Config) error {
	logger := logging.New(os.Stdout, cfg.LogLevel, !cfg.LogJSON)
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceAPI, func(context.Context) error {
		if err := server.Run(ctx, server.Config{
			HTTPAddr:      cfg.HTTPAddr,
			CatalogPath:   cfg.CatalogPath,
			QueueCapacity: cfg.QueueCapacity,
			Keepalive:     cfg.Keepalive,
			RateLimit:     cfg.RateLimit,
			Logger:        logger,
		}); err != nil {
			return fmt.Errorf("run api service: %w", err)
		}
		return nil
	})
}
