// Package bootstrap wires the process-wide runtime shared by the commands:
// logger, tracing, database and Redis.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"recipebox/internal/cache"
	"recipebox/internal/config"
	"recipebox/internal/database"
	"recipebox/internal/middleware"
	"recipebox/internal/observability"
	"recipebox/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "recipebox-api"

// Options control runtime initialization behavior.
type Options struct {
	// Migrate forces a schema migration. Outside production Connect
	// already migrates.
	Migrate bool
	// FixturePath applies a YAML seed fixture after connecting.
	FixturePath string
}

// Runtime is what InitRuntime established.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client

	shutdownTracing func(context.Context) error
}

// InitRuntime configures logging and tracing, connects to the database and
// Redis, and applies the requested schema and fixture steps.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	middleware.InitLogger(cfg.Env, cfg.LogLevel)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if opts.Migrate && cfg.IsProduction() {
		if err := database.Migrate(db); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		middleware.Logger.Info("Database migration completed")
	}

	// Redis may be nil if unreachable; the API runs without cache then.
	cache.InitRedis(cfg.RedisURL)

	if opts.FixturePath != "" {
		fx, err := seed.LoadFixtureFile(opts.FixturePath)
		if err != nil {
			return nil, fmt.Errorf("load fixture: %w", err)
		}
		if _, err := seed.NewSeeder(db, seed.Options{}).ApplyFixture(context.Background(), fx); err != nil {
			return nil, fmt.Errorf("apply fixture: %w", err)
		}
		middleware.Logger.Info("fixture applied", slog.String("path", opts.FixturePath))
	}

	return &Runtime{DB: db, Redis: cache.GetClient(), shutdownTracing: shutdownTracing}, nil
}

// Close flushes pending spans. The server closes DB and Redis itself.
func (r *Runtime) Close(ctx context.Context) error {
	if r.shutdownTracing == nil {
		return nil
	}
	return r.shutdownTracing(ctx)
}
