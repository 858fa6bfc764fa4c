package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/cassiomorais/courts/internal/infrastructure/config"
	"github.com/cassiomorais/courts/internal/infrastructure/observability"
	infraRedis "github.com/cassiomorais/courts/internal/infrastructure/redis"
	"github.com/cassiomorais/courts/internal/repository/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// App bundles the process-wide dependencies shared by the api and worker binaries.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Pool      *pgxpool.Pool
	Redis     *redis.Client
	TxManager *postgres.TxManager
	Metrics   *observability.Metrics
	Gatherer  prometheus.Gatherer

	tracer *sdktrace.TracerProvider
}

func New(ctx context.Context, serviceName string, metricsNamespace string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.InitLogger(serviceName, cfg.Observability.LogLevel, os.Stdout)
	logger.Info().Str("instance_id", cfg.InstanceID).Msg("Starting")

	app := &App{Config: cfg, Logger: logger}

	if cfg.Observability.EnableTracing {
		tp, err := observability.InitTracer(serviceName, cfg.Observability.JaegerEndpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		} else {
			app.tracer = tp
			logger.Info().Msg("Tracing enabled")
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.Metrics = observability.NewMetrics(metricsNamespace, registry)
	app.Gatherer = registry

	app.Pool, err = postgres.NewPool(ctx, &cfg.Database)
	if err != nil {
		app.shutdownTracer()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info().Msg("Connected to PostgreSQL")

	app.Redis, err = infraRedis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		app.Pool.Close()
		app.shutdownTracer()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info().Msg("Connected to Redis")

	app.TxManager = postgres.NewTxManager(app.Pool, postgres.WithLockTimeout(cfg.Database.LockTimeout))
	return app, nil
}

func (a *App) shutdownTracer() {
	if a.tracer == nil {
		return
	}
	if err := observability.Shutdown(context.Background(), a.tracer); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to flush traces")
	}
}

func (a *App) Close() {
	if err := a.Redis.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to close redis client")
	}
	a.Pool.Close()
	a.shutdownTracer()
}
