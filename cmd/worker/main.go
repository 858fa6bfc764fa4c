package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cassiomorais/courts/internal/bootstrap"
	infraRedis "github.com/cassiomorais/courts/internal/infrastructure/redis"
	"github.com/cassiomorais/courts/internal/repository/postgres"
	"github.com/cassiomorais/courts/internal/worker"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "courts-worker", "courts_worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	workerCfg := app.Config.Worker

	// --- Repositories ---
	outboxRepo := postgres.NewOutboxRepository(app.Pool)
	userRepo := postgres.NewUserRepository(app.Pool)
	idempotencyRepo := postgres.NewIdempotencyRepository(app.Pool)

	// --- Event stream ---
	producer := infraRedis.NewStreamProducer(app.Redis, workerCfg.EventStream)
	consumer := infraRedis.NewStreamConsumer(
		app.Redis,
		workerCfg.EventStream,
		workerCfg.ConsumerGroup,
		app.Config.InstanceID,
		workerCfg.BatchSize,
		workerCfg.BlockDuration,
	).WithLogger(app.Logger)
	if err := consumer.CreateGroup(ctx); err != nil {
		app.Logger.Error().Err(err).Msg("Failed to create consumer group")
	}

	relay := worker.NewOutboxRelay(app.TxManager, outboxRepo, producer, worker.RelayConfig{
		BatchSize:        int(workerCfg.BatchSize),
		PollInterval:     workerCfg.OutboxPollInterval,
		BreakerThreshold: workerCfg.BreakerThreshold,
		BreakerTimeout:   workerCfg.BreakerTimeout,
	}, app.Logger, app.Metrics)
	notifier := worker.NewNotifier(consumer, userRepo, workerCfg.ClaimMinIdle, app.Logger, app.Metrics)

	app.Logger.Info().
		Str("stream", consumer.Stream()).
		Str("group", workerCfg.ConsumerGroup).
		Str("consumer", app.Config.InstanceID).
		Msg("Worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	// 1. Outbox relay (polls the outbox table and publishes to the stream).
	g.Go(func() error { return relay.Run(gCtx) })

	// 2. Notifier (consumes booking events).
	g.Go(func() error { return notifier.Run(gCtx) })

	// 3. Expired idempotency keys.
	g.Go(func() error {
		return worker.RunIdempotencyCleanup(gCtx, idempotencyRepo, workerCfg.CleanupInterval, app.Logger)
	})

	// 4. Wait for shutdown signal.
	g.Go(func() error {
		select {
		case <-gCtx.Done():
			return gCtx.Err()
		case <-quit:
			app.Logger.Info().Msg("Shutting down worker...")
			cancel()
			return nil
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		app.Logger.Error().Err(err).Msg("Worker error")
	}
	app.Logger.Info().Msg("Worker exited")
}
