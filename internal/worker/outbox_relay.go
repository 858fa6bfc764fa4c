package worker

import (
	"context"
	"errors"
	"time"

	"github.com/cassiomorais/courts/internal/domain/outbox"
	"github.com/cassiomorais/courts/internal/infrastructure/observability"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

const relayBreakerName = "outbox-relay"

// Publisher appends an event to the booking event stream.
type Publisher interface {
	Publish(ctx context.Context, eventID, aggregateID, eventType string, data map[string]any) (string, error)
}

// TransactionManager runs fn inside a store transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type RelayConfig struct {
	BatchSize        int
	PollInterval     time.Duration
	BreakerThreshold uint32
	BreakerTimeout   time.Duration
}

// OutboxRelay moves pending outbox entries onto the event stream.
// Publishing goes through a circuit breaker; while it is open entries stay pending.
type OutboxRelay struct {
	txManager TransactionManager
	outbox    outbox.Repository
	publisher Publisher
	breaker   *gobreaker.CircuitBreaker[string]
	cfg       RelayConfig
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

func NewOutboxRelay(
	txManager TransactionManager,
	outboxRepo outbox.Repository,
	publisher Publisher,
	cfg RelayConfig,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *OutboxRelay {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.BreakerThreshold == 0 {
		cfg.BreakerThreshold = 5
	}

	r := &OutboxRelay{
		txManager: txManager,
		outbox:    outboxRepo,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.With().Str("component", relayBreakerName).Logger(),
		metrics:   metrics,
	}

	threshold := cfg.BreakerThreshold
	r.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        relayBreakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
			if r.metrics != nil {
				r.metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})
	if metrics != nil {
		metrics.CircuitBreakerState.WithLabelValues(relayBreakerName).Set(float64(gobreaker.StateClosed))
	}
	return r
}

// BreakerState reports the current state of the publishing breaker.
func (r *OutboxRelay) BreakerState() gobreaker.State {
	return r.breaker.State()
}

// RunOnce relays one batch and returns how many entries were published.
func (r *OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	published := 0
	err := r.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		entries, err := r.outbox.GetPending(txCtx, r.cfg.BatchSize)
		if err != nil {
			return err
		}

		for _, entry := range entries {
			_, err := r.breaker.Execute(func() (string, error) {
				return r.publisher.Publish(ctx, entry.ID.String(), entry.AggregateID, entry.EventType, entry.Payload)
			})
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				r.record(entry.EventType, "rejected")
				r.logger.Debug().Str("outbox_id", entry.ID.String()).Msg("Breaker open, leaving batch pending")
				return nil
			}
			if err != nil {
				r.record(entry.EventType, "failed")
				r.logger.Error().Err(err).
					Str("outbox_id", entry.ID.String()).
					Str("event_type", entry.EventType).
					Msg("Failed to publish outbox entry")
				if err := r.outbox.MarkFailed(txCtx, entry.ID); err != nil {
					return err
				}
				continue
			}

			if err := r.outbox.MarkPublished(txCtx, entry.ID); err != nil {
				return err
			}
			r.record(entry.EventType, "published")
			published++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return published, nil
}

// Run polls the outbox until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		n, err := r.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Error().Err(err).Msg("Outbox relay error")
			continue
		}
		if n > 0 {
			r.logger.Debug().Int("published", n).Msg("Relayed outbox entries")
		}
	}
}

func (r *OutboxRelay) record(eventType, result string) {
	if r.metrics == nil {
		return
	}
	r.metrics.OutboxPublished.WithLabelValues(eventType, result).Inc()
	breakerResult := "success"
	if result != "published" {
		breakerResult = result
	}
	r.metrics.CircuitBreakerRequests.WithLabelValues(relayBreakerName, breakerResult).Inc()
}
