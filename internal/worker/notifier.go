package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	domainErrors "github.com/cassiomorais/courts/internal/domain/errors"
	"github.com/cassiomorais/courts/internal/domain/outbox"
	"github.com/cassiomorais/courts/internal/domain/user"
	"github.com/cassiomorais/courts/internal/infrastructure/observability"
	infraRedis "github.com/cassiomorais/courts/internal/infrastructure/redis"
	"github.com/rs/zerolog"
)

// EventConsumer reads booking events from a consumer group.
type EventConsumer interface {
	Read(ctx context.Context) ([]infraRedis.Event, error)
	ClaimStale(ctx context.Context, minIdle time.Duration) ([]infraRedis.Event, error)
	Ack(ctx context.Context, messageID string) error
	Stream() string
}

// UserLookup resolves the recipient of a notification.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// Notifier tells customers about their bookings. Delivery is a structured
// log line per notification.
type Notifier struct {
	consumer     EventConsumer
	users        UserLookup
	claimMinIdle time.Duration
	logger       zerolog.Logger
	metrics      *observability.Metrics
}

func NewNotifier(consumer EventConsumer, users UserLookup, claimMinIdle time.Duration, logger zerolog.Logger, metrics *observability.Metrics) *Notifier {
	if claimMinIdle <= 0 {
		claimMinIdle = time.Minute
	}
	return &Notifier{
		consumer:     consumer,
		users:        users,
		claimMinIdle: claimMinIdle,
		logger:       logger.With().Str("component", "notifier").Logger(),
		metrics:      metrics,
	}
}

// Run claims messages a dead consumer left behind, then reads new ones until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	stale, err := n.consumer.ClaimStale(ctx, n.claimMinIdle)
	if err != nil {
		n.logger.Warn().Err(err).Msg("Failed to claim stale messages")
	}
	n.process(ctx, stale)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		events, err := n.consumer.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			n.logger.Error().Err(err).Msg("Failed to read from stream")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		n.process(ctx, events)
	}
}

func (n *Notifier) process(ctx context.Context, events []infraRedis.Event) {
	for _, ev := range events {
		start := time.Now()
		status := "success"
		if err := n.Handle(ctx, ev); err != nil {
			status = "error"
			n.logger.Error().Err(err).Str("message_id", ev.ID).Str("event_type", ev.EventType).Msg("Failed to handle event")
		}
		if n.metrics != nil {
			n.metrics.WorkerMessagesProcessed.WithLabelValues(n.consumer.Stream(), status).Inc()
			n.metrics.WorkerProcessingDuration.WithLabelValues(n.consumer.Stream()).Observe(time.Since(start).Seconds())
		}
		// A failed lookup is not retried; the event is acked either way.
		if err := n.consumer.Ack(ctx, ev.ID); err != nil {
			n.logger.Error().Err(err).Str("message_id", ev.ID).Msg("Failed to ack message")
		}
	}
}

// Handle sends the notification for one event. Unknown event types are ignored.
func (n *Notifier) Handle(ctx context.Context, ev infraRedis.Event) error {
	switch ev.EventType {
	case outbox.EventBookingCreated, outbox.EventBookingStatusChanged:
	default:
		n.logger.Debug().Str("event_type", ev.EventType).Msg("Ignoring event")
		return nil
	}

	userID, ok := payloadInt(ev.Payload["user_id"])
	if !ok {
		return errors.New("event has no user_id")
	}

	u, err := n.users.GetByID(ctx, userID)
	switch {
	case errors.Is(err, domainErrors.ErrUserNotFound):
		n.logger.Warn().Int64("user_id", userID).Str("booking_id", ev.AggregateID).Msg("Notification recipient no longer exists")
		return nil
	case err != nil:
		return err
	}

	log := n.logger.Info().
		Str("event_id", ev.EventID).
		Str("booking_id", ev.AggregateID).
		Int64("user_id", userID).
		Str("email", u.Email)

	if ev.EventType == outbox.EventBookingCreated {
		log.
			Interface("status", ev.Payload["status"]).
			Interface("total_price", ev.Payload["total_price"]).
			Interface("slot_ids", ev.Payload["slot_ids"]).
			Msg("Notified customer of new booking")
		return nil
	}

	log.
		Interface("from", ev.Payload["from"]).
		Interface("to", ev.Payload["to"]).
		Interface("released_slots", ev.Payload["released_slots"]).
		Msg("Notified customer of booking status change")
	return nil
}

// payloadInt reads an id that went through a JSON round trip.
func payloadInt(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		return int64(x), true
	case int64:
		return x, true
	case int:
		return int64(x), true
	case json.Number:
		i, err := x.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(x, 10, 64)
		return i, err == nil
	}
	return 0, false
}
