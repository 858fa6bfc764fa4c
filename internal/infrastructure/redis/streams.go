package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// BookingEventStream is the default stream booking events are relayed to.
const BookingEventStream = "bookings:events"

// Event is one booking event as carried on the stream.
type Event struct {
	ID          string
	EventID     string
	AggregateID string
	EventType   string
	Payload     map[string]any
	Timestamp   time.Time
}

type StreamProducer struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewStreamProducer(client *redis.Client, stream string) *StreamProducer {
	if stream == "" {
		stream = BookingEventStream
	}
	return &StreamProducer{client: client, stream: stream, maxLen: 100000}
}

// Publish appends an event to the stream, trimming it approximately to maxLen.
func (p *StreamProducer) Publish(ctx context.Context, eventID, aggregateID, eventType string, data map[string]any) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event data: %w", err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"event_id":     eventID,
			"aggregate_id": aggregateID,
			"event_type":   eventType,
			"payload":      string(payload),
			"timestamp":    time.Now().Unix(),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish booking event: %w", err)
	}
	return id, nil
}

type StreamConsumer struct {
	client        *redis.Client
	stream        string
	group         string
	consumer      string
	batchSize     int64
	blockDuration time.Duration
	logger        zerolog.Logger
}

func NewStreamConsumer(
	client *redis.Client,
	stream string,
	group string,
	consumer string,
	batchSize int64,
	blockDuration time.Duration,
) *StreamConsumer {
	return &StreamConsumer{
		client:        client,
		stream:        stream,
		group:         group,
		consumer:      consumer,
		batchSize:     batchSize,
		blockDuration: blockDuration,
		logger:        zerolog.Nop(),
	}
}

// WithLogger sets the logger used for messages that are dropped.
func (c *StreamConsumer) WithLogger(logger zerolog.Logger) *StreamConsumer {
	c.logger = logger.With().Str("component", "stream_consumer").Str("stream", c.stream).Logger()
	return c
}

func (c *StreamConsumer) CreateGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

// Read blocks for up to the block duration and returns new events.
func (c *StreamConsumer) Read(ctx context.Context) ([]Event, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, ">"},
		Count:    c.batchSize,
		Block:    c.blockDuration,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from stream: %w", err)
	}

	var events []Event
	for _, s := range streams {
		events = c.decodeAll(ctx, s.Messages, events)
	}
	return events, nil
}

// ClaimStale takes over every message another consumer left pending for longer
// than minIdle, walking the pending list one batch at a time.
func (c *StreamConsumer) ClaimStale(ctx context.Context, minIdle time.Duration) ([]Event, error) {
	var events []Event
	start := "0-0"
	for {
		msgs, next, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   c.stream,
			Group:    c.group,
			Consumer: c.consumer,
			MinIdle:  minIdle,
			Start:    start,
			Count:    c.batchSize,
		}).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to claim messages: %w", err)
		}
		events = c.decodeAll(ctx, msgs, events)

		// Redis returns 0-0 once the whole pending list has been scanned.
		if next == "" || next == "0-0" || next == start {
			return events, nil
		}
		start = next
	}
}

// decodeAll appends the decodable messages to events. Messages that cannot be
// decoded are acked so they are not delivered again.
func (c *StreamConsumer) decodeAll(ctx context.Context, msgs []redis.XMessage, events []Event) []Event {
	for _, msg := range msgs {
		ev, err := decodeEvent(msg)
		if err == nil {
			events = append(events, ev)
			continue
		}
		c.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("dropping undecodable message")
		if ackErr := c.Ack(ctx, msg.ID); ackErr != nil {
			c.logger.Error().Err(ackErr).Str("message_id", msg.ID).Msg("failed to ack undecodable message")
		}
	}
	return events
}

func (c *StreamConsumer) Ack(ctx context.Context, messageID string) error {
	if err := c.client.XAck(ctx, c.stream, c.group, messageID).Err(); err != nil {
		return fmt.Errorf("failed to ack message: %w", err)
	}
	return nil
}

func (c *StreamConsumer) Stream() string {
	return c.stream
}

func decodeEvent(msg redis.XMessage) (Event, error) {
	ev := Event{ID: msg.ID}
	ev.EventID, _ = msg.Values["event_id"].(string)
	ev.AggregateID, _ = msg.Values["aggregate_id"].(string)
	ev.EventType, _ = msg.Values["event_type"].(string)
	if ev.EventType == "" {
		return Event{}, fmt.Errorf("message %s has no event_type", msg.ID)
	}

	if raw, ok := msg.Values["payload"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &ev.Payload); err != nil {
			return Event{}, fmt.Errorf("decode payload of %s: %w", msg.ID, err)
		}
	}
	if ts, ok := msg.Values["timestamp"].(string); ok {
		var sec int64
		if _, err := fmt.Sscan(ts, &sec); err == nil {
			ev.Timestamp = time.Unix(sec, 0).UTC()
		}
	}
	return ev, nil
}
