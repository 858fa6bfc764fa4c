package worker

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cassiomorais/courts/internal/domain/outbox"
	"github.com/cassiomorais/courts/internal/infrastructure/observability"
	infraRedis "github.com/cassiomorais/courts/internal/infrastructure/redis"
	"github.com/cassiomorais/courts/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStream = "bookings:events"

// fakeConsumer hands out queued batches and cancels the run once they are drained.
type fakeConsumer struct {
	mu      sync.Mutex
	stale   []infraRedis.Event
	batches [][]infraRedis.Event
	readErr error
	acked   []string
	drained context.CancelFunc
}

func (c *fakeConsumer) Read(ctx context.Context) ([]infraRedis.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		err := c.readErr
		c.readErr = nil
		return nil, err
	}
	if len(c.batches) == 0 {
		if c.drained != nil {
			c.drained()
		}
		return nil, nil
	}
	b := c.batches[0]
	c.batches = c.batches[1:]
	return b, nil
}

func (c *fakeConsumer) ClaimStale(ctx context.Context, minIdle time.Duration) ([]infraRedis.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stale
	c.stale = nil
	return s, nil
}

func (c *fakeConsumer) Ack(ctx context.Context, messageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acked = append(c.acked, messageID)
	return nil
}

func (c *fakeConsumer) Stream() string { return testStream }

func createdEvent(id string, userID float64) infraRedis.Event {
	return infraRedis.Event{
		ID:          id,
		EventID:     "evt-" + id,
		AggregateID: "7",
		EventType:   outbox.EventBookingCreated,
		Payload: map[string]any{
			"booking_id":  float64(7),
			"user_id":     userID,
			"status":      "confirmed",
			"total_price": "25.50",
			"slot_ids":    []any{float64(1), float64(2)},
		},
	}
}

func setupNotifier(t *testing.T, consumer EventConsumer) (*Notifier, *bytes.Buffer, *observability.Metrics, int64) {
	t.Helper()
	users := testutil.NewMockUserRepository()
	u := testutil.NewTestUser("ana@example.com")
	require.NoError(t, users.Create(context.Background(), u))

	var buf bytes.Buffer
	metrics := observability.NewMetrics("test", prometheus.NewRegistry())
	n := NewNotifier(consumer, users, time.Minute, zerolog.New(&buf), metrics)
	return n, &buf, metrics, u.ID
}

func TestNotifier_HandleCreated(t *testing.T) {
	n, buf, _, userID := setupNotifier(t, &fakeConsumer{})

	require.NoError(t, n.Handle(context.Background(), createdEvent("1-0", float64(userID))))
	out := buf.String()
	assert.Contains(t, out, "Notified customer of new booking")
	assert.Contains(t, out, `"email":"ana@example.com"`)
	assert.Contains(t, out, `"total_price":"25.50"`)
	assert.Contains(t, out, `"booking_id":"7"`)
}

func TestNotifier_HandleStatusChanged(t *testing.T) {
	n, buf, _, userID := setupNotifier(t, &fakeConsumer{})

	ev := infraRedis.Event{
		ID:          "2-0",
		AggregateID: "7",
		EventType:   outbox.EventBookingStatusChanged,
		Payload: map[string]any{
			"user_id":        float64(userID),
			"from":           "confirmed",
			"to":             "cancelled",
			"released_slots": []any{float64(1)},
		},
	}
	require.NoError(t, n.Handle(context.Background(), ev))
	out := buf.String()
	assert.Contains(t, out, "Notified customer of booking status change")
	assert.Contains(t, out, `"to":"cancelled"`)
}

func TestNotifier_HandleEdgeCases(t *testing.T) {
	n, buf, _, _ := setupNotifier(t, &fakeConsumer{})
	ctx := context.Background()

	// Unknown event types are skipped.
	require.NoError(t, n.Handle(ctx, infraRedis.Event{ID: "1-0", EventType: "court.created"}))

	// Missing recipient is logged, not failed.
	require.NoError(t, n.Handle(ctx, createdEvent("2-0", 999)))
	assert.Contains(t, buf.String(), "Notification recipient no longer exists")

	ev := createdEvent("3-0", 1)
	delete(ev.Payload, "user_id")
	assert.Error(t, n.Handle(ctx, ev))
}

func TestNotifier_RunAcksEveryMessage(t *testing.T) {
	consumer := &fakeConsumer{readErr: errors.New("i/o timeout")}
	n, _, metrics, userID := setupNotifier(t, consumer)

	bad := createdEvent("3-0", float64(userID))
	delete(bad.Payload, "user_id")
	consumer.stale = []infraRedis.Event{createdEvent("1-0", float64(userID))}
	consumer.batches = [][]infraRedis.Event{
		{createdEvent("2-0", float64(userID)), bad},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	consumer.drained = cancel

	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("notifier did not stop")
	}

	assert.Equal(t, []string{"1-0", "2-0", "3-0"}, consumer.acked)
	assert.Equal(t, 2.0, promtest.ToFloat64(metrics.WorkerMessagesProcessed.WithLabelValues(testStream, "success")))
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.WorkerMessagesProcessed.WithLabelValues(testStream, "error")))
}

func TestPayloadInt(t *testing.T) {
	tests := []struct {
		in   any
		want int64
		ok   bool
	}{
		{float64(42), 42, true},
		{int64(7), 7, true},
		{"13", 13, true},
		{"abc", 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := payloadInt(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}
