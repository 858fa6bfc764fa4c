package redis

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	msg := redis.XMessage{
		ID: "1700000000000-0",
		Values: map[string]any{
			"event_id":     "9b2f",
			"aggregate_id": "42",
			"event_type":   "booking.created",
			"payload":      `{"user_id":1,"total_price":"25.50"}`,
			"timestamp":    "1700000000",
		},
	}

	ev, err := decodeEvent(msg)
	require.NoError(t, err)
	assert.Equal(t, "1700000000000-0", ev.ID)
	assert.Equal(t, "42", ev.AggregateID)
	assert.Equal(t, "booking.created", ev.EventType)
	assert.Equal(t, "25.50", ev.Payload["total_price"])
	assert.Equal(t, int64(1700000000), ev.Timestamp.Unix())
}

func TestDecodeEvent_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{"missing event type", map[string]any{"aggregate_id": "1"}},
		{"broken payload", map[string]any{"event_type": "booking.created", "payload": "{"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeEvent(redis.XMessage{ID: "1-0", Values: tt.values})
			assert.Error(t, err)
		})
	}
}

func TestNewStreamProducer_DefaultStream(t *testing.T) {
	p := NewStreamProducer(nil, "")
	assert.Equal(t, BookingEventStream, p.stream)
}
