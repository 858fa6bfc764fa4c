package outbox

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	payload := map[string]any{
		"booking_id":  int64(42),
		"total_price": "25.50",
		"slot_ids":    []int64{1, 2},
	}

	entry := NewEntry(AggregateBooking, "42", EventBookingCreated, payload)

	require.NotNil(t, entry)
	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.Equal(t, "booking", entry.AggregateType)
	assert.Equal(t, "42", entry.AggregateID)
	assert.Equal(t, "booking.created", entry.EventType)
	assert.Equal(t, payload, entry.Payload)
	assert.Equal(t, StatusPending, entry.Status)
	assert.Equal(t, 0, entry.RetryCount)
	assert.Equal(t, 5, entry.MaxRetries)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.Nil(t, entry.PublishedAt)
}

func TestNewBookingEntry(t *testing.T) {
	entry := NewBookingEntry(7, EventBookingStatusChanged, map[string]any{"status": "cancelled"})

	assert.Equal(t, AggregateBooking, entry.AggregateType)
	assert.Equal(t, "7", entry.AggregateID)
	assert.Equal(t, EventBookingStatusChanged, entry.EventType)
}

func TestNewEntry_EmptyPayload(t *testing.T) {
	entry := NewEntry(AggregateBooking, "1", EventBookingCreated, nil)

	require.NotNil(t, entry)
	assert.Nil(t, entry.Payload)
	assert.Equal(t, StatusPending, entry.Status)
}

func TestEntry_UniqueIDs(t *testing.T) {
	entry1 := NewBookingEntry(3, EventBookingCreated, nil)
	entry2 := NewBookingEntry(3, EventBookingCreated, nil)

	assert.NotEqual(t, entry1.ID, entry2.ID)
	assert.Equal(t, entry1.AggregateID, entry2.AggregateID)
}
