package outbox

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	AggregateBooking = "booking"

	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
)

// DefaultMaxRetries is how many relay attempts an entry gets before it is failed.
const DefaultMaxRetries = 5

type Entry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       map[string]any
	Status        Status
	RetryCount    int
	MaxRetries    int
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusFailed    Status = "failed"
)

func NewEntry(aggregateType, aggregateID, eventType string, payload map[string]any) *Entry {
	return &Entry{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		Status:        StatusPending,
		RetryCount:    0,
		MaxRetries:    DefaultMaxRetries,
		CreatedAt:     time.Now(),
	}
}

// NewBookingEntry creates an entry keyed by a booking id.
func NewBookingEntry(bookingID int64, eventType string, payload map[string]any) *Entry {
	return NewEntry(AggregateBooking, strconv.FormatInt(bookingID, 10), eventType, payload)
}
