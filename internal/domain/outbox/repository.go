package outbox

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Insert creates a new outbox entry, normally inside the booking transaction
	Insert(ctx context.Context, entry *Entry) error

	// GetPending returns pending outbox entries up to the given limit
	GetPending(ctx context.Context, limit int) ([]*Entry, error)

	// MarkPublished marks an outbox entry as published
	MarkPublished(ctx context.Context, id uuid.UUID) error

	// MarkFailed increments the retry count and fails the entry once it runs out of retries
	MarkFailed(ctx context.Context, id uuid.UUID) error
}
