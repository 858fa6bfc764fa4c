package booking

import (
	"context"
	"time"
)

// SlotRepository is the slot side of the relational store.
type SlotRepository interface {
	// LockAvailable locks the rows of ids that are still available, in id order,
	// and returns them. Rows that are missing or taken are simply absent.
	LockAvailable(ctx context.Context, ids []int64) ([]*Slot, error)

	// SetAvailability flips the availability flag of the given slots.
	SetAvailability(ctx context.Context, ids []int64, available bool) error

	Create(ctx context.Context, slot *Slot) error
	GetByID(ctx context.Context, id int64) (*Slot, error)

	// ListAvailable returns free slots of a court, optionally for a single date.
	ListAvailable(ctx context.Context, courtID int64, date *time.Time) ([]*Slot, error)

	// ListUnavailable returns slots of a court held by non-cancelled bookings.
	ListUnavailable(ctx context.Context, courtID int64) ([]*Slot, error)
}

// Repository stores bookings and their detail rows.
type Repository interface {
	// Create inserts the booking and sets its generated ID.
	Create(ctx context.Context, b *Booking) error

	// AddDetails links the booking to each slot.
	AddDetails(ctx context.Context, bookingID int64, slotIDs []int64) error

	// GetForUpdate locks the booking row for the rest of the transaction.
	GetForUpdate(ctx context.Context, id int64) (*Booking, error)

	// GetByID returns the booking with its slots.
	GetByID(ctx context.Context, id int64) (*Booking, error)

	UpdateStatus(ctx context.Context, b *Booking) error

	// ReleaseSlots marks every slot linked to the booking available again
	// and returns their ids.
	ReleaseSlots(ctx context.Context, bookingID int64) ([]int64, error)

	// ListByUser returns a user's bookings, optionally filtered by status.
	ListByUser(ctx context.Context, userID int64, status *Status) ([]*Booking, error)

	// DeleteByUser frees the slots held by the user's non-cancelled bookings,
	// then deletes all of the user's bookings. It returns the freed slot ids.
	DeleteByUser(ctx context.Context, userID int64) ([]int64, error)
}
