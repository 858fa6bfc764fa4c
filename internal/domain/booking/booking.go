package booking

import (
	"sort"
	"time"

	"github.com/cassiomorais/courts/internal/domain/errors"
	"github.com/shopspring/decimal"
)

// Status represents the booking status in the state machine
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a status value coming from a caller.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return st, nil
	default:
		return "", errors.NewDomainError("invalid_status", "unknown booking status "+s, errors.ErrInvalidStatus)
	}
}

// Booking is one reservation event owned by a user.
type Booking struct {
	ID          int64
	UserID      int64
	BookingDate time.Time
	Status      Status
	UpdatedAt   time.Time

	// Slots is populated by reads that join booking_details.
	Slots []*Slot
}

// NewBooking creates a booking in the given initial status.
// Only pending and confirmed are valid starting points.
func NewBooking(userID int64, initial Status) (*Booking, error) {
	if userID <= 0 {
		return nil, errors.NewValidationError("user_id", "must be positive")
	}
	if initial == "" {
		initial = StatusConfirmed
	}
	if initial != StatusPending && initial != StatusConfirmed {
		return nil, errors.NewValidationError("status", "must be pending or confirmed")
	}
	now := time.Now().UTC()
	y, m, d := now.Date()
	return &Booking{
		UserID:      userID,
		BookingDate: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Status:      initial,
		UpdatedAt:   now,
	}, nil
}

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
	StatusCancelled: {}, // Terminal state
}

// CanTransitionTo checks if the booking can transition to the given status
func (b *Booking) CanTransitionTo(newStatus Status) bool {
	for _, allowed := range transitions[b.Status] {
		if allowed == newStatus {
			return true
		}
	}
	return false
}

// TransitionTo transitions the booking to a new status
func (b *Booking) TransitionTo(newStatus Status) error {
	if !b.CanTransitionTo(newStatus) {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot transition from "+string(b.Status)+" to "+string(newStatus),
			errors.ErrInvalidStateTransition,
		)
	}
	b.Status = newStatus
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// IsActive reports whether the booking still holds its slots.
func (b *Booking) IsActive() bool {
	return b.Status != StatusCancelled
}

// TotalPrice is the sum of the linked slot prices.
func (b *Booking) TotalPrice() decimal.Decimal {
	return TotalPrice(b.Slots)
}

// Result is what a successful booking transaction hands back.
type Result struct {
	BookingID  int64
	Status     Status
	Slots      []*Slot
	TotalPrice decimal.Decimal
}

// NormalizeSlotIDs validates a requested slot set and returns it sorted.
// Sorting gives every transaction the same lock acquisition order.
func NormalizeSlotIDs(ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, errors.NewValidationError("slot_ids", "must not be empty")
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, errors.NewValidationError("slot_ids", "must contain positive ids")
		}
		if _, dup := seen[id]; dup {
			return nil, errors.NewValidationError("slot_ids", "must not contain duplicates")
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
