package service

import (
	"time"

	"github.com/cassiomorais/courts/internal/domain/booking"
	"github.com/shopspring/decimal"
)

// Controllers convert their HTTP DTOs to these types.

type CreateBookingRequest struct {
	UserID  int64
	SlotIDs []int64
	// Status is the initial status; empty means confirmed.
	Status booking.Status
}

type CreateCourtRequest struct {
	TypeID      int64
	Name        string
	Description string
}

type CreateSlotRequest struct {
	CourtID   int64
	Date      time.Time
	StartTime booking.TimeOfDay
	EndTime   booking.TimeOfDay
	Price     decimal.Decimal
}

type RegisterUserRequest struct {
	Name     string
	LastName string
	Email    string
	Password string
}

// UpdateUserRequest carries only the fields the caller wants to change.
type UpdateUserRequest struct {
	Name     *string
	LastName *string
	Email    *string
	Password *string
	RoleID   *int64
}
