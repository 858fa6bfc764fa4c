package testutil

import (
	"time"

	"github.com/cassiomorais/courts/internal/domain/booking"
	"github.com/cassiomorais/courts/internal/domain/user"
	"github.com/shopspring/decimal"
)

// TestDate is the schedule date used by fixtures.
var TestDate = time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)

// NewTestSlot returns an available one-hour slot starting at hour.
func NewTestSlot(courtID int64, hour int, price string) *booking.Slot {
	return &booking.Slot{
		CourtID:   courtID,
		Date:      TestDate,
		StartTime: booking.TimeOfDay(hour * 60),
		EndTime:   booking.TimeOfDay((hour + 1) * 60),
		Price:     decimal.RequireFromString(price),
		Available: true,
	}
}

// SeedSlots adds one slot per price to store, starting at 08:00, and returns their ids.
func SeedSlots(store *MemoryStore, courtID int64, prices ...string) []int64 {
	ids := make([]int64, len(prices))
	for i, p := range prices {
		ids[i] = store.AddSlot(NewTestSlot(courtID, 8+i, p)).ID
	}
	return ids
}

func NewTestUser(email string) *user.User {
	return &user.User{
		Name:         "Ana",
		LastName:     "Silva",
		Email:        email,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		RoleID:       user.RoleClient,
	}
}
