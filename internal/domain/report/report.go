package report

import (
	"context"
	"time"

	"github.com/cassiomorais/courts/internal/domain/errors"
	"github.com/shopspring/decimal"
)

// MaxTopUsers caps the top-users report.
const MaxTopUsers = 100

type StatusCount struct {
	Status string
	Count  int64
}

type CourtUsage struct {
	CourtID     int64
	CourtName   string
	TimesRented int64
}

type DayCount struct {
	Date  time.Time
	Count int64
}

type CourtRevenue struct {
	CourtID   int64
	CourtName string
	Revenue   decimal.Decimal
}

type UserBookings struct {
	UserID   int64
	Name     string
	LastName string
	Bookings int64
}

// PeriodRevenue is the revenue of a day or of a month. For months, Period is
// the first day of the month.
type PeriodRevenue struct {
	Period  time.Time
	Revenue decimal.Decimal
}

// HourCount counts bookings by slot start time, formatted HH:MM.
type HourCount struct {
	StartTime string
	Count     int64
}

type CourtTypeCount struct {
	TypeID   int64
	TypeName string
	Bookings int64
}

type CourtTypeRevenue struct {
	TypeID   int64
	TypeName string
	Revenue  decimal.Decimal
}

type UserRevenue struct {
	UserID   int64
	Name     string
	LastName string
	Revenue  decimal.Decimal
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From time.Time
	To   time.Time
}

// NewDateRange validates that from is not after to.
func NewDateRange(from, to time.Time) (DateRange, error) {
	if from.IsZero() || to.IsZero() {
		return DateRange{}, errors.NewValidationError("from", "from and to are required")
	}
	if from.After(to) {
		return DateRange{}, errors.NewValidationError("from", "must not be after to")
	}
	return DateRange{From: from, To: to}, nil
}

// Repository runs the fixed set of read-only reports.
type Repository interface {
	BookingsByStatus(ctx context.Context) ([]StatusCount, error)
	CourtUsage(ctx context.Context) ([]CourtUsage, error)
	BookingsByDay(ctx context.Context, r DateRange) ([]DayCount, error)
	RevenueByCourt(ctx context.Context, r DateRange) ([]CourtRevenue, error)
	TopUsers(ctx context.Context, limit int) ([]UserBookings, error)

	// Revenue is the sum of slot prices held by non-cancelled bookings.
	RevenueByMonth(ctx context.Context, r DateRange) ([]PeriodRevenue, error)
	RevenueByDay(ctx context.Context, r DateRange) ([]PeriodRevenue, error)
	RevenueByCourtType(ctx context.Context) ([]CourtTypeRevenue, error)
	RevenueByUser(ctx context.Context) ([]UserRevenue, error)

	BookingsByHour(ctx context.Context) ([]HourCount, error)
	BookingsByCourtType(ctx context.Context) ([]CourtTypeCount, error)
}
