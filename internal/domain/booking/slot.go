package booking

import (
	"fmt"
	"time"

	"github.com/cassiomorais/courts/internal/domain/errors"
	"github.com/shopspring/decimal"
)

// TimeOfDay is a wall-clock time expressed in minutes since midnight.
// 24:00 is allowed so a slot can end at the close of the day.
type TimeOfDay int

const endOfDay TimeOfDay = 24 * 60

// ParseTimeOfDay parses "15:04" or "15:04:05" (seconds are dropped).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if s == "24:00" || s == "24:00:00" {
		return endOfDay, nil
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay(t.Hour()*60 + t.Minute()), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", s)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// MaxSlotPrice is the largest price the schedules.price column can hold.
var MaxSlotPrice = decimal.RequireFromString("999999.99")

// Slot is one bookable interval of one court.
type Slot struct {
	ID        int64
	CourtID   int64
	Date      time.Time
	StartTime TimeOfDay
	EndTime   TimeOfDay
	Price     decimal.Decimal
	Available bool
}

// NewSlot creates an available slot for a court.
func NewSlot(courtID int64, date time.Time, start, end TimeOfDay, price decimal.Decimal) (*Slot, error) {
	if courtID <= 0 {
		return nil, errors.NewValidationError("court_id", "must be positive")
	}
	if date.IsZero() {
		return nil, errors.NewValidationError("schedule_date", "is required")
	}
	if start < 0 || end > endOfDay {
		return nil, errors.NewValidationError("start_time", "must be within the day")
	}
	if end <= start {
		return nil, errors.NewValidationError("end_time", "must be after start_time")
	}
	if price.IsNegative() {
		return nil, errors.NewValidationError("price", "cannot be negative")
	}
	if !price.Equal(price.Round(2)) {
		return nil, errors.NewValidationError("price", "must have at most two decimal places")
	}
	if price.GreaterThan(MaxSlotPrice) {
		return nil, errors.NewValidationError("price", "must not exceed 999999.99")
	}

	y, m, d := date.Date()
	return &Slot{
		CourtID:   courtID,
		Date:      time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		StartTime: start,
		EndTime:   end,
		Price:     price,
		Available: true,
	}, nil
}

// TotalPrice sums slot prices without binary floating point.
func TotalPrice(slots []*Slot) decimal.Decimal {
	total := decimal.Zero
	for _, s := range slots {
		total = total.Add(s.Price)
	}
	return total
}

// MissingIDs returns the requested ids absent from slots, in request order.
func MissingIDs(requested []int64, slots []*Slot) []int64 {
	found := make(map[int64]struct{}, len(slots))
	for _, s := range slots {
		found[s.ID] = struct{}{}
	}
	var missing []int64
	for _, id := range requested {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
