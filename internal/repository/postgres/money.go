package postgres

import (
	"fmt"
	"strings"

	"github.com/cassiomorais/courts/internal/domain/booking"
	"github.com/shopspring/decimal"
)

// Prices travel as NUMERIC text in both directions so no float64 is ever involved.

func numericToDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty numeric string")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse numeric %q: %w", s, err)
	}
	return d, nil
}

func decimalToNumeric(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func textToTimeOfDay(s string) (booking.TimeOfDay, error) {
	t, err := booking.ParseTimeOfDay(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse time of day: %w", err)
	}
	return t, nil
}
