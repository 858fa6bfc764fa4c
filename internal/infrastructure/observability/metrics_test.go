package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("courts", reg)

	m.BookingsTotal.WithLabelValues("success").Inc()
	m.SlotConflicts.Inc()
	m.BookedSlots.Add(2)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.BookingsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.BookedSlots))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["courts_bookings_total"])
	assert.True(t, names["courts_slot_conflicts_total"])
	assert.True(t, names["courts_booked_slots_total"])
}

func TestNewMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics("courts", reg)

	assert.Panics(t, func() { NewMetrics("courts", reg) })
}
