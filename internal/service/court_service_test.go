package service

import (
	"context"
	"testing"

	"github.com/cassiomorais/courts/internal/domain/booking"
	"github.com/cassiomorais/courts/internal/domain/court"
	domainErrors "github.com/cassiomorais/courts/internal/domain/errors"
	"github.com/cassiomorais/courts/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCourtService() (*CourtService, *testutil.MockCourtRepository, *testutil.MemoryStore) {
	courtRepo := testutil.NewMockCourtRepository()
	courtRepo.AddType(&court.Type{ID: 1, Name: "tennis"})
	courtRepo.AddType(&court.Type{ID: 2, Name: "padel"})
	store := testutil.NewMemoryStore()
	return NewCourtService(courtRepo, store.Slots(), zerolog.Nop()), courtRepo, store
}

func TestCreateCourt_Success(t *testing.T) {
	svc, _, _ := setupCourtService()
	ctx := context.Background()

	c, err := svc.CreateCourt(ctx, CreateCourtRequest{TypeID: 2, Name: "Center", Description: "glass walls"})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Equal(t, "padel", c.TypeName)

	got, err := svc.GetCourt(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Center", got.Name)
}

func TestCreateCourt_UnknownType(t *testing.T) {
	svc, _, _ := setupCourtService()

	_, err := svc.CreateCourt(context.Background(), CreateCourtRequest{TypeID: 9, Name: "Center"})
	assert.ErrorIs(t, err, domainErrors.ErrCourtTypeNotFound)
}

func TestListCourts_FilterByType(t *testing.T) {
	svc, _, _ := setupCourtService()
	ctx := context.Background()
	for _, req := range []CreateCourtRequest{{TypeID: 1, Name: "A"}, {TypeID: 2, Name: "B"}, {TypeID: 1, Name: "C"}} {
		_, err := svc.CreateCourt(ctx, req)
		require.NoError(t, err)
	}

	all, err := svc.ListCourts(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	tennis := int64(1)
	filtered, err := svc.ListCourts(ctx, &tennis)
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	assert.Equal(t, "A", filtered[0].Name)
	assert.Equal(t, "C", filtered[1].Name)

	types, err := svc.ListTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 2)
}

func TestCreateSlot(t *testing.T) {
	svc, _, store := setupCourtService()
	ctx := context.Background()
	start, _ := booking.ParseTimeOfDay("18:00")
	end, _ := booking.ParseTimeOfDay("19:30")

	req := CreateSlotRequest{
		CourtID:   1,
		Date:      testutil.TestDate,
		StartTime: start,
		EndTime:   end,
		Price:     decimal.RequireFromString("30.00"),
	}
	slot, err := svc.CreateSlot(ctx, req)
	require.NoError(t, err)
	assert.True(t, store.SlotAvailable(slot.ID))

	_, err = svc.CreateSlot(ctx, req)
	assert.ErrorIs(t, err, domainErrors.ErrSlotExists)

	req.EndTime = start
	_, err = svc.CreateSlot(ctx, req)
	var vErr *domainErrors.ValidationError
	assert.ErrorAs(t, err, &vErr)
}
