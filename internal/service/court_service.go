package service

import (
	"context"
	"fmt"

	"github.com/cassiomorais/courts/internal/domain/booking"
	"github.com/cassiomorais/courts/internal/domain/court"
	"github.com/rs/zerolog"
)

// CourtService manages courts, court types and the slots they offer.
type CourtService struct {
	courtRepo court.Repository
	slotRepo  booking.SlotRepository
	logger    zerolog.Logger
}

func NewCourtService(courtRepo court.Repository, slotRepo booking.SlotRepository, logger zerolog.Logger) *CourtService {
	return &CourtService{
		courtRepo: courtRepo,
		slotRepo:  slotRepo,
		logger:    logger.With().Str("component", "court_service").Logger(),
	}
}

func (s *CourtService) ListTypes(ctx context.Context) ([]*court.Type, error) {
	return s.courtRepo.ListTypes(ctx)
}

// ListCourts returns every court, or only courts of typeID when it is set.
func (s *CourtService) ListCourts(ctx context.Context, typeID *int64) ([]*court.Court, error) {
	return s.courtRepo.List(ctx, typeID)
}

func (s *CourtService) GetCourt(ctx context.Context, id int64) (*court.Court, error) {
	return s.courtRepo.GetByID(ctx, id)
}

func (s *CourtService) CreateCourt(ctx context.Context, req CreateCourtRequest) (*court.Court, error) {
	c, err := court.NewCourt(req.TypeID, req.Name, req.Description)
	if err != nil {
		return nil, err
	}
	if err := s.courtRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create court: %w", err)
	}
	s.logger.Info().Int64("court_id", c.ID).Str("name", c.Name).Msg("court created")
	return c, nil
}

// CreateSlot opens a new bookable slot on a court.
func (s *CourtService) CreateSlot(ctx context.Context, req CreateSlotRequest) (*booking.Slot, error) {
	slot, err := booking.NewSlot(req.CourtID, req.Date, req.StartTime, req.EndTime, req.Price)
	if err != nil {
		return nil, err
	}
	if err := s.slotRepo.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}
	s.logger.Info().
		Int64("slot_id", slot.ID).
		Int64("court_id", slot.CourtID).
		Str("date", slot.Date.Format("2006-01-02")).
		Str("start", slot.StartTime.String()).
		Msg("slot created")
	return slot, nil
}
