package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cassiomorais/courts/internal/domain/booking"
	domainErrors "github.com/cassiomorais/courts/internal/domain/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const slotColumns = `s.id_schedule, s.id_court, s.schedule_date,
	to_char(s.start_time, 'HH24:MI'), to_char(s.end_time, 'HH24:MI'),
	s.price::text, s.is_available`

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// SlotRepository implements booking.SlotRepository using PostgreSQL.
type SlotRepository struct {
	pool *pgxpool.Pool
}

// NewSlotRepository creates a new SlotRepository.
func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

func (r *SlotRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// scanSlot reads the columns listed in slotColumns, plus any extra destinations first.
func scanSlot(s scanner, extra ...any) (*booking.Slot, error) {
	slot := &booking.Slot{}
	var start, end, price string
	dest := append(extra, &slot.ID, &slot.CourtID, &slot.Date, &start, &end, &price, &slot.Available)
	if err := s.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrSlotNotFound
		}
		return nil, fmt.Errorf("scan slot: %w", err)
	}

	var err error
	if slot.StartTime, err = textToTimeOfDay(start); err != nil {
		return nil, err
	}
	if slot.EndTime, err = textToTimeOfDay(end); err != nil {
		return nil, err
	}
	if slot.Price, err = numericToDecimal(price); err != nil {
		return nil, fmt.Errorf("parse price: %w", err)
	}
	return slot, nil
}

func collectSlots(rows pgx.Rows) ([]*booking.Slot, error) {
	defer rows.Close()

	var slots []*booking.Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// LockAvailable takes row locks on the still-available slots among ids.
// Rows are locked in id order so concurrent bookings never wait on each other in a cycle.
func (r *SlotRepository) LockAvailable(ctx context.Context, ids []int64) ([]*booking.Slot, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+slotColumns+`
		 FROM schedules s
		 WHERE s.id_schedule = ANY($1) AND s.is_available
		 ORDER BY s.id_schedule
		 FOR UPDATE`, ids)
	if err != nil {
		return nil, classify("lock slots", err)
	}
	slots, err := collectSlots(rows)
	if err != nil {
		return nil, classify("lock slots", err)
	}
	return slots, nil
}

// SetAvailability flips the availability flag of every slot in ids.
func (r *SlotRepository) SetAvailability(ctx context.Context, ids []int64, available bool) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE schedules SET is_available = $2 WHERE id_schedule = ANY($1)`, ids, available)
	if err != nil {
		return classify("update slot availability", err)
	}
	if tag.RowsAffected() != int64(len(ids)) {
		return domainErrors.ErrSlotNotFound
	}
	return nil
}

// Create inserts a new slot.
func (r *SlotRepository) Create(ctx context.Context, s *booking.Slot) error {
	err := r.db(ctx).QueryRow(ctx,
		`INSERT INTO schedules (id_court, schedule_date, start_time, end_time, price, is_available)
		 VALUES ($1, $2, $3::time, $4::time, $5::numeric, $6)
		 RETURNING id_schedule`,
		s.CourtID, s.Date, s.StartTime.String(), s.EndTime.String(), decimalToNumeric(s.Price), s.Available,
	).Scan(&s.ID)
	if err != nil {
		switch {
		case isForeignKeyViolation(err, "schedules_id_court_fkey"):
			return domainErrors.ErrCourtNotFound
		case isUniqueViolation(err, "schedules_court_slot_key"):
			return domainErrors.ErrSlotExists
		}
		return classify("insert slot", err)
	}
	return nil
}

// GetByID retrieves a slot by its ID.
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*booking.Slot, error) {
	return scanSlot(r.db(ctx).QueryRow(ctx,
		`SELECT `+slotColumns+` FROM schedules s WHERE s.id_schedule = $1`, id))
}

// ListAvailable returns the free slots of a court, limited to date when given.
func (r *SlotRepository) ListAvailable(ctx context.Context, courtID int64, date *time.Time) ([]*booking.Slot, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+slotColumns+`
		 FROM schedules s
		 WHERE s.id_court = $1 AND s.is_available
		   AND ($2::date IS NULL OR s.schedule_date = $2::date)
		 ORDER BY s.schedule_date, s.start_time`, courtID, date)
	if err != nil {
		return nil, classify("list available slots", err)
	}
	return collectSlots(rows)
}

// ListUnavailable returns the slots of a court held by a non-cancelled booking.
func (r *SlotRepository) ListUnavailable(ctx context.Context, courtID int64) ([]*booking.Slot, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+slotColumns+`
		 FROM schedules s
		 WHERE s.id_court = $1
		   AND EXISTS (
		     SELECT 1 FROM booking_details bd
		     JOIN bookings b ON b.id_booking = bd.id_booking
		     WHERE bd.id_schedule = s.id_schedule AND b.status <> 'cancelled'
		   )
		 ORDER BY s.schedule_date, s.start_time`, courtID)
	if err != nil {
		return nil, classify("list unavailable slots", err)
	}
	return collectSlots(rows)
}
