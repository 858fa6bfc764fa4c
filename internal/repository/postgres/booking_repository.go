package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cassiomorais/courts/internal/domain/booking"
	domainErrors "github.com/cassiomorais/courts/internal/domain/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `id_booking, id_user, booking_date, status, updated_at`

// BookingRepository implements booking.Repository using PostgreSQL.
type BookingRepository struct {
	pool *pgxpool.Pool
}

// NewBookingRepository creates a new BookingRepository.
func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func scanBooking(s scanner) (*booking.Booking, error) {
	b := &booking.Booking{}
	var status string
	if err := s.Scan(&b.ID, &b.UserID, &b.BookingDate, &status, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrBookingNotFound
		}
		return nil, fmt.Errorf("scan booking: %w", err)
	}
	b.Status = booking.Status(status)
	return b, nil
}

// Create inserts a booking and stores the generated id on b.
func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	err := r.db(ctx).QueryRow(ctx,
		`INSERT INTO bookings (id_user, booking_date, status, updated_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id_booking`,
		b.UserID, b.BookingDate, string(b.Status), b.UpdatedAt,
	).Scan(&b.ID)
	if err != nil {
		if isForeignKeyViolation(err, "bookings_id_user_fkey") {
			return domainErrors.ErrUserNotFound
		}
		return classify("insert booking", err)
	}
	return nil
}

// AddDetails inserts one booking_details row per slot in a single statement.
func (r *BookingRepository) AddDetails(ctx context.Context, bookingID int64, slotIDs []int64) error {
	tag, err := r.db(ctx).Exec(ctx,
		`INSERT INTO booking_details (id_booking, id_schedule)
		 SELECT $1, unnest($2::bigint[])`, bookingID, slotIDs)
	if err != nil {
		return classify("insert booking details", err)
	}
	if tag.RowsAffected() != int64(len(slotIDs)) {
		return fmt.Errorf("insert booking details: %w", domainErrors.ErrConstraintViolation)
	}
	return nil
}

// GetForUpdate locks the booking row until the transaction ends.
func (r *BookingRepository) GetForUpdate(ctx context.Context, id int64) (*booking.Booking, error) {
	b, err := scanBooking(r.db(ctx).QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id_booking = $1 FOR UPDATE`, id))
	if err != nil && !errors.Is(err, domainErrors.ErrBookingNotFound) {
		return nil, classify("lock booking", err)
	}
	return b, err
}

// GetByID returns the booking with its slots.
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*booking.Booking, error) {
	b, err := scanBooking(r.db(ctx).QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id_booking = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.attachSlots(ctx, []*booking.Booking{b}); err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateStatus persists the status and updated_at of b.
func (r *BookingRepository) UpdateStatus(ctx context.Context, b *booking.Booking) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE bookings SET status = $1, updated_at = $2 WHERE id_booking = $3`,
		string(b.Status), b.UpdatedAt, b.ID)
	if err != nil {
		return classify("update booking status", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrBookingNotFound
	}
	return nil
}

// ReleaseSlots marks the booking's slots available again.
func (r *BookingRepository) ReleaseSlots(ctx context.Context, bookingID int64) ([]int64, error) {
	rows, err := r.db(ctx).Query(ctx,
		`UPDATE schedules SET is_available = TRUE
		 WHERE id_schedule IN (SELECT id_schedule FROM booking_details WHERE id_booking = $1)
		 RETURNING id_schedule`, bookingID)
	if err != nil {
		return nil, classify("release slots", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, classify("release slots", err)
	}
	return ids, nil
}

// DeleteByUser frees the slots of the user's active bookings and deletes every
// booking of the user. Details go with their booking through the cascade.
func (r *BookingRepository) DeleteByUser(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db(ctx).Query(ctx,
		`UPDATE schedules s SET is_available = TRUE
		 FROM booking_details bd
		 JOIN bookings b ON b.id_booking = bd.id_booking
		 WHERE bd.id_schedule = s.id_schedule
		   AND b.id_user = $1
		   AND b.status <> 'cancelled'
		 RETURNING s.id_schedule`, userID)
	if err != nil {
		return nil, classify("release user slots", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, classify("release user slots", err)
	}

	if _, err := r.db(ctx).Exec(ctx, `DELETE FROM bookings WHERE id_user = $1`, userID); err != nil {
		return nil, classify("delete user bookings", err)
	}
	return ids, nil
}

// ListByUser returns a user's bookings, newest first, with their slots.
func (r *BookingRepository) ListByUser(ctx context.Context, userID int64, status *booking.Status) ([]*booking.Booking, error) {
	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}

	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE id_user = $1 AND ($2::text IS NULL OR status = $2::text)
		 ORDER BY booking_date DESC, id_booking DESC`, userID, statusArg)
	if err != nil {
		return nil, classify("list user bookings", err)
	}
	defer rows.Close()

	var bookings []*booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list user bookings", err)
	}

	if err := r.attachSlots(ctx, bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// attachSlots loads the slots of all given bookings with one query.
func (r *BookingRepository) attachSlots(ctx context.Context, bookings []*booking.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	byID := make(map[int64]*booking.Booking, len(bookings))
	ids := make([]int64, 0, len(bookings))
	for _, b := range bookings {
		byID[b.ID] = b
		ids = append(ids, b.ID)
	}

	rows, err := r.db(ctx).Query(ctx,
		`SELECT bd.id_booking, `+slotColumns+`
		 FROM booking_details bd
		 JOIN schedules s ON s.id_schedule = bd.id_schedule
		 WHERE bd.id_booking = ANY($1)
		 ORDER BY s.schedule_date, s.start_time`, ids)
	if err != nil {
		return classify("load booking slots", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookingID int64
		slot, err := scanSlot(rows, &bookingID)
		if err != nil {
			return err
		}
		if b, ok := byID[bookingID]; ok {
			b.Slots = append(b.Slots, slot)
		}
	}
	return rows.Err()
}
