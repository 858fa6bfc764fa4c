package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/cassiomorais/courts/internal/domain/booking"
	domainErrors "github.com/cassiomorais/courts/internal/domain/errors"
	"github.com/cassiomorais/courts/internal/domain/outbox"
	"github.com/cassiomorais/courts/internal/infrastructure/observability"
	"github.com/cassiomorais/courts/pkg/retry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// BookingConfig bounds booking requests and the transient-failure retry loop.
type BookingConfig struct {
	MaxSlotsPerBooking int
	MaxRetries         int
	RetryDelay         time.Duration
}

// BookingService owns the booking transaction. It keeps no state between
// calls; all coordination happens through row locks in the store.
type BookingService struct {
	slotRepo    booking.SlotRepository
	bookingRepo booking.Repository
	outboxRepo  outbox.Repository
	txManager   TransactionManager
	cfg         BookingConfig
	logger      zerolog.Logger
	metrics     *observability.Metrics
	tracer      trace.Tracer
}

// NewBookingService creates a new BookingService. metrics may be nil.
func NewBookingService(
	slotRepo booking.SlotRepository,
	bookingRepo booking.Repository,
	outboxRepo outbox.Repository,
	txManager TransactionManager,
	cfg BookingConfig,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *BookingService {
	if cfg.MaxSlotsPerBooking <= 0 {
		cfg.MaxSlotsPerBooking = 12
	}
	return &BookingService{
		slotRepo:    slotRepo,
		bookingRepo: bookingRepo,
		outboxRepo:  outboxRepo,
		txManager:   txManager,
		cfg:         cfg,
		logger:      logger.With().Str("component", "booking_service").Logger(),
		metrics:     metrics,
		tracer:      otel.Tracer("github.com/cassiomorais/courts/internal/service"),
	}
}

// CreateBooking atomically reserves every slot in req.SlotIDs for req.UserID.
// Either all slots are booked under one new booking or nothing is written.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*booking.Result, error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.CreateBooking")
	defer span.End()
	start := time.Now()

	if req.UserID <= 0 {
		return nil, domainErrors.NewValidationError("user_id", "must be positive")
	}
	ids, err := booking.NormalizeSlotIDs(req.SlotIDs)
	if err != nil {
		return nil, err
	}
	if len(ids) > s.cfg.MaxSlotsPerBooking {
		return nil, domainErrors.NewValidationError("slot_ids", "too many slots in one booking")
	}
	span.SetAttributes(
		attribute.Int64("booking.user_id", req.UserID),
		attribute.Int("booking.slot_count", len(ids)),
	)

	res, err := retry.DoWithResult(ctx, s.retryConfig("create_booking"), func() (*booking.Result, error) {
		return s.createOnce(ctx, req.UserID, req.Status, ids)
	})

	outcome := bookingOutcome(err)
	s.observe(outcome, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		s.logCreateFailure(req.UserID, ids, outcome, err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.BookedSlots.Add(float64(len(res.Slots)))
	}
	span.SetAttributes(attribute.Int64("booking.id", res.BookingID))
	s.logger.Info().
		Int64("booking_id", res.BookingID).
		Int64("user_id", req.UserID).
		Int("slot_count", len(res.Slots)).
		Str("total_price", res.TotalPrice.StringFixed(2)).
		Str("status", string(res.Status)).
		Msg("booking created")
	return res, nil
}

// createOnce runs a single attempt of the booking transaction.
func (s *BookingService) createOnce(ctx context.Context, userID int64, status booking.Status, ids []int64) (*booking.Result, error) {
	var res *booking.Result
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		// 1. Lock the requested slots that are still available
		slots, err := s.slotRepo.LockAvailable(txCtx, ids)
		if err != nil {
			return err
		}

		// 2. All of them must be there, otherwise nothing is written
		if missing := booking.MissingIDs(ids, slots); len(missing) > 0 {
			return domainErrors.NewSlotUnavailableError(missing)
		}

		// 3. Price the booking from the locked rows
		total := booking.TotalPrice(slots)

		// 4. Insert the booking
		b, err := booking.NewBooking(userID, status)
		if err != nil {
			return err
		}
		if err := s.bookingRepo.Create(txCtx, b); err != nil {
			return err
		}

		// 5. Take the slots and link them to the booking
		if err := s.slotRepo.SetAvailability(txCtx, ids, false); err != nil {
			return err
		}
		if err := s.bookingRepo.AddDetails(txCtx, b.ID, ids); err != nil {
			return err
		}
		for _, sl := range slots {
			sl.Available = false
		}

		// 6. Record the event for the relay
		entry := outbox.NewBookingEntry(b.ID, outbox.EventBookingCreated, map[string]any{
			"booking_id":  b.ID,
			"user_id":     userID,
			"status":      string(b.Status),
			"slot_ids":    ids,
			"total_price": total.StringFixed(2),
		})
		if err := s.outboxRepo.Insert(txCtx, entry); err != nil {
			return err
		}

		res = &booking.Result{
			BookingID:  b.ID,
			Status:     b.Status,
			Slots:      slots,
			TotalPrice: total,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// UpdateBookingStatus moves a booking along the status state machine.
// Cancelling frees the booking's slots in the same transaction.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, bookingID int64, newStatus string) (*booking.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.UpdateBookingStatus")
	defer span.End()
	span.SetAttributes(attribute.Int64("booking.id", bookingID), attribute.String("booking.new_status", newStatus))

	target, err := booking.ParseStatus(newStatus)
	if err != nil {
		return nil, err
	}

	var from booking.Status
	var released []int64
	updated, err := retry.DoWithResult(ctx, s.retryConfig("update_booking_status"), func() (*booking.Booking, error) {
		var b *booking.Booking
		err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			locked, err := s.bookingRepo.GetForUpdate(txCtx, bookingID)
			if err != nil {
				return err
			}
			from = locked.Status

			if err := locked.TransitionTo(target); err != nil {
				return err
			}
			if err := s.bookingRepo.UpdateStatus(txCtx, locked); err != nil {
				return err
			}

			released = nil
			if target == booking.StatusCancelled {
				if released, err = s.bookingRepo.ReleaseSlots(txCtx, bookingID); err != nil {
					return err
				}
			}

			entry := outbox.NewBookingEntry(bookingID, outbox.EventBookingStatusChanged, map[string]any{
				"booking_id":     bookingID,
				"user_id":        locked.UserID,
				"from":           string(from),
				"to":             string(target),
				"released_slots": released,
			})
			if err := s.outboxRepo.Insert(txCtx, entry); err != nil {
				return err
			}

			b, err = s.bookingRepo.GetByID(txCtx, bookingID)
			return err
		})
		return b, err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "status update failed")
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.StatusTransitions.WithLabelValues(string(from), string(target)).Inc()
	}
	s.logger.Info().
		Int64("booking_id", bookingID).
		Str("from", string(from)).
		Str("to", string(target)).
		Int("released_slots", len(released)).
		Msg("booking status changed")
	return updated, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*booking.Booking, error) {
	return s.bookingRepo.GetByID(ctx, id)
}

// ListUserBookings returns a user's bookings; an empty status means all of them.
func (s *BookingService) ListUserBookings(ctx context.Context, userID int64, status string) ([]*booking.Booking, error) {
	if status == "" {
		return s.bookingRepo.ListByUser(ctx, userID, nil)
	}
	st, err := booking.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.bookingRepo.ListByUser(ctx, userID, &st)
}

func (s *BookingService) ListAvailableSlots(ctx context.Context, courtID int64, date *time.Time) ([]*booking.Slot, error) {
	return s.slotRepo.ListAvailable(ctx, courtID, date)
}

func (s *BookingService) ListUnavailableSlots(ctx context.Context, courtID int64) ([]*booking.Slot, error) {
	return s.slotRepo.ListUnavailable(ctx, courtID)
}

func (s *BookingService) retryConfig(operation string) retry.Config {
	return retry.Config{
		MaxAttempts:  uint(s.cfg.MaxRetries + 1),
		InitialDelay: s.cfg.RetryDelay,
		MaxDelay:     20 * s.cfg.RetryDelay,
		RetryIf:      domainErrors.IsRetryable,
		OnRetry: func(n uint, err error) {
			if !domainErrors.IsRetryable(err) {
				return
			}
			if s.metrics != nil {
				s.metrics.TxRetries.WithLabelValues(operation).Inc()
			}
			s.logger.Warn().Err(err).Str("operation", operation).Uint("attempt", n+1).Msg("transient store failure")
		},
	}
}

func (s *BookingService) observe(outcome string, d time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.BookingsTotal.WithLabelValues(outcome).Inc()
	s.metrics.BookingDuration.WithLabelValues(outcome).Observe(d.Seconds())
	if outcome == "slot_unavailable" {
		s.metrics.SlotConflicts.Inc()
	}
}

func (s *BookingService) logCreateFailure(userID int64, ids []int64, outcome string, err error) {
	level := zerolog.WarnLevel
	if outcome == "error" || outcome == "constraint_violation" {
		level = zerolog.ErrorLevel
	}
	s.logger.WithLevel(level).Err(err).
		Int64("user_id", userID).
		Str("slot_ids", joinIDs(ids)).
		Str("outcome", outcome).
		Msg("booking failed")
}

func bookingOutcome(err error) string {
	var slotErr *domainErrors.SlotUnavailableError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &slotErr):
		return "slot_unavailable"
	case errors.Is(err, domainErrors.ErrTransientStore):
		return "transient"
	case errors.Is(err, domainErrors.ErrConstraintViolation):
		return "constraint_violation"
	case errors.Is(err, domainErrors.ErrUserNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func joinIDs(ids []int64) string {
	buf := make([]byte, 0, len(ids)*4)
	for i, id := range ids {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendInt(buf, id, 10)
	}
	return string(buf)
}
