//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cassiomorais/courts/internal/domain/booking"
	"github.com/cassiomorais/courts/internal/domain/court"
	domainErrors "github.com/cassiomorais/courts/internal/domain/errors"
	"github.com/cassiomorais/courts/internal/domain/report"
	"github.com/cassiomorais/courts/internal/domain/user"
	"github.com/cassiomorais/courts/internal/repository/postgres"
	"github.com/cassiomorais/courts/internal/service"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

type env struct {
	pool     *pgxpool.Pool
	tx       *postgres.TxManager
	slots    *postgres.SlotRepository
	bookings *postgres.BookingRepository
	courts   *postgres.CourtRepository
	users    *postgres.UserRepository
	reports  *postgres.ReportRepository
	outbox   *postgres.OutboxRepository
	svc      *service.BookingService
}

func setupDB(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("courts"),
		tcpostgres.WithUsername("courts"),
		tcpostgres.WithPassword("courts"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migrate.New("file://migrations", dsn)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	srcErr, dbErr := m.Close()
	require.NoError(t, srcErr)
	require.NoError(t, dbErr)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	e := &env{
		pool:     pool,
		tx:       postgres.NewTxManager(pool, postgres.WithLockTimeout(2*time.Second)),
		slots:    postgres.NewSlotRepository(pool),
		bookings: postgres.NewBookingRepository(pool),
		courts:   postgres.NewCourtRepository(pool),
		users:    postgres.NewUserRepository(pool),
		reports:  postgres.NewReportRepository(pool),
		outbox:   postgres.NewOutboxRepository(pool),
	}
	e.svc = service.NewBookingService(e.slots, e.bookings, e.outbox, e.tx,
		service.BookingConfig{MaxSlotsPerBooking: 12, MaxRetries: 3, RetryDelay: 10 * time.Millisecond},
		zerolog.Nop(), nil)
	return e
}

func (e *env) seed(t *testing.T, prices ...string) (userID, courtID int64, slotIDs []int64) {
	t.Helper()
	ctx := context.Background()

	u, err := user.NewUser("Ana", "Silva", "ana@example.com", "hash")
	require.NoError(t, err)
	require.NoError(t, e.users.Create(ctx, u))

	c, err := court.NewCourt(1, "Center", "")
	require.NoError(t, err)
	require.NoError(t, e.courts.Create(ctx, c))

	date := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range prices {
		s, err := booking.NewSlot(c.ID, date, booking.TimeOfDay((8+i)*60), booking.TimeOfDay((9+i)*60), decimal.RequireFromString(p))
		require.NoError(t, err)
		require.NoError(t, e.slots.Create(ctx, s))
		slotIDs = append(slotIDs, s.ID)
	}
	return u.ID, c.ID, slotIDs
}

func (e *env) available(t *testing.T, id int64) bool {
	t.Helper()
	s, err := e.slots.GetByID(context.Background(), id)
	require.NoError(t, err)
	return s.Available
}

func (e *env) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, e.pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestIntegration_CreateBooking(t *testing.T) {
	e := setupDB(t)
	ctx := context.Background()
	userID, courtID, ids := e.seed(t, "10.00", "15.50")

	res, err := e.svc.CreateBooking(ctx, service.CreateBookingRequest{UserID: userID, SlotIDs: ids})
	require.NoError(t, err)
	assert.Equal(t, "25.50", res.TotalPrice.StringFixed(2))
	assert.Equal(t, booking.StatusConfirmed, res.Status)

	for _, id := range ids {
		assert.False(t, e.available(t, id))
	}
	assert.Equal(t, 2, e.count(t, "booking_details"))

	b, err := e.bookings.GetByID(ctx, res.BookingID)
	require.NoError(t, err)
	assert.Len(t, b.Slots, 2)
	assert.Equal(t, "25.50", b.TotalPrice().StringFixed(2))

	unavailable, err := e.slots.ListUnavailable(ctx, courtID)
	require.NoError(t, err)
	assert.Len(t, unavailable, 2)

	pending, err := e.outbox.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}

func TestIntegration_PartialConflictWritesNothing(t *testing.T) {
	e := setupDB(t)
	ctx := context.Background()
	userID, _, ids := e.seed(t, "10.00", "10.00", "10.00")

	_, err := e.svc.CreateBooking(ctx, service.CreateBookingRequest{UserID: userID, SlotIDs: ids[1:2]})
	require.NoError(t, err)

	_, err = e.svc.CreateBooking(ctx, service.CreateBookingRequest{UserID: userID, SlotIDs: ids})
	var slotErr *domainErrors.SlotUnavailableError
	require.ErrorAs(t, err, &slotErr)
	assert.Equal(t, []int64{ids[1]}, slotErr.Missing)

	assert.True(t, e.available(t, ids[0]))
	assert.True(t, e.available(t, ids[2]))
	assert.Equal(t, 1, e.count(t, "bookings"))
	assert.Equal(t, 1, e.count(t, "booking_details"))
}

func TestIntegration_ConcurrentOverlappingBookings(t *testing.T) {
	e := setupDB(t)
	userID, _, ids := e.seed(t, "10.00", "12.00", "14.00")

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := []int64{ids[0], ids[1], ids[2]}
			if i%2 == 1 {
				req = []int64{ids[2], ids[0], ids[1]}
			}
			_, errs[i] = e.svc.CreateBooking(context.Background(), service.CreateBookingRequest{UserID: userID, SlotIDs: req})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.True(t, errors.Is(err, domainErrors.ErrSlotUnavailable), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, e.count(t, "bookings"))

	var maxOwners int
	require.NoError(t, e.pool.QueryRow(context.Background(),
		`SELECT COALESCE(MAX(n), 0) FROM (SELECT COUNT(*) AS n FROM booking_details GROUP BY id_schedule) t`,
	).Scan(&maxOwners))
	assert.Equal(t, 1, maxOwners)
}

func TestIntegration_CancelFreesSlots(t *testing.T) {
	e := setupDB(t)
	ctx := context.Background()
	userID, _, ids := e.seed(t, "10.00", "20.00")

	res, err := e.svc.CreateBooking(ctx, service.CreateBookingRequest{UserID: userID, SlotIDs: ids, Status: booking.StatusPending})
	require.NoError(t, err)

	b, err := e.svc.UpdateBookingStatus(ctx, res.BookingID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, b.Status)
	for _, id := range ids {
		assert.True(t, e.available(t, id))
	}

	_, err = e.svc.UpdateBookingStatus(ctx, res.BookingID, "confirmed")
	assert.ErrorIs(t, err, domainErrors.ErrInvalidStateTransition)

	_, err = e.svc.CreateBooking(ctx, service.CreateBookingRequest{UserID: userID, SlotIDs: ids})
	require.NoError(t, err)

	status := booking.StatusCancelled
	cancelled, err := e.bookings.ListByUser(ctx, userID, &status)
	require.NoError(t, err)
	assert.Len(t, cancelled, 1)
}

func TestIntegration_DeleteUserFreesSlots(t *testing.T) {
	e := setupDB(t)
	ctx := context.Background()
	userID, courtID, ids := e.seed(t, "10.00", "20.00")
	users := service.NewUserService(e.users, e.bookings, e.tx, zerolog.Nop())

	_, err := e.svc.CreateBooking(ctx, service.CreateBookingRequest{UserID: userID, SlotIDs: ids[:1]})
	require.NoError(t, err)
	cancelled, err := e.svc.CreateBooking(ctx, service.CreateBookingRequest{UserID: userID, SlotIDs: ids[1:]})
	require.NoError(t, err)
	_, err = e.svc.UpdateBookingStatus(ctx, cancelled.BookingID, "cancelled")
	require.NoError(t, err)

	// Someone else holds the slot the cancelled booking used to have.
	other, err := user.NewUser("Bo", "Li", "bo@example.com", "hash")
	require.NoError(t, err)
	require.NoError(t, e.users.Create(ctx, other))
	_, err = e.svc.CreateBooking(ctx, service.CreateBookingRequest{UserID: other.ID, SlotIDs: ids[1:]})
	require.NoError(t, err)

	require.NoError(t, users.DeleteUser(ctx, userID))

	assert.True(t, e.available(t, ids[0]))
	assert.False(t, e.available(t, ids[1]))
	assert.Equal(t, 1, e.count(t, "bookings"))
	assert.Equal(t, 1, e.count(t, "booking_details"))

	free, err := e.slots.ListAvailable(ctx, courtID, nil)
	require.NoError(t, err)
	require.Len(t, free, 1)
	assert.Equal(t, ids[0], free[0].ID)

	_, err = e.svc.CreateBooking(ctx, service.CreateBookingRequest{UserID: other.ID, SlotIDs: ids[:1]})
	require.NoError(t, err)

	assert.ErrorIs(t, users.DeleteUser(ctx, userID), domainErrors.ErrUserNotFound)
}

func TestIntegration_UnknownUserIsNotFound(t *testing.T) {
	e := setupDB(t)
	_, _, ids := e.seed(t, "10.00")

	_, err := e.svc.CreateBooking(context.Background(), service.CreateBookingRequest{UserID: 9999, SlotIDs: ids})
	assert.ErrorIs(t, err, domainErrors.ErrUserNotFound)
	assert.True(t, e.available(t, ids[0]))
}

func TestIntegration_LockTimeoutIsTransient(t *testing.T) {
	e := setupDB(t)
	ctx := context.Background()
	_, _, ids := e.seed(t, "10.00")

	tm := postgres.NewTxManager(e.pool, postgres.WithLockTimeout(100*time.Millisecond))
	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = e.tx.WithTransaction(ctx, func(txCtx context.Context) error {
			_, err := e.slots.LockAvailable(txCtx, ids)
			close(holding)
			<-release
			return err
		})
	}()
	<-holding

	err := tm.WithTransaction(ctx, func(txCtx context.Context) error {
		_, err := e.slots.LockAvailable(txCtx, ids)
		return err
	})
	close(release)
	assert.ErrorIs(t, err, domainErrors.ErrTransientStore)
}

func TestIntegration_UserUpdateSet(t *testing.T) {
	e := setupDB(t)
	ctx := context.Background()
	userID, _, _ := e.seed(t)

	var set user.UpdateSet
	require.NoError(t, set.SetLastName("Souza"))
	u, err := e.users.Update(ctx, userID, &set)
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "Souza", u.LastName)

	other, err := user.NewUser("Bo", "Li", "bo@example.com", "hash")
	require.NoError(t, err)
	require.NoError(t, e.users.Create(ctx, other))

	var clash user.UpdateSet
	require.NoError(t, clash.SetEmail("ana@example.com"))
	_, err = e.users.Update(ctx, other.ID, &clash)
	assert.ErrorIs(t, err, domainErrors.ErrEmailTaken)
}

func TestIntegration_Reports(t *testing.T) {
	e := setupDB(t)
	ctx := context.Background()
	userID, courtID, ids := e.seed(t, "10.00", "15.50", "7.25")

	_, err := e.svc.CreateBooking(ctx, service.CreateBookingRequest{UserID: userID, SlotIDs: ids[:2]})
	require.NoError(t, err)
	cancelled, err := e.svc.CreateBooking(ctx, service.CreateBookingRequest{UserID: userID, SlotIDs: ids[2:]})
	require.NoError(t, err)
	_, err = e.svc.UpdateBookingStatus(ctx, cancelled.BookingID, "cancelled")
	require.NoError(t, err)

	byStatus, err := e.reports.BookingsByStatus(ctx)
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)

	day := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	rng, err := report.NewDateRange(day, day)
	require.NoError(t, err)
	revenue, err := e.reports.RevenueByCourt(ctx, rng)
	require.NoError(t, err)
	require.Len(t, revenue, 1)
	assert.Equal(t, courtID, revenue[0].CourtID)
	assert.Equal(t, "25.50", revenue[0].Revenue.StringFixed(2))

	top, err := e.reports.TopUsers(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, userID, top[0].UserID)
}

func TestIntegration_RevenueAndBreakdownReports(t *testing.T) {
	e := setupDB(t)
	ctx := context.Background()
	userID, _, ids := e.seed(t, "10.00", "15.50", "7.25")

	_, err := e.svc.CreateBooking(ctx, service.CreateBookingRequest{UserID: userID, SlotIDs: ids[:2]})
	require.NoError(t, err)
	cancelled, err := e.svc.CreateBooking(ctx, service.CreateBookingRequest{UserID: userID, SlotIDs: ids[2:]})
	require.NoError(t, err)
	_, err = e.svc.UpdateBookingStatus(ctx, cancelled.BookingID, "cancelled")
	require.NoError(t, err)

	june, err := report.NewDateRange(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	months, err := e.reports.RevenueByMonth(ctx, june)
	require.NoError(t, err)
	require.Len(t, months, 1)
	assert.Equal(t, "2026-06-01", months[0].Period.Format("2006-01-02"))
	assert.Equal(t, "25.50", months[0].Revenue.StringFixed(2))

	days, err := e.reports.RevenueByDay(ctx, june)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "25.50", days[0].Revenue.StringFixed(2))

	may, err := report.NewDateRange(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	empty, err := e.reports.RevenueByDay(ctx, may)
	require.NoError(t, err)
	assert.Empty(t, empty)

	hours, err := e.reports.BookingsByHour(ctx)
	require.NoError(t, err)
	assert.Equal(t, []report.HourCount{{StartTime: "08:00", Count: 1}, {StartTime: "09:00", Count: 1}}, hours)

	types, err := e.reports.BookingsByCourtType(ctx)
	require.NoError(t, err)
	require.Len(t, types, 4)
	assert.Equal(t, report.CourtTypeCount{TypeID: 1, TypeName: "tennis", Bookings: 1}, types[0])
	for _, ct := range types[1:] {
		assert.Zero(t, ct.Bookings)
	}

	typeRevenue, err := e.reports.RevenueByCourtType(ctx)
	require.NoError(t, err)
	require.Len(t, typeRevenue, 1)
	assert.Equal(t, "tennis", typeRevenue[0].TypeName)
	assert.Equal(t, "25.50", typeRevenue[0].Revenue.StringFixed(2))

	userRevenue, err := e.reports.RevenueByUser(ctx)
	require.NoError(t, err)
	require.Len(t, userRevenue, 1)
	assert.Equal(t, userID, userRevenue[0].UserID)
	assert.Equal(t, "25.50", userRevenue[0].Revenue.StringFixed(2))
}

func TestIntegration_IdempotencyReservation(t *testing.T) {
	e := setupDB(t)
	ctx := context.Background()
	repo := postgres.NewIdempotencyRepository(e.pool)
	later := time.Now().Add(time.Hour)

	_, reserved, err := repo.Reserve(ctx, "k1", "hash-a", later)
	require.NoError(t, err)
	require.True(t, reserved)

	held, reserved, err := repo.Reserve(ctx, "k1", "hash-a", later)
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.True(t, held.Pending())
	assert.Equal(t, "hash-a", held.RequestHash)

	assert.Error(t, repo.Complete(ctx, &postgres.IdempotencyEntry{Key: "k1", RequestHash: "hash-b", ExpiresAt: later}))
	require.NoError(t, repo.Complete(ctx, &postgres.IdempotencyEntry{
		Key: "k1", RequestHash: "hash-a", ResponseBody: `{"booking_id":1}`, ResponseStatus: 201, ExpiresAt: later,
	}))

	// Releasing a completed entry leaves it in place.
	require.NoError(t, repo.Release(ctx, "k1", "hash-a"))
	done, reserved, err := repo.Reserve(ctx, "k1", "hash-a", later)
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, postgres.IdempotencyCompleted, done.Status)
	assert.Equal(t, 201, done.ResponseStatus)
	assert.Equal(t, `{"booking_id":1}`, done.ResponseBody)

	// A released reservation frees the key.
	_, reserved, err = repo.Reserve(ctx, "k2", "hash-a", later)
	require.NoError(t, err)
	require.True(t, reserved)
	require.NoError(t, repo.Release(ctx, "k2", "hash-a"))
	_, reserved, err = repo.Reserve(ctx, "k2", "hash-c", later)
	require.NoError(t, err)
	assert.True(t, reserved)

	// An expired entry is taken over and then cleaned up.
	_, reserved, err = repo.Reserve(ctx, "k3", "hash-a", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.True(t, reserved)
	_, reserved, err = repo.Reserve(ctx, "k3", "hash-b", time.Now().Add(-time.Second))
	require.NoError(t, err)
	assert.True(t, reserved)
	n, err := repo.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
