package service

import (
	"context"
	"errors"
	"testing"

	"github.com/cassiomorais/courts/internal/domain/booking"
	domainErrors "github.com/cassiomorais/courts/internal/domain/errors"
	"github.com/cassiomorais/courts/internal/domain/user"
	"github.com/cassiomorais/courts/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupUserService() (*UserService, *testutil.MockUserRepository) {
	svc, repo, _ := setupUserServiceWithStore()
	return svc, repo
}

func setupUserServiceWithStore() (*UserService, *testutil.MockUserRepository, *testutil.MemoryStore) {
	repo := testutil.NewMockUserRepository()
	store := testutil.NewMemoryStore()
	svc := NewUserService(repo, store.Bookings(), store, zerolog.Nop()).WithBcryptCost(bcrypt.MinCost)
	return svc, repo, store
}

// bookForUser makes userID known to the store and books ids for it.
func bookForUser(t *testing.T, store *testutil.MemoryStore, userID int64, ids ...int64) int64 {
	t.Helper()
	store.AddUser(userID)
	bookings := NewBookingService(store.Slots(), store.Bookings(), store.Outbox(), store,
		BookingConfig{MaxSlotsPerBooking: 4}, zerolog.Nop(), nil)
	res, err := bookings.CreateBooking(context.Background(), CreateBookingRequest{UserID: userID, SlotIDs: ids})
	require.NoError(t, err)
	return res.BookingID
}

func registerUser(t *testing.T, svc *UserService, email string) *user.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterUserRequest{
		Name: "Ana", LastName: "Silva", Email: email, Password: "correct-horse",
	})
	require.NoError(t, err)
	return u
}

func TestRegister_HashesPassword(t *testing.T) {
	svc, repo := setupUserService()

	u := registerUser(t, svc, "Ana@Example.com ")
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, user.RoleClient, u.RoleID)

	stored, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct-horse")))
}

func TestRegister_Errors(t *testing.T) {
	svc, _ := setupUserService()
	registerUser(t, svc, "ana@example.com")

	_, err := svc.Register(context.Background(), RegisterUserRequest{
		Name: "Other", LastName: "Person", Email: "ana@example.com", Password: "long-enough",
	})
	assert.ErrorIs(t, err, domainErrors.ErrEmailTaken)

	_, err = svc.Register(context.Background(), RegisterUserRequest{
		Name: "Bo", LastName: "Li", Email: "bo@example.com", Password: "short",
	})
	var vErr *domainErrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "password", vErr.Field)
}

func TestUpdateUser_OnlyProvidedFields(t *testing.T) {
	svc, _ := setupUserService()
	u := registerUser(t, svc, "ana@example.com")

	name := "Anna"
	updated, err := svc.UpdateUser(context.Background(), u.ID, UpdateUserRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Anna", updated.Name)
	assert.Equal(t, "Silva", updated.LastName)
	assert.Equal(t, u.Email, updated.Email)
	assert.Equal(t, u.PasswordHash, updated.PasswordHash)
}

func TestUpdateUser_PasswordIsHashed(t *testing.T) {
	svc, _ := setupUserService()
	u := registerUser(t, svc, "ana@example.com")

	pw := "new-password-1"
	updated, err := svc.UpdateUser(context.Background(), u.ID, UpdateUserRequest{Password: &pw})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte(pw)))
}

func TestUpdateUser_Errors(t *testing.T) {
	svc, _ := setupUserService()
	ctx := context.Background()
	u := registerUser(t, svc, "ana@example.com")
	registerUser(t, svc, "bo@example.com")

	_, err := svc.UpdateUser(ctx, u.ID, UpdateUserRequest{})
	assert.ErrorIs(t, err, domainErrors.ErrNothingToSave)

	blank := "  "
	_, err = svc.UpdateUser(ctx, u.ID, UpdateUserRequest{Name: &blank})
	var vErr *domainErrors.ValidationError
	assert.ErrorAs(t, err, &vErr)

	taken := "bo@example.com"
	_, err = svc.UpdateUser(ctx, u.ID, UpdateUserRequest{Email: &taken})
	assert.ErrorIs(t, err, domainErrors.ErrEmailTaken)

	name := "X"
	_, err = svc.UpdateUser(ctx, 999, UpdateUserRequest{Name: &name})
	assert.ErrorIs(t, err, domainErrors.ErrUserNotFound)
}

func TestDeleteUser(t *testing.T) {
	svc, _ := setupUserService()
	ctx := context.Background()
	u := registerUser(t, svc, "ana@example.com")

	require.NoError(t, svc.DeleteUser(ctx, u.ID))
	_, err := svc.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, domainErrors.ErrUserNotFound)
	assert.ErrorIs(t, svc.DeleteUser(ctx, u.ID), domainErrors.ErrUserNotFound)
}

func TestDeleteUser_FreesHeldSlots(t *testing.T) {
	svc, _, store := setupUserServiceWithStore()
	ctx := context.Background()
	u := registerUser(t, svc, "ana@example.com")
	ids := testutil.SeedSlots(store, 1, "10.00", "12.00")
	bookForUser(t, store, u.ID, ids...)
	require.False(t, store.SlotAvailable(ids[0]))

	require.NoError(t, svc.DeleteUser(ctx, u.ID))

	for _, id := range ids {
		assert.True(t, store.SlotAvailable(id))
	}
	assert.Zero(t, store.BookingCount())
	assert.Zero(t, store.DetailCount())
	assert.Equal(t, 2, store.Commits())
}

func TestDeleteUser_KeepsSlotsRebookedByOthers(t *testing.T) {
	svc, _, store := setupUserServiceWithStore()
	ctx := context.Background()
	ana := registerUser(t, svc, "ana@example.com")
	bo := registerUser(t, svc, "bo@example.com")
	ids := testutil.SeedSlots(store, 1, "10.00")

	// Ana cancels, then Bo takes the same slot.
	cancelled := bookForUser(t, store, ana.ID, ids...)
	bookings := NewBookingService(store.Slots(), store.Bookings(), store.Outbox(), store,
		BookingConfig{MaxSlotsPerBooking: 4}, zerolog.Nop(), nil)
	_, err := bookings.UpdateBookingStatus(ctx, cancelled, "cancelled")
	require.NoError(t, err)
	boBooking := bookForUser(t, store, bo.ID, ids...)

	require.NoError(t, svc.DeleteUser(ctx, ana.ID))

	assert.False(t, store.SlotAvailable(ids[0]))
	assert.Equal(t, 1, store.BookingCount())
	b, err := bookings.GetBooking(ctx, boBooking)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, b.Status)
}

func TestDeleteUser_FailureKeepsBookings(t *testing.T) {
	svc, repo, store := setupUserServiceWithStore()
	ctx := context.Background()
	u := registerUser(t, svc, "ana@example.com")
	ids := testutil.SeedSlots(store, 1, "10.00")
	bookForUser(t, store, u.ID, ids...)

	storeErr := errors.New("connection reset")
	repo.DeleteFunc = func(ctx context.Context, id int64) error { return storeErr }

	err := svc.DeleteUser(ctx, u.ID)
	assert.ErrorIs(t, err, storeErr)
	assert.False(t, store.SlotAvailable(ids[0]))
	assert.Equal(t, 1, store.BookingCount())
	assert.Equal(t, 1, store.Rollbacks())
}

func TestDeleteUser_RetriesTransientFailure(t *testing.T) {
	svc, repo, store := setupUserServiceWithStore()
	ctx := context.Background()
	u := registerUser(t, svc, "ana@example.com")
	ids := testutil.SeedSlots(store, 1, "10.00")
	bookForUser(t, store, u.ID, ids...)

	calls := 0
	repo.DeleteFunc = func(ctx context.Context, id int64) error {
		calls++
		if calls == 1 {
			return transientErr()
		}
		return nil
	}

	require.NoError(t, svc.DeleteUser(ctx, u.ID))
	assert.Equal(t, 2, calls)
	assert.True(t, store.SlotAvailable(ids[0]))
	assert.Zero(t, store.BookingCount())
}

func TestPhones(t *testing.T) {
	svc, _ := setupUserService()
	ctx := context.Background()
	u := registerUser(t, svc, "ana@example.com")

	p, err := svc.AddPhone(ctx, u.ID, " +55 11 91234-5678 ")
	require.NoError(t, err)
	assert.Equal(t, "+55 11 91234-5678", p.Number)

	phones, err := svc.ListPhones(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, phones, 1)

	_, err = svc.AddPhone(ctx, u.ID, "")
	assert.Error(t, err)

	_, err = svc.ListPhones(ctx, 999)
	assert.ErrorIs(t, err, domainErrors.ErrUserNotFound)
}
