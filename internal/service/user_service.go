package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cassiomorais/courts/internal/domain/booking"
	domainErrors "github.com/cassiomorais/courts/internal/domain/errors"
	"github.com/cassiomorais/courts/internal/domain/user"
	"github.com/cassiomorais/courts/pkg/retry"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// UserService handles client accounts and their phone numbers.
type UserService struct {
	userRepo    user.Repository
	bookingRepo booking.Repository
	txManager   TransactionManager
	logger      zerolog.Logger
	bcryptCost  int
}

func NewUserService(userRepo user.Repository, bookingRepo booking.Repository, txManager TransactionManager, logger zerolog.Logger) *UserService {
	return &UserService{
		userRepo:    userRepo,
		bookingRepo: bookingRepo,
		txManager:   txManager,
		logger:     logger.With().Str("component", "user_service").Logger(),
		bcryptCost: bcrypt.DefaultCost,
	}
}

// WithBcryptCost overrides the hashing cost. Tests use bcrypt.MinCost.
func (s *UserService) WithBcryptCost(cost int) *UserService {
	s.bcryptCost = cost
	return s
}

func (s *UserService) hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", domainErrors.NewValidationError("password", "must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Register creates a client account, storing only the password hash.
func (s *UserService) Register(ctx context.Context, req RegisterUserRequest) (*user.User, error) {
	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u, err := user.NewUser(req.Name, req.LastName, req.Email, hash)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}
	s.logger.Info().Int64("user_id", u.ID).Msg("user registered")
	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*user.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]*user.User, error) {
	return s.userRepo.List(ctx)
}

// UpdateUser applies the provided fields as one update.
func (s *UserService) UpdateUser(ctx context.Context, id int64, req UpdateUserRequest) (*user.User, error) {
	var set user.UpdateSet
	if req.Name != nil {
		if err := set.SetName(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.LastName != nil {
		if err := set.SetLastName(*req.LastName); err != nil {
			return nil, err
		}
	}
	if req.Email != nil {
		if err := set.SetEmail(*req.Email); err != nil {
			return nil, err
		}
	}
	if req.Password != nil {
		hash, err := s.hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		set.SetPasswordHash(hash)
	}
	if req.RoleID != nil {
		if err := set.SetRoleID(*req.RoleID); err != nil {
			return nil, err
		}
	}
	if set.IsEmpty() {
		return nil, domainErrors.ErrNothingToSave
	}

	u, err := s.userRepo.Update(ctx, id, &set)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	fields := make([]string, 0, 5)
	for _, a := range set.Assignments() {
		fields = append(fields, string(a.Field))
	}
	s.logger.Info().Int64("user_id", id).Str("fields", strings.Join(fields, ",")).Msg("user updated")
	return u, nil
}

// DeleteUser removes the user with their bookings. Slots held by the user's
// active bookings become available again in the same transaction.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	var released []int64
	err := retry.Do(ctx, retry.Config{
		MaxAttempts:  3,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     time.Second,
		RetryIf:      domainErrors.IsRetryable,
		OnRetry: func(n uint, err error) {
			if !domainErrors.IsRetryable(err) {
				return
			}
			s.logger.Warn().Err(err).Int64("user_id", id).Uint("attempt", n+1).Msg("retrying user delete")
		},
	}, func() error {
		return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			// The lock keeps new bookings for this user out until commit
			if _, err := s.userRepo.GetForUpdate(txCtx, id); err != nil {
				return err
			}
			var err error
			if released, err = s.bookingRepo.DeleteByUser(txCtx, id); err != nil {
				return err
			}
			return s.userRepo.Delete(txCtx, id)
		})
	})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.Info().Int64("user_id", id).Int("released_slots", len(released)).Msg("user deleted")
	return nil
}

func (s *UserService) AddPhone(ctx context.Context, userID int64, number string) (*user.Phone, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, domainErrors.NewValidationError("phone_number", "is required")
	}
	if len(number) > 20 {
		return nil, domainErrors.NewValidationError("phone_number", "must be at most 20 characters")
	}
	p := &user.Phone{UserID: userID, Number: number}
	if err := s.userRepo.AddPhone(ctx, p); err != nil {
		return nil, fmt.Errorf("add phone: %w", err)
	}
	return p, nil
}

// ListPhones fails with ErrUserNotFound for unknown users instead of returning an empty list.
func (s *UserService) ListPhones(ctx context.Context, userID int64) ([]*user.Phone, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.userRepo.ListPhones(ctx, userID)
}
