package user

import (
	"strings"

	"github.com/cassiomorais/courts/internal/domain/errors"
)

// Role ids seeded by the initial migration.
const (
	RoleAdmin  int64 = 1
	RoleClient int64 = 2
)

type User struct {
	ID           int64
	Name         string
	LastName     string
	Email        string
	PasswordHash string
	RoleID       int64
}

// NewUser creates a client account. passwordHash must already be hashed.
func NewUser(name, lastName, email, passwordHash string) (*User, error) {
	name = strings.TrimSpace(name)
	lastName = strings.TrimSpace(lastName)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, errors.NewValidationError("name", "is required")
	}
	if lastName == "" {
		return nil, errors.NewValidationError("last_name", "is required")
	}
	if email == "" {
		return nil, errors.NewValidationError("email", "is required")
	}
	if passwordHash == "" {
		return nil, errors.NewValidationError("password", "is required")
	}

	return &User{
		Name:         name,
		LastName:     lastName,
		Email:        email,
		PasswordHash: passwordHash,
		RoleID:       RoleClient,
	}, nil
}

// Phone is a contact number attached to a user.
type Phone struct {
	ID     int64
	UserID int64
	Number string
}
