package user

import "context"

type Repository interface {
	// Create inserts the user and sets its generated ID.
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetForUpdate locks the user row for the rest of the transaction.
	GetForUpdate(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context) ([]*User, error)

	// Update applies set in a single statement and returns the updated row.
	Update(ctx context.Context, id int64, set *UpdateSet) (*User, error)
	Delete(ctx context.Context, id int64) error

	AddPhone(ctx context.Context, p *Phone) error
	ListPhones(ctx context.Context, userID int64) ([]*Phone, error)
}
