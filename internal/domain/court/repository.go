package court

import "context"

type Repository interface {
	Create(ctx context.Context, c *Court) error
	GetByID(ctx context.Context, id int64) (*Court, error)

	// List returns all courts, or only those of typeID when it is set.
	List(ctx context.Context, typeID *int64) ([]*Court, error)

	ListTypes(ctx context.Context) ([]*Type, error)
}
