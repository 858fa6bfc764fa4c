package service

import "context"

// TransactionManager runs fn as one atomic unit of work against the store.
// The transaction travels in the context handed to fn; repositories pick it up
// from there, and a nested call joins the outer transaction. A non-nil error
// from fn rolls everything back.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
