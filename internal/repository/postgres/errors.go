package postgres

import (
	"errors"
	"fmt"

	domainErrors "github.com/cassiomorais/courts/internal/domain/errors"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes after which the whole transaction may be replayed.
var transientCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"57014": true, // query_canceled, raised by statement_timeout
	"57P01": true, // admin_shutdown
}

// classify wraps a driver error with the matching store error kind.
// The driver error stays in the chain for logging.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case transientCodes[pgErr.Code]:
			return fmt.Errorf("%s: %w: %w", op, domainErrors.ErrTransientStore, err)
		case len(pgErr.Code) == 5 && pgErr.Code[:2] == "23":
			return fmt.Errorf("%s: %w: %w", op, domainErrors.ErrConstraintViolation, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return fmt.Errorf("%s: %w: %w", op, domainErrors.ErrTransientStore, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isUniqueViolation reports a 23505 on the given constraint, or any constraint when name is empty.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// isForeignKeyViolation reports a 23503 on the given constraint.
func isForeignKeyViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23503" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
