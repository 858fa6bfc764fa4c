package postgres

import (
	"context"
	"errors"
	"testing"

	domainErrors "github.com/cassiomorais/courts/internal/domain/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantTransient bool
		wantConstr    bool
	}{
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, true, false},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true, false},
		{"serialization", &pgconn.PgError{Code: "40001"}, true, false},
		{"statement timeout", &pgconn.PgError{Code: "57014"}, true, false},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false, true},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, false, true},
		{"check violation", &pgconn.PgError{Code: "23514"}, false, true},
		{"syntax error", &pgconn.PgError{Code: "42601"}, false, false},
		{"plain error", errors.New("boom"), false, false},
		{"context canceled", context.Canceled, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("lock slots", tt.err)
			assert.Equal(t, tt.wantTransient, errors.Is(err, domainErrors.ErrTransientStore))
			assert.Equal(t, tt.wantConstr, errors.Is(err, domainErrors.ErrConstraintViolation))
			assert.ErrorIs(t, err, tt.err)
			assert.Contains(t, err.Error(), "lock slots")
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	assert.NoError(t, classify("noop", nil))
}

func TestIsUniqueViolation(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}

	assert.True(t, isUniqueViolation(err, "users_email_key"))
	assert.True(t, isUniqueViolation(err, ""))
	assert.False(t, isUniqueViolation(err, "other_key"))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, isUniqueViolation(errors.New("x"), ""))
}

func TestIsForeignKeyViolation(t *testing.T) {
	err := &pgconn.PgError{Code: "23503", ConstraintName: "courts_id_type_fkey"}

	assert.True(t, isForeignKeyViolation(err, "courts_id_type_fkey"))
	assert.False(t, isForeignKeyViolation(err, "schedules_id_court_fkey"))
}
