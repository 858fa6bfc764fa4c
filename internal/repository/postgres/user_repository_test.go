package postgres

import (
	"testing"

	domainErrors "github.com/cassiomorais/courts/internal/domain/errors"
	"github.com/cassiomorais/courts/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUserUpdate(t *testing.T) {
	var set user.UpdateSet
	require.NoError(t, set.SetEmail("eva@example.com"))
	require.NoError(t, set.SetName("Eva"))

	query, args, err := buildUserUpdate(7, &set)
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE users SET name = $1, email = $2 WHERE id_user = $3 RETURNING "+userColumns,
		query)
	assert.Equal(t, []any{"Eva", "eva@example.com", int64(7)}, args)
}

func TestBuildUserUpdate_AllFields(t *testing.T) {
	var set user.UpdateSet
	require.NoError(t, set.SetName("Eva"))
	require.NoError(t, set.SetLastName("Diaz"))
	require.NoError(t, set.SetEmail("eva@example.com"))
	set.SetPasswordHash("hash")
	require.NoError(t, set.SetRoleID(1))

	query, args, err := buildUserUpdate(1, &set)
	require.NoError(t, err)

	assert.Contains(t, query, "name = $1, last_name = $2, email = $3, password = $4, id_role = $5 WHERE id_user = $6")
	assert.Len(t, args, 6)
}

func TestBuildUserUpdate_ValuesNeverInlined(t *testing.T) {
	var set user.UpdateSet
	require.NoError(t, set.SetName("x'; DROP TABLE users; --"))

	query, args, err := buildUserUpdate(1, &set)
	require.NoError(t, err)

	assert.NotContains(t, query, "DROP")
	assert.Equal(t, "x'; DROP TABLE users; --", args[0])
}

func TestBuildUserUpdate_Empty(t *testing.T) {
	_, _, err := buildUserUpdate(1, &user.UpdateSet{})
	assert.ErrorIs(t, err, domainErrors.ErrNothingToSave)
}
