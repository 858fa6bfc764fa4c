package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	u, err := NewUser(" Ana ", "Lopez", " Ana@Example.com ", "hash")
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, RoleClient, u.RoleID)
}

func TestNewUser_MissingFields(t *testing.T) {
	tests := []struct {
		name                             string
		uname, lastName, email, password string
	}{
		{"no name", "", "Lopez", "a@b.c", "h"},
		{"no last name", "Ana", "", "a@b.c", "h"},
		{"no email", "Ana", "Lopez", " ", "h"},
		{"no password", "Ana", "Lopez", "a@b.c", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.uname, tt.lastName, tt.email, tt.password)
			assert.Error(t, err)
		})
	}
}

func TestUpdateSet_Empty(t *testing.T) {
	var s UpdateSet
	assert.True(t, s.IsEmpty())
	assert.Empty(t, s.Assignments())
}

func TestUpdateSet_AssignmentsFollowFixedOrder(t *testing.T) {
	var s UpdateSet
	require.NoError(t, s.SetRoleID(1))
	require.NoError(t, s.SetEmail("New@Mail.com"))
	require.NoError(t, s.SetName("Eva"))

	got := s.Assignments()
	require.Len(t, got, 3)
	assert.Equal(t, Assignment{Field: FieldName, Value: "Eva"}, got[0])
	assert.Equal(t, Assignment{Field: FieldEmail, Value: "new@mail.com"}, got[1])
	assert.Equal(t, Assignment{Field: FieldRoleID, Value: int64(1)}, got[2])
}

func TestUpdateSet_RejectsBlankValues(t *testing.T) {
	var s UpdateSet
	assert.Error(t, s.SetName("  "))
	assert.Error(t, s.SetLastName(""))
	assert.Error(t, s.SetEmail(""))
	assert.Error(t, s.SetRoleID(0))
	assert.True(t, s.IsEmpty())
}

func TestUpdateSet_Apply(t *testing.T) {
	u := &User{ID: 1, Name: "Ana", LastName: "Lopez", Email: "ana@x.io", RoleID: RoleClient}

	var s UpdateSet
	require.NoError(t, s.SetLastName("Perez"))
	s.SetPasswordHash("newhash")
	s.Apply(u)

	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "Perez", u.LastName)
	assert.Equal(t, "newhash", u.PasswordHash)
}
