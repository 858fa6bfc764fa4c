package user

import (
	"strings"

	"github.com/cassiomorais/courts/internal/domain/errors"
)

// Field names a column a profile update may touch.
type Field string

const (
	FieldName     Field = "name"
	FieldLastName Field = "last_name"
	FieldEmail    Field = "email"
	FieldPassword Field = "password"
	FieldRoleID   Field = "id_role"
)

// updatableFields is the closed set of profile columns, in statement order.
var updatableFields = []Field{FieldName, FieldLastName, FieldEmail, FieldPassword, FieldRoleID}

// Assignment is one field paired with its new value.
type Assignment struct {
	Field Field
	Value any
}

// UpdateSet collects the profile fields a caller wants to change.
// The zero value is an empty set.
type UpdateSet struct {
	values map[Field]any
}

func (s *UpdateSet) set(f Field, v any) {
	if s.values == nil {
		s.values = make(map[Field]any, len(updatableFields))
	}
	s.values[f] = v
}

func (s *UpdateSet) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.NewValidationError("name", "cannot be empty")
	}
	s.set(FieldName, name)
	return nil
}

func (s *UpdateSet) SetLastName(lastName string) error {
	lastName = strings.TrimSpace(lastName)
	if lastName == "" {
		return errors.NewValidationError("last_name", "cannot be empty")
	}
	s.set(FieldLastName, lastName)
	return nil
}

func (s *UpdateSet) SetEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return errors.NewValidationError("email", "cannot be empty")
	}
	s.set(FieldEmail, email)
	return nil
}

// SetPasswordHash stores an already hashed password.
func (s *UpdateSet) SetPasswordHash(hash string) {
	s.set(FieldPassword, hash)
}

func (s *UpdateSet) SetRoleID(roleID int64) error {
	if roleID <= 0 {
		return errors.NewValidationError("id_role", "must be positive")
	}
	s.set(FieldRoleID, roleID)
	return nil
}

// IsEmpty reports whether no field was set.
func (s *UpdateSet) IsEmpty() bool {
	return len(s.values) == 0
}

// Assignments returns the set fields in a fixed order.
func (s *UpdateSet) Assignments() []Assignment {
	out := make([]Assignment, 0, len(s.values))
	for _, f := range updatableFields {
		if v, ok := s.values[f]; ok {
			out = append(out, Assignment{Field: f, Value: v})
		}
	}
	return out
}

// Apply copies the set fields onto u.
func (s *UpdateSet) Apply(u *User) {
	for _, a := range s.Assignments() {
		switch a.Field {
		case FieldName:
			u.Name = a.Value.(string)
		case FieldLastName:
			u.LastName = a.Value.(string)
		case FieldEmail:
			u.Email = a.Value.(string)
		case FieldPassword:
			u.PasswordHash = a.Value.(string)
		case FieldRoleID:
			u.RoleID = a.Value.(int64)
		}
	}
}
