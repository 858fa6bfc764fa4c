package court

import (
	"strings"

	"github.com/cassiomorais/courts/internal/domain/errors"
)

// Type groups courts by sport or surface.
type Type struct {
	ID   int64
	Name string
}

// Court is a physical court that owns schedule slots.
type Court struct {
	ID          int64
	TypeID      int64
	TypeName    string
	Name        string
	Description string
}

// NewCourt creates a court of the given type.
func NewCourt(typeID int64, name, description string) (*Court, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewValidationError("name", "is required")
	}
	if len(name) > 50 {
		return nil, errors.NewValidationError("name", "must be at most 50 characters")
	}
	if typeID <= 0 {
		return nil, errors.NewValidationError("id_type", "must be positive")
	}
	return &Court{
		TypeID:      typeID,
		Name:        name,
		Description: strings.TrimSpace(description),
	}, nil
}
