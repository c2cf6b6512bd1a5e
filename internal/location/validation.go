package location

import (
	"strings"

	"github.com/edugate/monitoring-core/internal/apperr"
)

const (
	maxNameLength     = 100
	maxLocationLength = 200
)

// Validate checks a room before it is written and trims its text fields.
func (r *Room) Validate() error {
	var ve apperr.ValidationError

	r.Name = strings.TrimSpace(r.Name)
	r.Location = strings.TrimSpace(r.Location)

	switch {
	case r.Name == "":
		ve.Add("name", "cannot be empty")
	case len(r.Name) > maxNameLength:
		ve.Add("name", "exceeds 100 characters")
	}
	if len(r.Location) > maxLocationLength {
		ve.Add("location", "exceeds 200 characters")
	}

	return ve.OrNil()
}
