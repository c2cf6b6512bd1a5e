package device

import (
	"strings"

	"github.com/edugate/monitoring-core/internal/apperr"
)

const maxNameLength = 100

// Normalise trims text fields and turns an empty room ID into nil.
func (d *Device) Normalise() {
	d.Name = strings.TrimSpace(d.Name)
	d.Type = Type(strings.ToUpper(strings.TrimSpace(string(d.Type))))
	if d.RoomID != nil {
		id := strings.TrimSpace(*d.RoomID)
		if id == "" {
			d.RoomID = nil
		} else {
			d.RoomID = &id
		}
	}
}

// Validate checks the fields that do not need storage lookups.
func (d *Device) Validate() error {
	var ve apperr.ValidationError

	switch {
	case d.Name == "":
		ve.Add("name", "cannot be empty")
	case len(d.Name) > maxNameLength:
		ve.Add("name", "exceeds 100 characters")
	}

	switch {
	case !d.Type.Valid():
		ve.Add("type", "must be PORTARIA or SALA")
	case d.Type == TypePortaria && d.RoomID != nil:
		ve.Add("roomId", "must be empty for PORTARIA devices")
	}

	return ve.OrNil()
}
