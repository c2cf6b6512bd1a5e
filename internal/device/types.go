package device

import "time"

// Type is the device role.
type Type string

const (
	// TypePortaria is the school gate reader.
	TypePortaria Type = "PORTARIA"

	// TypeSala is a classroom unit.
	TypeSala Type = "SALA"
)

// Valid reports whether t is a known device type.
func (t Type) Valid() bool {
	return t == TypePortaria || t == TypeSala
}

// Device is a registered monitoring device.
type Device struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      Type      `json:"type"`
	RoomID    *string   `json:"roomId,omitempty"`
	IsActive  bool      `json:"isActive"`
	Token     string    `json:"token,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Redacted returns a copy without the token.
func (d Device) Redacted() Device {
	d.Token = ""
	return d
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Type       Type
	RoomID     string
	ActiveOnly bool
}
