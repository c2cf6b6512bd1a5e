package device

import "errors"

var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists is returned when creating a device with an ID that already exists.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrDeviceInUse is returned when deleting a device that still has
	// access events or telemetry readings.
	ErrDeviceInUse = errors.New("device: referenced by access events or readings")

	// ErrRoomNotFound is returned when a referenced room does not exist.
	ErrRoomNotFound = errors.New("device: room not found")

	// ErrTokenConflict is a unique violation on the token column.
	ErrTokenConflict = errors.New("device: token already in use")

	// ErrTokenGenerationFailed is returned when every token attempt collided.
	ErrTokenGenerationFailed = errors.New("device: token generation failed")

	// ErrUnknownToken is returned by Authenticate for an empty or unknown token.
	ErrUnknownToken = errors.New("device: unknown token")
)
