package location

import "errors"

var (
	// ErrRoomNotFound is returned when a room ID does not exist.
	ErrRoomNotFound = errors.New("location: room not found")

	// ErrRoomInactive is returned by GetActiveByID for a deactivated room.
	ErrRoomInactive = errors.New("location: room is inactive")
)
