package access

import "errors"

var (
	// ErrInvalidSource is returned for a source other than manual or auto.
	ErrInvalidSource = errors.New("access: invalid source")
)
