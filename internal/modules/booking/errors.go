package booking

import "errors"

var (
	ErrNotFound     = errors.New("booking not found")
	ErrInvalidState = errors.New("invalid booking state transition")
	ErrConflict     = errors.New("booking was modified concurrently")
)
