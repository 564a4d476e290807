package pkg

import "errors"

// Firmware errors.
var (
	// ErrBusy indicates the transport could not accept a report right now.
	ErrBusy = errors.New("transport busy")

	// ErrNotConfigured indicates the transport or host link is not ready.
	ErrNotConfigured = errors.New("not configured")

	// ErrInvalidDimensions indicates a matrix size of zero or beyond the
	// supported maximum.
	ErrInvalidDimensions = errors.New("invalid matrix dimensions")

	// ErrInvalidCoordinate indicates a coordinate outside the matrix.
	ErrInvalidCoordinate = errors.New("coordinate out of range")

	// ErrInvalidLayout indicates a malformed layer table.
	ErrInvalidLayout = errors.New("invalid layout")

	// ErrInvalidLayer indicates an action referencing a layer that does not exist.
	ErrInvalidLayer = errors.New("layer index out of range")

	// ErrNestingTooDeep indicates nested actions beyond the supported depth.
	ErrNestingTooDeep = errors.New("action nesting too deep")

	// ErrInvalidAction indicates an action with missing or invalid fields.
	ErrInvalidAction = errors.New("invalid action")

	// ErrInvalidConfig indicates an invalid firmware configuration value.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidKeymap indicates an undecodable or unsupported keymap file.
	ErrInvalidKeymap = errors.New("invalid keymap")

	// ErrBufferTooSmall indicates the provided buffer is too small.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrAlreadyRunning indicates the keyboard loop is already running.
	ErrAlreadyRunning = errors.New("already running")

	// ErrClosed indicates the transport has been closed.
	ErrClosed = errors.New("transport closed")
)
