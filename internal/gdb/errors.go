package gdb

import "errors"

// Sentinel errors for the gdb engine. Errors returned by Session operations
// wrap one of these, so callers can route on errors.Is: a timeout suggests
// retry, a lost connection suggests restarting the backend.
var (
	// ErrNotConnected is returned when an operation requires a live
	// backend process and there is none.
	ErrNotConnected = errors.New("no live debugger process")

	// ErrProcess is returned when the backend cannot be spawned or
	// terminates abnormally.
	ErrProcess = errors.New("debugger process failure")

	// ErrCommand is returned when a write to the backend fails, typically
	// a broken pipe after the backend died.
	ErrCommand = errors.New("command write failed")

	// ErrParse is returned when a reply cannot be decoded into the shape
	// an operation requires.
	ErrParse = errors.New("malformed debugger reply")

	// ErrTimeout is returned when no correlated reply arrives within the
	// deadline. The outstanding backend command is not cancelled; a late
	// reply is discarded.
	ErrTimeout = errors.New("timed out waiting for reply")

	// ErrMemoryAccess is returned when a memory read fails or its reply
	// is unusable.
	ErrMemoryAccess = errors.New("memory access failed")
)
