package workdays

import "errors"

var (
	// ErrInvalidArgument reports a call argument outside its allowed domain,
	// such as a zero day count, a negative duration or an unknown selector.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInconsistentInput reports instants tagged with different offsets in
	// a single call.
	ErrInconsistentInput = errors.New("inconsistent input")

	// ErrConfiguration reports a calendar configuration that Rebuild rejects.
	ErrConfiguration = errors.New("configuration error")
)
