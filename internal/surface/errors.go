package surface

import "errors"

// Sentinel errors for the window and framebuffer operations. Callers
// match with errors.Is; the protocol layer turns them into Error
// envelopes verbatim.
var (
	// ErrInvalidArgument indicates bad creation parameters.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound indicates an unknown window id.
	ErrNotFound = errors.New("not found")

	// ErrMalformedPixelData indicates pixel data whose length does not
	// match the blit rectangle.
	ErrMalformedPixelData = errors.New("malformed pixel data")

	// ErrOutOfBounds indicates a blit rectangle that extends past the
	// framebuffer edge.
	ErrOutOfBounds = errors.New("out of bounds")
)
