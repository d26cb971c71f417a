package atom

import "errors"

var (
	// ErrShortRead is returned when fewer bytes remain than a read requires.
	ErrShortRead = errors.New("short read")

	// ErrInvalidLength is returned for a length field that cannot describe
	// its own header.
	ErrInvalidLength = errors.New("invalid length")

	// ErrOutOfBounds is returned when an atom claims to extend past its
	// parent or past the end of the file.
	ErrOutOfBounds = errors.New("atom extends past its container")

	// ErrPayloadTooLarge is returned by Tree.Payload for atoms too large to
	// buffer in memory.
	ErrPayloadTooLarge = errors.New("payload too large")
)
