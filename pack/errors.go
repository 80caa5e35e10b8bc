package pack

import "github.com/pkg/errors"

// Failure kinds shared by every archive codec. Codecs wrap these with
// context via github.com/pkg/errors, callers match with errors.Is.
var (
	// ErrUnexpectedEOF - buffer ended before a demanded read.
	ErrUnexpectedEOF = errors.New("unexpected end of buffer")
	// ErrInvalidMagic - texture header magic mismatch.
	ErrInvalidMagic = errors.New("invalid magic")
	// ErrInvalidArchive - structural invariant of the container violated.
	ErrInvalidArchive = errors.New("invalid archive")
	// ErrInvalidName - unreadable byte inside a name table.
	ErrInvalidName = errors.New("invalid name")
)
