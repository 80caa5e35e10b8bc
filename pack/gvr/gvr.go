package gvr

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/tsurumi/riders_browser/pack"
)

// Gamecube texture blob. Two header blocks back to back:
// 0x00 "GCIX" magic, 0xc reserved bytes, 0x10 "GVRT" magic,
// 0x14 little-endian payload size, 0x18 payload.
const (
	magicGCIX = "GCIX"
	magicGVRT = "GVRT"

	gvrtMagicOffset = 0x10
	sizeOffset      = 0x14

	// HeaderSize covers both magic blocks and the size field. The
	// size stored in the file does not include it.
	HeaderSize = 0x18
)

type Texture struct {
	// Name of the texture without extension.
	Name string
	// Size of the full texture in bytes, headers included.
	Size uint32
	// Data holds the full texture, starting at the GCIX magic.
	Data []byte `json:"-"`
}

// NewTexture wraps an already extracted texture blob. No validation
// is performed; use Extract when the buffer is untrusted.
func NewTexture(name string, data []byte) *Texture {
	return &Texture{
		Name: name,
		Size: uint32(len(data)),
		Data: data,
	}
}

// Validate checks both magics of a texture starting at off. It only
// inspects the buffer and can be called repeatedly at the same
// position.
func Validate(b []byte, off int) error {
	if off < 0 || off+gvrtMagicOffset+4 > len(b) {
		return errors.Wrapf(pack.ErrUnexpectedEOF, "Texture header at 0x%x", off)
	}

	if string(b[off:off+4]) != magicGCIX {
		return errors.Wrapf(pack.ErrInvalidMagic, "Expected %q at 0x%x", magicGCIX, off)
	}

	if string(b[off+gvrtMagicOffset:off+gvrtMagicOffset+4]) != magicGVRT {
		return errors.Wrapf(pack.ErrInvalidMagic, "Expected %q at 0x%x", magicGVRT, off+gvrtMagicOffset)
	}

	return nil
}

// DeclaredSize reads the payload size field of a texture starting at
// off and returns the full texture size, headers included.
func DeclaredSize(b []byte, off int) (uint32, error) {
	if off < 0 || off+sizeOffset+4 > len(b) {
		return 0, errors.Wrapf(pack.ErrUnexpectedEOF, "Texture size field at 0x%x", off)
	}

	inner := binary.LittleEndian.Uint32(b[off+sizeOffset : off+sizeOffset+4])
	if inner > math.MaxUint32-HeaderSize {
		// adding the header size would wrap to a tiny "valid" size
		return 0, errors.Wrapf(pack.ErrInvalidArchive, "Texture at 0x%x declares impossible size 0x%x", off, inner)
	}

	return inner + HeaderSize, nil
}

// Extract validates the texture starting at off and copies it out of
// the parent buffer into an owned one.
func Extract(name string, b []byte, off int) (*Texture, error) {
	if err := Validate(b, off); err != nil {
		return nil, err
	}

	size, err := DeclaredSize(b, off)
	if err != nil {
		return nil, err
	}

	if uint64(off)+uint64(size) > uint64(len(b)) {
		return nil, errors.Wrapf(pack.ErrUnexpectedEOF,
			"Texture at 0x%x declares 0x%x bytes, buffer has 0x%x left", off, size, len(b)-off)
	}

	data := make([]byte, size)
	copy(data, b[off:off+int(size)])

	return &Texture{
		Name: name,
		Size: size,
		Data: data,
	}, nil
}
