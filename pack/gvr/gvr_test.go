package gvr

import (
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/tsurumi/riders_browser/pack"
)

func makeTexture(payloadSize uint32) []byte {
	b := make([]byte, HeaderSize+payloadSize)
	copy(b[0:], "GCIX")
	copy(b[0x10:], "GVRT")
	binary.LittleEndian.PutUint32(b[0x14:], payloadSize)
	for i := uint32(0); i < payloadSize; i++ {
		b[HeaderSize+i] = byte(i)
	}
	return b
}

func TestValidate(t *testing.T) {
	require := require.New(t)

	tex := makeTexture(0x20)
	require.NoError(Validate(tex, 0))

	// repeatable at the same position
	require.NoError(Validate(tex, 0))

	// embedded at a non-zero offset
	buf := append(make([]byte, 0x40), tex...)
	require.NoError(Validate(buf, 0x40))
}

func TestValidateRejects(t *testing.T) {
	require := require.New(t)

	bad := makeTexture(0x20)
	copy(bad[0:], "XXXX")
	require.True(errors.Is(Validate(bad, 0), pack.ErrInvalidMagic))

	bad = makeTexture(0x20)
	copy(bad[0x10:], "XXXX")
	require.True(errors.Is(Validate(bad, 0), pack.ErrInvalidMagic))

	short := makeTexture(0x20)[:0x10]
	require.True(errors.Is(Validate(short, 0), pack.ErrUnexpectedEOF))

	require.True(errors.Is(Validate(makeTexture(0x20), -1), pack.ErrUnexpectedEOF))
}

func TestDeclaredSize(t *testing.T) {
	require := require.New(t)

	tex := makeTexture(0x100)
	size, err := DeclaredSize(tex, 0)
	require.NoError(err)
	require.Equal(uint32(0x100+HeaderSize), size)

	_, err = DeclaredSize(tex[:0x14], 0)
	require.True(errors.Is(err, pack.ErrUnexpectedEOF))
}

func TestExtract(t *testing.T) {
	require := require.New(t)

	tex := makeTexture(0x30)
	trailer := []byte{0xde, 0xad, 0xbe, 0xef}
	buf := append(append([]byte{}, tex...), trailer...)

	extracted, err := Extract("rider", buf, 0)
	require.NoError(err)
	require.Equal("rider", extracted.Name)
	require.Equal(uint32(len(tex)), extracted.Size)
	require.Equal(tex, extracted.Data)

	// owned copy, not aliased
	buf[0x18] ^= 0xff
	require.Equal(tex, extracted.Data)
}

func TestExtractTruncated(t *testing.T) {
	tex := makeTexture(0x30)
	_, err := Extract("rider", tex[:len(tex)-1], 0)
	require.True(t, errors.Is(err, pack.ErrUnexpectedEOF))
}

// A payload size near MaxUint32 must not wrap into a tiny total size.
func TestDeclaredSizeOverflow(t *testing.T) {
	require := require.New(t)

	tex := makeTexture(0x10)
	binary.LittleEndian.PutUint32(tex[0x14:], 0xffffffff-0x10)

	_, err := DeclaredSize(tex, 0)
	require.True(errors.Is(err, pack.ErrInvalidArchive))

	_, err = Extract("rider", tex, 0)
	require.True(errors.Is(err, pack.ErrInvalidArchive))
}
