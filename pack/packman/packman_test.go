package packman

import (
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/tsurumi/riders_browser/pack"
)

func makeArchive() *Archive {
	arc := &Archive{}

	f0 := NewFolder(10)
	f0.Files = append(f0.Files, NewFile([]byte("first file payload")))
	f0.Files = append(f0.Files, &File{}) // empty slot
	f0.Files = append(f0.Files, NewFile(make([]byte, 100)))

	f1 := NewFolder(0) // ID 0 is legal once entered
	f1.Files = append(f1.Files, NewFile([]byte{0xaa, 0xbb}))

	arc.AddFolder(f0)
	arc.AddFolder(f1)
	return arc
}

func TestRoundTrip(t *testing.T) {
	require := require.New(t)

	arc := makeArchive()
	data, err := arc.Marshal()
	require.NoError(err)

	back, err := ReadArchive(data)
	require.NoError(err)
	require.Len(back.Folders, 2)

	for i, folder := range back.Folders {
		require.Equal(arc.Folders[i].ID, folder.ID)
		require.True(folder.IDValid)
		require.Len(folder.Files, len(arc.Folders[i].Files))
	}

	require.Equal([]byte("first file payload"), back.Folders[0].Files[0].Data[:18])
	require.True(back.Folders[0].Files[1].IsEmpty())
	require.Equal([]byte{0xaa, 0xbb}, back.Folders[1].Files[0].Data[:2])
}

// Payloads are padded to 32 bytes, so a re-read sees the padding as
// part of the preceding file. Re-exporting must reproduce the exact
// same image.
func TestRemarshalStable(t *testing.T) {
	require := require.New(t)

	data, err := makeArchive().Marshal()
	require.NoError(err)

	back, err := ReadArchive(data)
	require.NoError(err)

	again, err := back.Marshal()
	require.NoError(err)
	require.Equal(data, again)
}

func TestPayloadsAligned(t *testing.T) {
	require := require.New(t)

	data, err := makeArchive().Marshal()
	require.NoError(err)

	back, err := ReadArchive(data)
	require.NoError(err)

	for _, folder := range back.Folders {
		for _, f := range folder.Files {
			f.exportedOffset = 0
		}
	}
	_, err = back.Marshal()
	require.NoError(err)

	for _, folder := range back.Folders {
		for _, f := range folder.Files {
			if !f.IsEmpty() {
				require.Zero(f.exportedOffset % 32)
			}
		}
	}
}

func TestExportRefusedWithoutID(t *testing.T) {
	arc := makeArchive()
	arc.Folders[1].IDValid = false

	_, err := arc.Marshal()
	require.True(t, errors.Is(err, pack.ErrInvalidArchive))
}

func TestExportRefusedEmptyFolder(t *testing.T) {
	arc := makeArchive()
	arc.Folders[1].Files = []*File{{}}

	_, err := arc.Marshal()
	require.True(t, errors.Is(err, pack.ErrInvalidArchive))
}

func TestDuplicateFolderIDsAllowed(t *testing.T) {
	require := require.New(t)

	arc := makeArchive()
	require.NoError(arc.SetFolderID(1, 10))

	data, err := arc.Marshal()
	require.NoError(err)

	back, err := ReadArchive(data)
	require.NoError(err)
	require.Equal(uint16(10), back.Folders[0].ID)
	require.Equal(uint16(10), back.Folders[1].ID)
}

func TestNonMonotonicOffsets(t *testing.T) {
	require := require.New(t)

	arc := &Archive{}
	folder := NewFolder(1)
	folder.Files = append(folder.Files, NewFile(make([]byte, 40)))
	folder.Files = append(folder.Files, NewFile(make([]byte, 40)))
	arc.AddFolder(folder)

	data, err := arc.Marshal()
	require.NoError(err)

	// header(4) + counts(1) -> pad(8) + first-index(2) + ids(2): the
	// offset table sits at 12, its two entries at 12 and 16
	o1 := binary.BigEndian.Uint32(data[12:16])
	o2 := binary.BigEndian.Uint32(data[16:20])
	require.Less(o1, o2)
	binary.BigEndian.PutUint32(data[12:16], o2)
	binary.BigEndian.PutUint32(data[16:20], o1)

	_, err = ReadArchive(data)
	require.True(errors.Is(err, pack.ErrInvalidArchive))
}

func TestOffsetPastBufferEnd(t *testing.T) {
	require := require.New(t)

	arc := &Archive{}
	folder := NewFolder(1)
	folder.Files = append(folder.Files, NewFile(make([]byte, 40)))
	arc.AddFolder(folder)

	data, err := arc.Marshal()
	require.NoError(err)

	// single file runs to end-of-buffer; pushing its offset past the
	// end must not panic
	binary.BigEndian.PutUint32(data[12:16], uint32(len(data)+32))
	_, err = ReadArchive(data)
	require.True(errors.Is(err, pack.ErrInvalidArchive))
}

func TestTruncated(t *testing.T) {
	require := require.New(t)

	data, err := makeArchive().Marshal()
	require.NoError(err)

	for _, cut := range []int{0, 3, 5, 9, 13} {
		_, err := ReadArchive(data[:cut])
		require.Errorf(err, "cut at %d", cut)
		require.True(errors.Is(err, pack.ErrUnexpectedEOF), "cut at %d: %v", cut, err)
	}
}

func TestListEdits(t *testing.T) {
	require := require.New(t)

	arc := makeArchive()

	require.NoError(arc.SwapFolders(0, 1))
	require.Equal(uint16(0), arc.Folders[0].ID)

	require.NoError(arc.SetFolderID(0, 77))
	require.Equal(uint16(77), arc.Folders[0].ID)
	require.True(arc.Folders[0].IDValid)

	require.NoError(arc.AddFile(0, NewFile([]byte{1})))
	require.Len(arc.Folders[0].Files, 2)

	require.NoError(arc.SwapFiles(0, 0, 1))
	require.Equal([]byte{1}, arc.Folders[0].Files[0].Data)

	require.NoError(arc.ReplaceFile(0, 0, []byte{9, 9}))
	require.Equal([]byte{9, 9}, arc.Folders[0].Files[0].Data)

	require.NoError(arc.RemoveFile(0, 1))
	require.Len(arc.Folders[0].Files, 1)

	require.NoError(arc.RemoveFolder(1))
	require.Len(arc.Folders, 1)

	require.Error(arc.RemoveFolder(5))
	require.Error(arc.SwapFolders(0, 5))
	require.Error(arc.SetFolderID(5, 1))
	require.Error(arc.AddFile(5, NewFile(nil)))
	require.Error(arc.RemoveFile(0, 5))
	require.Error(arc.SwapFiles(0, 0, 5))
	require.Error(arc.ReplaceFile(0, 5, nil))
}
