package packman

import (
	"bytes"
	"encoding/binary"
	"log"
	"math"

	"github.com/pkg/errors"

	"github.com/tsurumi/riders_browser/pack"
	"github.com/tsurumi/riders_browser/utils"
)

// File is one payload slot in a folder. A slot with no data is a
// real thing in the format: its offset-table entry is written as 0
// and the game treats it as an absent file.
type File struct {
	Data []byte `json:"-"`

	// offset assigned during the last export, used only for the
	// write-position consistency check
	exportedOffset uint32
}

func NewFile(data []byte) *File {
	return &File{Data: data}
}

func (f *File) IsEmpty() bool {
	return len(f.Data) == 0
}

// Folder groups files under a folder ID the game loader dispatches
// on. IDValid keeps "no ID entered yet" distinct from "ID is 0".
type Folder struct {
	ID      uint16
	IDValid bool
	Files   []*File
}

func NewFolder(id uint16) *Folder {
	return &Folder{ID: id, IDValid: true}
}

func (f *Folder) SetID(id uint16) {
	f.ID = id
	f.IDValid = true
}

func (f *Folder) hasPayload() bool {
	for _, file := range f.Files {
		if !file.IsEmpty() {
			return true
		}
	}
	return false
}

// Archive is the generic container most of the game's assets ship in.
type Archive struct {
	Source utils.ResourceSource `json:"-"`

	Folders []*Folder
}

// ReadArchive parses a PackMan archive out of a raw buffer.
//
// The format stores no file lengths. A file spans from its offset to
// the next non-zero offset in the table, the last one runs to the end
// of the buffer.
func ReadArchive(b []byte) (*Archive, error) {
	if len(b) < 4 {
		return nil, errors.Wrapf(pack.ErrUnexpectedEOF, "Archive header")
	}
	folderCount := int(binary.BigEndian.Uint32(b[0:4]))

	pos := 4
	if pos+folderCount > len(b) {
		return nil, errors.Wrapf(pack.ErrUnexpectedEOF, "File count table of %d folders", folderCount)
	}

	arc := &Archive{Folders: make([]*Folder, 0, folderCount)}

	fileCounts := make([]int, folderCount)
	totalFileCount := 0
	for i := 0; i < folderCount; i++ {
		fileCounts[i] = int(b[pos])
		totalFileCount += fileCounts[i]
		pos++
		arc.Folders = append(arc.Folders, &Folder{
			Files: make([]*File, 0, fileCounts[i]),
		})
	}

	pos = int(utils.Align4(uint32(pos)))

	// skip the first-file-index table, it is derivable from the file
	// counts and rebuilt on export
	pos += 2 * folderCount

	if pos+2*folderCount > len(b) {
		return nil, errors.Wrapf(pack.ErrUnexpectedEOF, "Folder ID table")
	}
	for _, folder := range arc.Folders {
		folder.ID = binary.BigEndian.Uint16(b[pos : pos+2])
		folder.IDValid = true
		pos += 2
	}

	if pos+4*totalFileCount > len(b) {
		return nil, errors.Wrapf(pack.ErrUnexpectedEOF, "Offset table of %d files", totalFileCount)
	}

	// flattened offset table walk
	k := 0
	for fi, folder := range arc.Folders {
		for slot := 0; slot < fileCounts[fi]; slot++ {
			offset := binary.BigEndian.Uint32(b[pos : pos+4])
			pos += 4
			k++

			if offset == 0 {
				folder.Files = append(folder.Files, &File{})
				continue
			}

			// scan ahead for the next non-zero offset, the gap is
			// this file's size
			end := uint32(len(b))
			for scan, rest := pos, k; rest < totalFileCount; scan, rest = scan+4, rest+1 {
				if next := binary.BigEndian.Uint32(b[scan : scan+4]); next != 0 {
					end = next
					break
				}
			}

			if end < offset {
				return nil, errors.Wrapf(pack.ErrInvalidArchive,
					"Offset table not monotonic: file %d at 0x%x ends at 0x%x", k-1, offset, end)
			}
			if uint64(end) > uint64(len(b)) {
				return nil, errors.Wrapf(pack.ErrInvalidArchive,
					"File %d at 0x%x ends at 0x%x past buffer end 0x%x", k-1, offset, end, len(b))
			}

			data := make([]byte, end-offset)
			copy(data, b[offset:end])
			folder.Files = append(folder.Files, NewFile(data))
		}
	}

	return arc, nil
}

func (a *Archive) totalFileCount() int {
	count := 0
	for _, folder := range a.Folders {
		count += len(folder.Files)
	}
	return count
}

// checkExportable enforces the caller contract: every folder needs a
// valid ID and at least one non-empty file.
func (a *Archive) checkExportable() error {
	seen := make(map[uint16]int)
	for i, folder := range a.Folders {
		if !folder.IDValid {
			return errors.Wrapf(pack.ErrInvalidArchive, "Folder %d has no ID assigned", i)
		}
		if !folder.hasPayload() {
			return errors.Wrapf(pack.ErrInvalidArchive, "Folder %d (ID %d) has no files with data", i, folder.ID)
		}
		if prev, dup := seen[folder.ID]; dup {
			// retail archives are free to repeat IDs, so only warn
			log.Printf("[packman] Folders %d and %d share ID %d", prev, i, folder.ID)
		}
		seen[folder.ID] = i
	}
	return nil
}

// Marshal builds the archive file image.
func (a *Archive) Marshal() ([]byte, error) {
	if err := a.checkExportable(); err != nil {
		return nil, err
	}

	totalFileCount := a.totalFileCount()
	if totalFileCount > math.MaxUint16 {
		return nil, errors.Wrapf(pack.ErrInvalidArchive, "Too many files (%d)", totalFileCount)
	}

	var buf bytes.Buffer

	var u32 [4]byte
	binary.BigEndian.PutUint32(u32[:], uint32(len(a.Folders)))
	buf.Write(u32[:])

	for i, folder := range a.Folders {
		if len(folder.Files) > math.MaxUint8 {
			return nil, errors.Wrapf(pack.ErrInvalidArchive, "Folder %d has too many files (%d)", i, len(folder.Files))
		}
		buf.WriteByte(byte(len(folder.Files)))
	}

	pad(&buf, utils.Align4(uint32(buf.Len())))

	var u16 [2]byte
	firstFileIdx := uint16(0)
	for _, folder := range a.Folders {
		binary.BigEndian.PutUint16(u16[:], firstFileIdx)
		buf.Write(u16[:])
		firstFileIdx += uint16(len(folder.Files))
	}

	for _, folder := range a.Folders {
		binary.BigEndian.PutUint16(u16[:], folder.ID)
		buf.Write(u16[:])
	}

	firstFileOffset := utils.Align32(uint32(buf.Len() + 4*totalFileCount))

	curFileOffset := firstFileOffset
	for _, folder := range a.Folders {
		for _, f := range folder.Files {
			if f.IsEmpty() {
				binary.BigEndian.PutUint32(u32[:], 0)
				buf.Write(u32[:])
				continue
			}

			binary.BigEndian.PutUint32(u32[:], curFileOffset)
			buf.Write(u32[:])
			f.exportedOffset = curFileOffset
			curFileOffset = utils.Align32(curFileOffset + uint32(len(f.Data)))
		}
	}

	pad(&buf, firstFileOffset)

	for fi, folder := range a.Folders {
		for si, f := range folder.Files {
			if f.IsEmpty() {
				continue
			}

			// hard invariant, not a debug assert: a drift here means
			// the offset table lies about where the payload sits
			if uint32(buf.Len()) != f.exportedOffset {
				return nil, errors.Wrapf(pack.ErrInvalidArchive,
					"File %d/%d lands at 0x%x instead of assigned 0x%x", fi, si, buf.Len(), f.exportedOffset)
			}

			buf.Write(f.Data)
			pad(&buf, utils.Align32(uint32(buf.Len())))
		}
	}

	return buf.Bytes(), nil
}

func pad(buf *bytes.Buffer, to uint32) {
	for uint32(buf.Len()) < to {
		buf.WriteByte(0)
	}
}

// Save marshals the archive and writes it back to its source file.
func (a *Archive) Save() error {
	if a.Source == nil {
		return errors.New("Archive was not loaded from a file")
	}

	data, err := a.Marshal()
	if err != nil {
		return err
	}
	return a.Source.Save(data)
}

func (a *Archive) checkFolder(i int) error {
	if i < 0 || i >= len(a.Folders) {
		return errors.Errorf("Folder index %d out of range (%d folders)", i, len(a.Folders))
	}
	return nil
}

func (a *Archive) checkFile(folder, file int) error {
	if err := a.checkFolder(folder); err != nil {
		return err
	}
	if file < 0 || file >= len(a.Folders[folder].Files) {
		return errors.Errorf("File index %d out of range (folder %d has %d files)",
			file, folder, len(a.Folders[folder].Files))
	}
	return nil
}

func (a *Archive) AddFolder(f *Folder) {
	a.Folders = append(a.Folders, f)
}

func (a *Archive) RemoveFolder(i int) error {
	if err := a.checkFolder(i); err != nil {
		return err
	}
	a.Folders = append(a.Folders[:i], a.Folders[i+1:]...)
	return nil
}

func (a *Archive) SwapFolders(i, j int) error {
	if err := a.checkFolder(i); err != nil {
		return err
	}
	if err := a.checkFolder(j); err != nil {
		return err
	}
	a.Folders[i], a.Folders[j] = a.Folders[j], a.Folders[i]
	return nil
}

func (a *Archive) SetFolderID(i int, id uint16) error {
	if err := a.checkFolder(i); err != nil {
		return err
	}
	a.Folders[i].SetID(id)
	return nil
}

func (a *Archive) AddFile(folder int, f *File) error {
	if err := a.checkFolder(folder); err != nil {
		return err
	}
	a.Folders[folder].Files = append(a.Folders[folder].Files, f)
	return nil
}

func (a *Archive) RemoveFile(folder, file int) error {
	if err := a.checkFile(folder, file); err != nil {
		return err
	}
	files := a.Folders[folder].Files
	a.Folders[folder].Files = append(files[:file], files[file+1:]...)
	return nil
}

func (a *Archive) SwapFiles(folder, i, j int) error {
	if err := a.checkFile(folder, i); err != nil {
		return err
	}
	if err := a.checkFile(folder, j); err != nil {
		return err
	}
	files := a.Folders[folder].Files
	files[i], files[j] = files[j], files[i]
	return nil
}

func (a *Archive) ReplaceFile(folder, file int, data []byte) error {
	if err := a.checkFile(folder, file); err != nil {
		return err
	}
	a.Folders[folder].Files[file].Data = data
	return nil
}

func init() {
	loader := func(src utils.ResourceSource, data []byte) (interface{}, error) {
		arc, err := ReadArchive(data)
		if err != nil {
			return nil, err
		}
		arc.Source = src
		return arc, nil
	}
	// most of the game's files are extension-less PackMan containers
	pack.SetHandler("", loader)
	pack.SetHandler(".PAK", loader)
	pack.SetHandler(".BIN", loader)
}
