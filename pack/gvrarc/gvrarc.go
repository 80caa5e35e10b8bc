package gvrarc

import (
	"bytes"
	"encoding/binary"
	"log"
	"math"

	"github.com/pkg/errors"

	"github.com/tsurumi/riders_browser/pack"
	"github.com/tsurumi/riders_browser/pack/gvr"
	"github.com/tsurumi/riders_browser/utils"
)

const headerSize = 4

// texture flag byte emitted once per texture in model-less archives
const textureFlag = 0x11

// substituted on export for textures that lost their name
const unnamedTexture = "unnamed"

// SkippedTexture records a texture whose offset-table entry could not
// be extracted during read. The original game files never trigger
// this, so it is surfaced instead of silently shortening the list.
type SkippedTexture struct {
	Index  int
	Name   string
	Reason string
}

// Archive is a container of named gamecube textures. The game stores
// them either standalone or trailing a model, the header flag tells
// which.
type Archive struct {
	Source utils.ResourceSource `json:"-"`

	// WithoutModel marks a standalone texture archive. Such files
	// carry one extra flag byte per texture between the offset table
	// and the name table.
	WithoutModel bool

	Textures []*gvr.Texture

	Skipped []SkippedTexture `json:",omitempty"`
}

// ReadArchive parses a texture archive out of a raw buffer.
func ReadArchive(b []byte) (*Archive, error) {
	if len(b) < headerSize {
		return nil, errors.Wrapf(pack.ErrUnexpectedEOF, "Archive header")
	}

	textureCount := int(binary.BigEndian.Uint16(b[0:2]))
	modelFlag := binary.BigEndian.Uint16(b[2:4])

	if modelFlag > 1 {
		return nil, errors.Wrapf(pack.ErrInvalidArchive, "Bad model flag value %d", modelFlag)
	}

	arc := &Archive{
		WithoutModel: modelFlag == 1,
		Textures:     make([]*gvr.Texture, 0, textureCount),
	}

	pos := headerSize
	if pos+textureCount*4 > len(b) {
		return nil, errors.Wrapf(pack.ErrUnexpectedEOF, "Offset table of %d entries", textureCount)
	}

	offsets := make([]uint32, textureCount)
	for i := range offsets {
		offsets[i] = binary.BigEndian.Uint32(b[pos : pos+4])
		pos += 4
	}

	if arc.WithoutModel {
		// one flag byte per texture, values not retained
		pos += textureCount
		if pos > len(b) {
			return nil, errors.Wrapf(pack.ErrUnexpectedEOF, "Texture flags table")
		}
	}

	for i := 0; i < textureCount; i++ {
		zero := bytes.IndexByte(b[pos:], 0)
		if zero < 0 {
			return nil, errors.Wrapf(pack.ErrUnexpectedEOF, "Name of texture %d is not terminated", i)
		}

		rawName := b[pos : pos+zero]
		pos += zero + 1

		if !utils.IsASCIIReadable(rawName) {
			return nil, errors.Wrapf(pack.ErrInvalidName,
				"Texture %d name %q", i, utils.DumpToOneLineString(rawName))
		}
		name := utils.BytesToString(rawName)

		tex, err := gvr.Extract(name, b, int(offsets[i]))
		if err != nil {
			arc.Skipped = append(arc.Skipped, SkippedTexture{
				Index:  i,
				Name:   name,
				Reason: err.Error(),
			})
			log.Printf("[gvrarc] Skipping texture %d %q: %v", i, name, err)
			continue
		}
		arc.Textures = append(arc.Textures, tex)
	}

	// Redundant structural pass over the raw offsets. A texture that
	// was skipped above for a non-structural reason still has to
	// carry valid headers, otherwise the archive itself is bad.
	for i, off := range offsets {
		if err := gvr.Validate(b, int(off)); err != nil {
			return nil, errors.Wrapf(pack.ErrInvalidArchive, "Texture %d at 0x%x: %v", i, off, err)
		}
		if _, err := gvr.DeclaredSize(b, int(off)); err != nil {
			return nil, errors.Wrapf(pack.ErrInvalidArchive, "Texture %d at 0x%x: %v", i, off, err)
		}
	}

	return arc, nil
}

// writtenName returns the name bytes as they will appear in the file.
func writtenName(t *gvr.Texture) []byte {
	if t.Name == "" {
		return []byte(unnamedTexture)
	}
	return utils.StringToBytes(t.Name, false)
}

func (a *Archive) firstTextureOffset() uint32 {
	result := uint32(headerSize)
	result += uint32(len(a.Textures) * 4)

	if a.WithoutModel {
		result += uint32(len(a.Textures))
	}

	for _, tex := range a.Textures {
		result += uint32(len(writtenName(tex)) + 1)
	}

	return utils.Align32(result)
}

func (a *Archive) offsetTable() ([]uint32, error) {
	offsets := make([]uint32, 0, len(a.Textures))
	cur := uint64(a.firstTextureOffset())

	for i, tex := range a.Textures {
		if cur > math.MaxUint32 {
			return nil, errors.Wrapf(pack.ErrInvalidArchive, "Texture %d offset exceeds 32 bits", i)
		}
		offsets = append(offsets, uint32(cur))
		cur += uint64(tex.Size)
	}

	return offsets, nil
}

// Marshal builds the archive file image. Re-reading the result yields
// the same textures with byte-identical data; nameless textures come
// back named "unnamed".
func (a *Archive) Marshal() ([]byte, error) {
	if len(a.Textures) == 0 {
		return nil, errors.Wrapf(pack.ErrInvalidArchive, "Refusing to export archive with no textures")
	}
	if len(a.Textures) > math.MaxUint16 {
		return nil, errors.Wrapf(pack.ErrInvalidArchive, "Too many textures (%d)", len(a.Textures))
	}

	for i, tex := range a.Textures {
		if tex.Size != uint32(len(tex.Data)) {
			return nil, errors.Wrapf(pack.ErrInvalidArchive,
				"Texture %d %q declares size 0x%x but holds 0x%x bytes", i, tex.Name, tex.Size, len(tex.Data))
		}
	}

	offsets, err := a.offsetTable()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	var header [4]byte
	binary.BigEndian.PutUint16(header[0:2], uint16(len(a.Textures)))
	var flag uint16
	if a.WithoutModel {
		flag = 1
	}
	binary.BigEndian.PutUint16(header[2:4], flag)
	buf.Write(header[:])

	var obuf [4]byte
	for _, off := range offsets {
		binary.BigEndian.PutUint32(obuf[:], off)
		buf.Write(obuf[:])
	}

	if a.WithoutModel {
		for range a.Textures {
			buf.WriteByte(textureFlag)
		}
	}

	for _, tex := range a.Textures {
		buf.Write(writtenName(tex))
		buf.WriteByte(0)
	}

	if buf.Len() > int(offsets[0]) {
		return nil, errors.Wrapf(pack.ErrInvalidArchive,
			"Header accounting drifted: 0x%x written, first texture at 0x%x", buf.Len(), offsets[0])
	}
	buf.Write(make([]byte, int(offsets[0])-buf.Len()))

	for i, tex := range a.Textures {
		if buf.Len() != int(offsets[i]) {
			return nil, errors.Wrapf(pack.ErrInvalidArchive,
				"Texture %d lands at 0x%x instead of assigned 0x%x", i, buf.Len(), offsets[i])
		}
		buf.Write(tex.Data)
	}

	return buf.Bytes(), nil
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

func (a *Archive) checkIndex(i int) error {
	if i < 0 || i >= len(a.Textures) {
		return errors.Errorf("Texture index %d out of range (%d textures)", i, len(a.Textures))
	}
	return nil
}

func (a *Archive) Append(t *gvr.Texture) {
	a.Textures = append(a.Textures, t)
}

func (a *Archive) Remove(i int) error {
	if err := a.checkIndex(i); err != nil {
		return err
	}
	a.Textures = append(a.Textures[:i], a.Textures[i+1:]...)
	return nil
}

func (a *Archive) Swap(i, j int) error {
	if err := a.checkIndex(i); err != nil {
		return err
	}
	if err := a.checkIndex(j); err != nil {
		return err
	}
	a.Textures[i], a.Textures[j] = a.Textures[j], a.Textures[i]
	return nil
}

func (a *Archive) Rename(i int, name string) error {
	if err := a.checkIndex(i); err != nil {
		return err
	}
	a.Textures[i].Name = name
	return nil
}

// Duplicate inserts a deep copy of texture i right after it.
func (a *Archive) Duplicate(i int) error {
	if err := a.checkIndex(i); err != nil {
		return err
	}

	src := a.Textures[i]
	data := make([]byte, len(src.Data))
	copy(data, src.Data)
	dup := &gvr.Texture{Name: src.Name, Size: src.Size, Data: data}

	a.Textures = append(a.Textures, nil)
	copy(a.Textures[i+2:], a.Textures[i+1:])
	a.Textures[i+1] = dup
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
	pack.SetHandler(".GVR", loader)
	pack.SetHandler(".TXD", loader)
}
