package vfs

import (
	"bytes"
	"fmt"
	"io"
)

func OpenFileAndGetReader(f File, readonly bool) (*io.SectionReader, error) {
	if err := f.Open(readonly); err != nil {
		return nil, fmt.Errorf("Cannot open file '%s': %v", f.Name(), err)
	}

	r, err := f.Reader()
	if err != nil {
		defer f.Close()
		return nil, fmt.Errorf("Cannot get file '%s' reader: %v", f.Name(), err)
	}
	return r, nil
}

func DirectoryGetFile(d Directory, name string) (File, error) {
	f, err := d.GetElement(name)
	if err != nil {
		return nil, fmt.Errorf("Cannot open file '%s': %v", name, err)
	}
	if f.IsDirectory() {
		return nil, fmt.Errorf("File '%s' is directory, not a file!", name)
	}
	return f.(File), nil
}

// WriteFile replaces the file contents with data in a single open,
// write, close sequence.
func WriteFile(f File, data []byte) error {
	if err := f.Open(false); err != nil {
		return fmt.Errorf("Cannot open file '%s': %v", f.Name(), err)
	}
	defer f.Close()

	if err := f.Copy(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("Cannot write file '%s': %v", f.Name(), err)
	}
	return nil
}
