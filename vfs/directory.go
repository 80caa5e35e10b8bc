package vfs

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	path_ "path"
)

// DirectoryDriver exposes an os directory of unpacked game files.
type DirectoryDriver struct {
	path string
}

func NewDirectoryDriver(path string) *DirectoryDriver {
	return &DirectoryDriver{path: path}
}

func (dd *DirectoryDriver) Name() string {
	return path_.Base(dd.path)
}

func (dd *DirectoryDriver) IsDirectory() bool {
	return true
}

func (dd *DirectoryDriver) Path() string {
	return dd.path
}

func (dd *DirectoryDriver) List() ([]string, error) {
	fileinfos, err := ioutil.ReadDir(dd.path)
	if err != nil {
		return nil, fmt.Errorf("Error getting directory '%s' info: %v", dd.path, err)
	}

	result := make([]string, 0, len(fileinfos))
	for _, f := range fileinfos {
		if !f.IsDir() {
			result = append(result, f.Name())
		}
	}
	return result, nil
}

func (dd *DirectoryDriver) GetElement(name string) (Element, error) {
	newPath := path_.Join(dd.path, name)
	s, err := os.Stat(newPath)
	if err != nil {
		return nil, fmt.Errorf("Stat error: %v", err)
	}

	if s.IsDir() {
		return NewDirectoryDriver(newPath), nil
	}
	return newDirectoryDriverFile(newPath), nil
}

func (dd *DirectoryDriver) Add(name string) (File, error) {
	path := path_.Join(dd.path, name)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return nil, fmt.Errorf("file '%s' creation failure: %v", path, err)
	}
	f.Close()
	return newDirectoryDriverFile(path), nil
}

func (dd *DirectoryDriver) Remove(name string) error {
	return os.Remove(path_.Join(dd.path, name))
}

type directoryDriverFile struct {
	path string
	f    *os.File
}

func newDirectoryDriverFile(path string) *directoryDriverFile {
	return &directoryDriverFile{path: path}
}

func (ddf *directoryDriverFile) Name() string {
	return path_.Base(ddf.path)
}

func (ddf *directoryDriverFile) IsDirectory() bool {
	return false
}

func (ddf *directoryDriverFile) Size() int64 {
	s, err := os.Stat(ddf.path)
	if err != nil {
		return 0
	}
	return s.Size()
}

func (ddf *directoryDriverFile) Open(readonly bool) error {
	if ddf.f != nil {
		return fmt.Errorf("File '%s' already opened", ddf.path)
	}

	flags := os.O_RDONLY
	if !readonly {
		flags = os.O_RDWR
	}

	f, err := os.OpenFile(ddf.path, flags, 0666)
	if err != nil {
		return err
	}
	ddf.f = f
	return nil
}

func (ddf *directoryDriverFile) Close() error {
	if ddf.f == nil {
		return nil
	}
	err := ddf.f.Close()
	ddf.f = nil
	return err
}

func (ddf *directoryDriverFile) Reader() (*io.SectionReader, error) {
	if ddf.f == nil {
		return nil, fmt.Errorf("File '%s' is not opened", ddf.path)
	}
	s, err := ddf.f.Stat()
	if err != nil {
		return nil, err
	}
	return io.NewSectionReader(ddf.f, 0, s.Size()), nil
}

func (ddf *directoryDriverFile) Copy(src io.Reader) error {
	if ddf.f == nil {
		return fmt.Errorf("File '%s' is not opened", ddf.path)
	}
	if err := ddf.f.Truncate(0); err != nil {
		return err
	}
	if _, err := ddf.f.Seek(0, os.SEEK_SET); err != nil {
		return err
	}
	_, err := io.Copy(ddf.f, src)
	return err
}
