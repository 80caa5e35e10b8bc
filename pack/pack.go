package pack

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tsurumi/riders_browser/utils"
	"github.com/tsurumi/riders_browser/vfs"
)

type FileLoader func(src utils.ResourceSource, data []byte) (interface{}, error)

var gHandlers map[string]FileLoader = make(map[string]FileLoader, 0)

// Parsed archives stay cached between requests. The cache holds the
// mutable in-memory state the editor endpoints operate on: list edits
// apply to the cached instance and survive until the file is
// re-uploaded or the rebuilt archive is saved back.
// gInstancesLock serializes the http handler goroutines touching it.
var gInstances map[string]interface{} = make(map[string]interface{}, 0)
var gInstancesLock sync.Mutex

// SetHandler registers a loader for a file extension. Use the empty
// string for extension-less files.
func SetHandler(format string, ldr FileLoader) {
	gHandlers[strings.ToUpper(format)] = ldr
}

func CallHandler(s utils.ResourceSource, data []byte) (interface{}, error) {
	ext := strings.ToUpper(filepath.Ext(s.Name()))

	if h, found := gHandlers[ext]; found {
		return h(s, data)
	}
	return nil, fmt.Errorf("[pack] Cannot find handler for '%s' extension", ext)
}

type PackResSrc struct {
	pf vfs.File
	d  vfs.Directory
}

func (s *PackResSrc) Name() string {
	return s.pf.Name()
}

func (s *PackResSrc) Size() int64 {
	return s.pf.Size()
}

func (s *PackResSrc) Save(data []byte) error {
	f, err := vfs.DirectoryGetFile(s.d, s.pf.Name())
	if err != nil {
		return fmt.Errorf("[pack] Cannot get file '%s': %v", s.pf.Name(), err)
	}
	return vfs.WriteFile(f, data)
}

func GetInstanceHandler(d vfs.Directory, fileName string) (interface{}, error) {
	gInstancesLock.Lock()
	defer gInstancesLock.Unlock()

	if inst, cached := gInstances[fileName]; cached {
		return inst, nil
	}

	f, err := vfs.DirectoryGetFile(d, fileName)
	if err != nil {
		return nil, fmt.Errorf("[pack] Cannot get file '%s': %v", fileName, err)
	}

	r, err := vfs.OpenFileAndGetReader(f, true)
	if err != nil {
		return nil, fmt.Errorf("[pack] Cannot get instance of '%s': %v", fileName, err)
	}
	defer f.Close()

	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("[pack] Cannot read file '%s': %v", fileName, err)
	}

	inst, err := CallHandler(&PackResSrc{d: d, pf: f}, data)
	if err != nil {
		return nil, fmt.Errorf("[pack] Handler error: %v", err)
	}

	gInstances[fileName] = inst
	return inst, nil
}

// FlushInstance drops the cached in-memory archive, forcing a re-read
// from disk on the next request. Must be called after uploads that
// replace the file itself.
func FlushInstance(fileName string) {
	gInstancesLock.Lock()
	defer gInstancesLock.Unlock()
	delete(gInstances, fileName)
}
