package pack

import (
	"io/ioutil"
	"path/filepath"
	"sync"
	"testing"

	"github.com/tsurumi/riders_browser/utils"
	"github.com/tsurumi/riders_browser/vfs"
)

// A frontend fetches views for several files at once, so the
// instance cache gets hit from parallel handler goroutines. Run with
// -race.
func TestInstanceCacheConcurrency(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.tst", "b.tst"} {
		if err := ioutil.WriteFile(filepath.Join(dir, name), []byte("payload"), 0666); err != nil {
			t.Fatal(err)
		}
	}

	SetHandler(".TST", func(src utils.ResourceSource, data []byte) (interface{}, error) {
		return len(data), nil
	})

	rootfs := vfs.NewDirectoryDriver(dir)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, err := GetInstanceHandler(rootfs, "a.tst"); err != nil {
					t.Errorf("a.tst: %v", err)
					return
				}
				if _, err := GetInstanceHandler(rootfs, "b.tst"); err != nil {
					t.Errorf("b.tst: %v", err)
					return
				}
				FlushInstance("a.tst")
			}
		}()
	}
	wg.Wait()

	FlushInstance("a.tst")
	FlushInstance("b.tst")
}
