package main

import (
	"log"
	"sort"

	"github.com/tsurumi/riders_browser/pack"
	file_gvrarc "github.com/tsurumi/riders_browser/pack/gvrarc"
	file_packman "github.com/tsurumi/riders_browser/pack/packman"
	"github.com/tsurumi/riders_browser/status"
	"github.com/tsurumi/riders_browser/utils"
	"github.com/tsurumi/riders_browser/vfs"
)

// parseCheck reads every archive in the mounted directory and logs
// anything the codecs choke on. Handy after repacking a whole disc.
func parseCheck(rootfs vfs.Directory) {
	packList, err := rootfs.List()
	if err != nil {
		log.Fatal(err)
	}

	sort.Strings(packList)

	problems := 0
	for i, fname := range packList {
		status.Progress(float32(i)/float32(len(packList)), "Checking %s", fname)

		data, err := pack.GetInstanceHandler(rootfs, fname)
		if err != nil {
			problems++
			log.Printf("E %q: %v", fname, err)
			continue
		}

		switch inst := data.(type) {
		case *file_gvrarc.Archive:
			for _, skipped := range inst.Skipped {
				problems++
				log.Printf("W %q: %v", fname, utils.SDump(skipped))
			}
			if len(inst.Textures) == 0 {
				log.Printf("W %q: archive holds no textures", fname)
			}
		case *file_packman.Archive:
			for fi, folder := range inst.Folders {
				empty := true
				for _, f := range folder.Files {
					if !f.IsEmpty() {
						empty = false
						break
					}
				}
				if empty {
					log.Printf("W %q: folder %d (ID %d) has no payload", fname, fi, folder.ID)
				}
			}
		}

		pack.FlushInstance(fname)
	}

	log.Printf("Checked %d files, %d problems", len(packList), problems)
}
