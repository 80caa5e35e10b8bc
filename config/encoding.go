package config

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// Texture and file names on disc are ascii, but community repacks
// occasionally carry region-specific bytes, so the decode charmap is
// selectable. Settable at runtime from the editor, hence the lock.
var currentCharMap *charmap.Charmap = charmap.Windows1252
var charMapLock sync.Mutex

func SetEncoding(name string) error {
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			if cm.String() == name {
				charMapLock.Lock()
				currentCharMap = cm
				charMapLock.Unlock()
				return nil
			}
		}
	}
	return errors.Errorf("Failed to find encoding %q", name)
}

func ListEncodings() []string {
	list := make([]string, 0)
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			list = append(list, cm.String())
		}
	}
	return list
}

func GetEncoding() *charmap.Charmap {
	charMapLock.Lock()
	defer charMapLock.Unlock()
	return currentCharMap
}
