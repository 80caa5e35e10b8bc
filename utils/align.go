package utils

import (
	"fmt"
	"math"
)

// The archive formats only ever pad to these four boundaries,
// so each one gets its own helper instead of a free-form argument.

func align(v uint32, boundary uint32) uint32 {
	if v > math.MaxUint32-(boundary-1) {
		panic(fmt.Sprintf("utils: align overflow: 0x%x to boundary %d", v, boundary))
	}
	return (v + (boundary - 1)) &^ (boundary - 1)
}

func Align4(v uint32) uint32 {
	return align(v, 4)
}

func Align8(v uint32) uint32 {
	return align(v, 8)
}

func Align16(v uint32) uint32 {
	return align(v, 16)
}

// Align32 rounds v up to a 32 byte boundary. Offsets of file payloads
// inside archives always sit on such boundary.
func Align32(v uint32) uint32 {
	return align(v, 32)
}
