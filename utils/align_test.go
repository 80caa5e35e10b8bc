package utils

import (
	"math"
	"testing"
)

var alignTests = []struct {
	f    func(uint32) uint32
	in   uint32
	out  uint32
	name string
}{
	{Align4, 0, 0, "Align4"},
	{Align4, 1, 4, "Align4"},
	{Align4, 4, 4, "Align4"},
	{Align4, 5, 8, "Align4"},
	{Align8, 5, 8, "Align8"},
	{Align8, 8, 8, "Align8"},
	{Align8, 9, 16, "Align8"},
	{Align16, 9, 16, "Align16"},
	{Align16, 16, 16, "Align16"},
	{Align32, 1, 32, "Align32"},
	{Align32, 16, 32, "Align32"},
	{Align32, 32, 32, "Align32"},
	{Align32, 33, 64, "Align32"},
	{Align32, 0xffffffe0, 0xffffffe0, "Align32"},
}

func TestAlign(t *testing.T) {
	for _, test := range alignTests {
		if result := test.f(test.in); result != test.out {
			t.Errorf("%s(%d)=%d; expected %d", test.name, test.in, result, test.out)
		}
	}
}

func TestAlignProperties(t *testing.T) {
	boundaries := []struct {
		f func(uint32) uint32
		b uint32
	}{{Align4, 4}, {Align8, 8}, {Align16, 16}, {Align32, 32}}

	for _, bd := range boundaries {
		for _, v := range []uint32{0, 1, 2, 3, 7, 15, 31, 32, 100, 0x7ff, 0x800} {
			r := bd.f(v)
			if r < v {
				t.Errorf("align(%d,%d)=%d < input", v, bd.b, r)
			}
			if r%bd.b != 0 {
				t.Errorf("align(%d,%d)=%d not a multiple of %d", v, bd.b, r, bd.b)
			}
		}
	}
}

func TestAlignOverflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Align32(MaxUint32) did not panic")
		}
	}()
	Align32(math.MaxUint32)
}
