package utils

import "testing"

var asciiTests = []struct {
	in  string
	out bool
}{
	{"", true},
	{"SonicBoard01", true},
	{"name with spaces", true},
	{"tab\tand\nnewline", true},
	{"caf\xe9", false},
	{"\x01bad", false},
	{"trailing\x7f", false},
}

func TestIsASCIIReadable(t *testing.T) {
	for _, test := range asciiTests {
		if result := IsASCIIReadable([]byte(test.in)); result != test.out {
			t.Errorf("IsASCIIReadable(%q)=%v; expected %v", test.in, result, test.out)
		}
	}
}

func TestBytesToStringStopsAtNul(t *testing.T) {
	if s := BytesToString([]byte("seagull\x00garbage")); s != "seagull" {
		t.Errorf("BytesToString=%q; expected %q", s, "seagull")
	}
	if s := BytesToString([]byte("noterm")); s != "noterm" {
		t.Errorf("BytesToString=%q; expected %q", s, "noterm")
	}
}

func TestStringToBytes(t *testing.T) {
	bs := StringToBytes("abc", true)
	if len(bs) != 4 || bs[3] != 0 {
		t.Errorf("StringToBytes(%q, true)=%v; expected nil-terminated", "abc", bs)
	}
}
