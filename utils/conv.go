package utils

import (
	"bytes"

	"github.com/tsurumi/riders_browser/config"

	"golang.org/x/text/transform"
)

func BytesToString(bs []byte) string {
	n := bytes.IndexByte(bs, 0)
	if n < 0 {
		n = len(bs)
	}

	s, _, err := transform.Bytes(config.GetEncoding().NewDecoder(), bs[0:n])
	if err != nil {
		panic(err)
	}

	return string(s)
}

func StringToBytes(s string, nilTerminate bool) []byte {
	bs, _, err := transform.Bytes(config.GetEncoding().NewEncoder(), []byte(s))
	if err != nil {
		panic(err)
	}

	if nilTerminate {
		bs = append(bs, 0)
	}
	return bs
}

// IsASCIIReadable reports whether every byte is printable ascii or
// ascii whitespace. Name tables inside archives must pass this check.
func IsASCIIReadable(bs []byte) bool {
	for _, b := range bs {
		if b >= 0x21 && b <= 0x7e {
			continue
		}
		switch b {
		case ' ', '\t', '\n', '\v', '\f', '\r':
			continue
		}
		return false
	}
	return true
}
