package common

import (
	"crypto/rand"
	"fmt"
	"io"
)

// RandomBytes reads exactly n bytes from r. A nil reader means crypto/rand.
func RandomBytes(r io.Reader, n int) ([]byte, error) {
	if r == nil {
		r = rand.Reader
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("read random bytes: %w", err)
	}
	return b, nil
}

// WipeByteArray overwrites b with zeros. Safe on nil.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// WipeAll zeroes every buffer passed in.
func WipeAll(bufs ...[]byte) {
	for _, b := range bufs {
		WipeByteArray(b)
	}
}
