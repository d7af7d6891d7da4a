// Package passgen generates random passwords from selectable character
// classes. Characters are drawn by rejection sampling so every symbol of the
// alphabet is equally likely.
package passgen

import (
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophvault/internal/common"
)

// Classes selects the character classes of the alphabet.
type Classes uint8

const (
	Upper Classes = 1 << iota
	Lower
	Digits
	Symbols

	All = Upper | Lower | Digits | Symbols
)

const (
	upperSet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerSet  = "abcdefghijklmnopqrstuvwxyz"
	digitSet  = "0123456789"
	symbolSet = "!@#$%^&*()-_=+[]{};:,.?/"
)

// ErrEmptyAlphabet is returned when no class is selected.
var ErrEmptyAlphabet = errors.New("empty alphabet")

// Alphabet returns the characters selected by c.
func (c Classes) Alphabet() string {
	var s string
	if c&Upper != 0 {
		s += upperSet
	}
	if c&Lower != 0 {
		s += lowerSet
	}
	if c&Digits != 0 {
		s += digitSet
	}
	if c&Symbols != 0 {
		s += symbolSet
	}
	return s
}

// Generator draws passwords from a random source.
type Generator struct {
	rand io.Reader
}

// New returns a Generator reading from r (crypto/rand when r is nil).
func New(r io.Reader) *Generator {
	return &Generator{rand: r}
}

// Generate returns a password of length characters drawn from classes.
func (g *Generator) Generate(length int, classes Classes) (string, error) {
	alphabet := classes.Alphabet()
	if alphabet == "" {
		return "", common.E(common.KindInvalidArgument, "generate password", ErrEmptyAlphabet)
	}
	if length < 0 {
		return "", common.E(common.KindInvalidArgument, "generate password",
			fmt.Errorf("negative length %d", length))
	}

	// bytes at or above bound would favour the first 256%n symbols
	n := len(alphabet)
	bound := 256 - 256%n

	out := make([]byte, 0, length)
	for len(out) < length {
		buf, err := common.RandomBytes(g.rand, 2*(length-len(out)))
		if err != nil {
			return "", common.E(common.KindDerivation, "generate password", err)
		}
		for _, b := range buf {
			if int(b) >= bound {
				continue
			}
			out = append(out, alphabet[int(b)%n])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

// Generate draws a password from crypto/rand.
func Generate(length int, classes Classes) (string, error) {
	return New(nil).Generate(length, classes)
}
