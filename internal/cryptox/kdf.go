package cryptox

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	// SaltSize is the length of every salt the vault stores.
	SaltSize = 16
	// KeySize is the AES-256 session key length.
	KeySize = 32
)

// Params are Argon2id cost parameters.
type Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	KeyLen    uint32
}

// KeyParams derive the data-encryption key.
var KeyParams = Params{
	Time:      3,
	MemoryKiB: 64 * 1024,
	Threads:   1,
	KeyLen:    KeySize,
}

// DeriveKey turns a master password and a 16-byte salt into a 32-byte key.
// Any password bytes are valid input, including none at all.
func DeriveKey(password, salt []byte) ([]byte, error) {
	return derive("derive key", KeyParams, password, salt)
}

// NewSalt draws SaltSize bytes from r (crypto/rand when r is nil).
func NewSalt(r io.Reader) ([]byte, error) {
	s, err := common.RandomBytes(r, SaltSize)
	if err != nil {
		return nil, common.E(common.KindDerivation, "new salt", err)
	}
	return s, nil
}

func derive(op string, p Params, password, salt []byte) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, common.E(common.KindInvalidArgument, op,
			fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt)))
	}

	// A failed allocation inside argon2 is a fatal runtime error, not a
	// panic, so the only exhaustion we can report is a memory limit that
	// cannot hold the block.
	need := int64(p.MemoryKiB) * 1024
	if limit := debug.SetMemoryLimit(-1); limit < need {
		return nil, common.E(common.KindDerivation, op,
			fmt.Errorf("memory limit %d bytes below the %d-byte argon2 block", limit, need))
	}

	return argon2.IDKey(password, salt, p.Time, p.MemoryKiB, p.Threads, p.KeyLen), nil
}
