package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dmitrijs2005/gophvault/internal/common"
)

const (
	// IVSize is the GCM nonce length.
	IVSize = 12
	// TagSize is the GCM authentication tag length appended to ciphertexts.
	TagSize = 16
)

// ErrCipherClosed is returned by a Cipher after Close.
var ErrCipherClosed = errors.New("cipher closed")

const redacted = "cryptox.Cipher([redacted])"

// Cipher seals and opens credential secrets under one session key.
// It is not safe for concurrent use.
type Cipher struct {
	key    []byte
	mem    []byte
	aead   cipher.AEAD
	rand   io.Reader
	locked bool
}

// NewCipher copies key into a buffer of its own, pinned in memory where the
// platform allows, and zeroes the caller's slice.
func NewCipher(key []byte, r io.Reader) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, common.E(common.KindInvalidArgument, "new cipher",
			fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key)))
	}

	c := &Cipher{rand: r}
	mem, locked, err := allocKey(KeySize)
	if err != nil {
		mem, locked = make([]byte, KeySize), false
	} else {
		c.mem = mem
	}
	c.key, c.locked = mem[:KeySize], locked
	copy(c.key, key)
	common.WipeByteArray(key)

	block, err := aes.NewCipher(c.key)
	if err != nil {
		c.Close()
		return nil, common.E(common.KindInvalidArgument, "new cipher", err)
	}
	if c.aead, err = cipher.NewGCMWithNonceSize(block, IVSize); err != nil {
		c.Close()
		return nil, common.E(common.KindInvalidArgument, "new cipher", err)
	}
	return c, nil
}

// Encrypt seals plaintext bound to aad under a freshly drawn IV.
func (c *Cipher) Encrypt(plaintext, aad []byte) (iv, sealed []byte, err error) {
	if c.aead == nil {
		return nil, nil, common.E(common.KindInvalidArgument, "encrypt", ErrCipherClosed)
	}
	iv, err = common.RandomBytes(c.rand, IVSize)
	if err != nil {
		return nil, nil, common.E(common.KindDerivation, "encrypt", err)
	}
	return iv, c.aead.Seal(nil, iv, plaintext, aad), nil
}

// Decrypt opens sealed (ciphertext || tag). Any tag mismatch, whether from
// tampered ciphertext or different aad, yields the same
// common.ErrAuthenticationFailure.
func (c *Cipher) Decrypt(iv, sealed, aad []byte) ([]byte, error) {
	if c.aead == nil {
		return nil, common.E(common.KindInvalidArgument, "decrypt", ErrCipherClosed)
	}
	if len(iv) != IVSize {
		return nil, common.E(common.KindInvalidArgument, "decrypt",
			fmt.Errorf("iv must be %d bytes, got %d", IVSize, len(iv)))
	}
	if len(sealed) < TagSize {
		return nil, common.E(common.KindInvalidArgument, "decrypt",
			fmt.Errorf("ciphertext shorter than %d-byte tag", TagSize))
	}
	plaintext, err := c.aead.Open(nil, iv, sealed, aad)
	if err != nil {
		return nil, common.E(common.KindAuthenticationFailure, "decrypt", nil)
	}
	return plaintext, nil
}

// Close zeroes, unpins and releases the key. Calling Close twice is harmless.
func (c *Cipher) Close() {
	if c.key == nil {
		return
	}
	common.WipeByteArray(c.key)
	if c.mem != nil {
		freeKey(c.mem, c.locked)
	}
	c.key, c.mem = nil, nil
	c.locked = false
	c.aead = nil
}

func (c *Cipher) String() string       { return redacted }
func (c *Cipher) GoString() string     { return redacted }
func (c *Cipher) LogValue() slog.Value { return slog.StringValue(redacted) }
