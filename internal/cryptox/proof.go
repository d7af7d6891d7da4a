package cryptox

import (
	"crypto/subtle"
	"io"

	"github.com/dmitrijs2005/gophvault/internal/common"
)

// HashSize is the length of the master-password proof hash.
const HashSize = 32

// AuthParams derive the master-password proof. They are kept apart from
// KeyParams so the two derivations can evolve separately.
var AuthParams = Params{
	Time:      3,
	MemoryKiB: 64 * 1024,
	Threads:   1,
	KeyLen:    HashSize,
}

// Proof is the persisted evidence of master-password knowledge.
type Proof struct {
	Salt []byte
	Hash []byte
}

// Authenticator creates and checks master-password proofs.
type Authenticator struct {
	params Params
	rand   io.Reader
}

// NewAuthenticator returns an Authenticator drawing salts from r
// (crypto/rand when r is nil).
func NewAuthenticator(r io.Reader) *Authenticator {
	return &Authenticator{params: AuthParams, rand: r}
}

// CreateProof hashes password under a fresh random salt.
func (a *Authenticator) CreateProof(password []byte) (Proof, error) {
	salt, err := NewSalt(a.rand)
	if err != nil {
		return Proof{}, err
	}
	hash, err := derive("create proof", a.params, password, salt)
	if err != nil {
		return Proof{}, err
	}
	return Proof{Salt: salt, Hash: hash}, nil
}

// Verify recomputes the hash for password and compares it in constant time.
// A malformed proof simply does not match.
func (a *Authenticator) Verify(password []byte, p Proof) bool {
	if len(p.Salt) != SaltSize || len(p.Hash) != HashSize {
		return false
	}
	candidate, err := derive("verify proof", a.params, password, p.Salt)
	if err != nil {
		return false
	}
	defer common.WipeByteArray(candidate)

	return subtle.ConstantTimeCompare(candidate, p.Hash) == 1
}
