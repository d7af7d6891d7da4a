package cryptox

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticator_RoundTrip(t *testing.T) {
	a := NewAuthenticator(nil)

	p, err := a.CreateProof([]byte("correct horse battery staple"))
	require.NoError(t, err)
	assert.Len(t, p.Salt, SaltSize)
	assert.Len(t, p.Hash, HashSize)

	assert.True(t, a.Verify([]byte("correct horse battery staple"), p))
	assert.False(t, a.Verify([]byte("correct horse battery stapler"), p))
	assert.False(t, a.Verify(nil, p))
}

func TestAuthenticator_FreshSaltPerProof(t *testing.T) {
	a := NewAuthenticator(nil)

	p1, err := a.CreateProof([]byte("same"))
	require.NoError(t, err)
	p2, err := a.CreateProof([]byte("same"))
	require.NoError(t, err)

	assert.NotEqual(t, p1.Salt, p2.Salt)
	assert.NotEqual(t, p1.Hash, p2.Hash)
}

func TestAuthenticator_DeterministicSource(t *testing.T) {
	a := NewAuthenticator(bytes.NewReader(bytes.Repeat([]byte{9}, SaltSize)))

	p, err := a.CreateProof([]byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, fixedSalt(9), p.Salt)
}

func TestAuthenticator_MalformedProofDoesNotMatch(t *testing.T) {
	a := NewAuthenticator(nil)
	good, err := a.CreateProof([]byte("pw"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		proof Proof
	}{
		{"empty", Proof{}},
		{"short salt", Proof{Salt: good.Salt[:8], Hash: good.Hash}},
		{"long hash", Proof{Salt: good.Salt, Hash: append(append([]byte{}, good.Hash...), 0)}},
		{"short hash", Proof{Salt: good.Salt, Hash: good.Hash[:31]}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, a.Verify([]byte("pw"), tt.proof))
			})
		})
	}
}

func TestAuthenticator_FlippedHashBitFails(t *testing.T) {
	a := NewAuthenticator(nil)
	p, err := a.CreateProof([]byte("pw"))
	require.NoError(t, err)

	p.Hash[HashSize-1] ^= 0x01
	assert.False(t, a.Verify([]byte("pw"), p))
}
