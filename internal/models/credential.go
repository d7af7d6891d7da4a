// Package models defines the vault's persisted records.
package models

import "strings"

// Credential is one stored login. Ciphertext holds the AES-GCM output with
// the tag appended; IV is its 12-byte nonce. CreatedAt is fixed at creation
// and formatted with timex.Layout.
type Credential struct {
	ID         int64
	Service    string
	Username   string
	Ciphertext []byte
	IV         []byte
	Notes      string
	CreatedAt  string
}

// AAD returns the associated data the ciphertext is bound to, built from the
// record's current service, username and creation time.
func (c *Credential) AAD() []byte {
	return BuildAAD(c.Service, c.Username, c.CreatedAt)
}

// BuildAAD joins the binding fields with newlines.
func BuildAAD(service, username, createdAt string) []byte {
	return []byte(strings.Join([]string{service, username, createdAt}, "\n"))
}

// CredentialUpdate lists the mutable fields of a credential. Nil fields keep
// their current value.
type CredentialUpdate struct {
	Username *string
	Secret   []byte
	Notes    *string
}

// Empty reports whether the update changes nothing.
func (u CredentialUpdate) Empty() bool {
	return u.Username == nil && u.Secret == nil && u.Notes == nil
}
