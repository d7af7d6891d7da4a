// Package cryptox implements the vault's cryptographic primitives:
//
//   - DeriveKey: Argon2id password-to-key derivation for the data key.
//   - Authenticator: master-password proof creation and constant-time check,
//     derived independently of the data key.
//   - Cipher: AES-256-GCM over a session key with a fresh 96-bit IV per call
//     and a 128-bit tag appended to the ciphertext.
//
// Errors are *common.Error values; match them with errors.Is against the
// common sentinels.
package cryptox
