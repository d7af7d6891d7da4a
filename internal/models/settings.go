package models

// MasterAuth is the singleton master-password proof. Its salt is unrelated
// to the KDF salt used for the data key.
type MasterAuth struct {
	Salt []byte
	Hash []byte
}
