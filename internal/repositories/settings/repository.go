// Package settings persists the vault's singleton records: the master
// password proof and the KDF salt of the data key. Each lives in its own
// single-row table keyed by id = 1; writes are upserts.
package settings

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/models"
)

// Repository reads and replaces the singleton records. Getters return
// (nil, nil) when the record has not been written yet.
type Repository interface {
	GetMaster(ctx context.Context) (*models.MasterAuth, error)
	SetMaster(ctx context.Context, m models.MasterAuth) error
	GetKDFSalt(ctx context.Context) ([]byte, error)
	SetKDFSalt(ctx context.Context, salt []byte) error
}

func validateMaster(m models.MasterAuth) error {
	if len(m.Salt) != cryptox.SaltSize || len(m.Hash) != cryptox.HashSize {
		return common.E(common.KindInvalidArgument, "set master",
			fmt.Errorf("proof must be %d-byte salt and %d-byte hash, got %d and %d",
				cryptox.SaltSize, cryptox.HashSize, len(m.Salt), len(m.Hash)))
	}
	return nil
}

func validateSalt(salt []byte) error {
	if len(salt) != cryptox.SaltSize {
		return common.E(common.KindInvalidArgument, "set kdf salt",
			fmt.Errorf("salt must be %d bytes, got %d", cryptox.SaltSize, len(salt)))
	}
	return nil
}
