package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/models"
)

// ChangeMasterPassword replaces the master password and re-encrypts every
// credential under a key derived from next and a new KDF salt.
//
// current is re-verified even though the session is unlocked. next must be
// non-empty and equal to confirm. The re-encryption of all rows and the
// replacement of the master record and KDF salt commit together; any failure
// rolls everything back, returns common.ErrTransactionAborted and keeps the
// old key in the session. On success the session switches to the new key.
//
// All three password slices are zeroed before return.
func (s *Session) ChangeMasterPassword(ctx context.Context, current, next, confirm []byte) error {
	defer common.WipeAll(current, next, confirm)

	s.mu.Lock()
	defer s.mu.Unlock()

	const op = "change master password"
	if err := s.requireUnlocked(op); err != nil {
		return err
	}

	s.state = StateChangingMaster
	defer func() {
		if s.state == StateChangingMaster {
			s.state = StateUnlocked
		}
	}()

	settings := s.repomanager.Settings(s.db)
	m, err := settings.GetMaster(ctx)
	if err != nil {
		return wrapErr(op, err)
	}
	if m == nil || !s.auth.Verify(current, cryptox.Proof(*m)) {
		s.log.Warn(ctx, "change master password rejected", "kind", common.KindAuthenticationFailure.String())
		return common.E(common.KindAuthenticationFailure, op, nil)
	}
	if len(next) == 0 {
		return common.E(common.KindInvalidArgument, op, ErrEmptyPassword)
	}
	if !bytes.Equal(next, confirm) {
		return common.E(common.KindInvalidArgument, op, ErrPasswordMismatch)
	}

	oldSalt, err := settings.GetKDFSalt(ctx)
	if err != nil {
		return wrapErr(op, err)
	}
	oldCipher, err := s.newCipher(current, oldSalt)
	if err != nil {
		return wrapErr(op, err)
	}
	defer oldCipher.Close()

	newSalt, err := cryptox.NewSalt(s.rand)
	if err != nil {
		return wrapErr(op, err)
	}
	newCipher, err := s.newCipher(next, newSalt)
	if err != nil {
		return wrapErr(op, err)
	}
	proof, err := s.auth.CreateProof(next)
	if err != nil {
		newCipher.Close()
		return wrapErr(op, err)
	}

	var count int
	err = dbx.WithTx(ctx, s.db, s.repomanager.TxOptions(), func(ctx context.Context, tx dbx.DBTX) error {
		n, err := rekey(ctx, s.repomanager.Credentials(tx), oldCipher, newCipher)
		if err != nil {
			return err
		}
		count = n

		txSettings := s.repomanager.Settings(tx)
		if err := txSettings.SetKDFSalt(ctx, newSalt); err != nil {
			return err
		}
		return txSettings.SetMaster(ctx, models.MasterAuth(proof))
	})
	if err != nil {
		newCipher.Close()
		s.log.Error(ctx, "master password change rolled back", "kind", common.KindOf(err).String())
		return common.E(common.KindTransactionAborted, op, err)
	}

	s.log.Info(ctx, "master password changed", "reencrypted", count)
	s.unlock(ctx, newCipher)
	return nil
}

// rekeyStore is the part of credentials.Repository the re-key needs.
type rekeyStore interface {
	List(ctx context.Context) ([]models.Credential, error)
	Update(ctx context.Context, c *models.Credential) error
}

// rekey re-encrypts every row from oldCipher to newCipher with fresh IVs and
// unchanged AAD. It stops at the first row that fails to decrypt.
func rekey(ctx context.Context, repo rekeyStore, oldCipher, newCipher *cryptox.Cipher) (int, error) {
	rows, err := repo.List(ctx)
	if err != nil {
		return 0, err
	}
	for i := range rows {
		c := &rows[i]
		aad := c.AAD()

		plaintext, err := oldCipher.Decrypt(c.IV, c.Ciphertext, aad)
		if err != nil {
			return 0, fmt.Errorf("credential %d: %w", c.ID, err)
		}
		iv, sealed, err := newCipher.Encrypt(plaintext, aad)
		common.WipeByteArray(plaintext)
		if err != nil {
			return 0, fmt.Errorf("credential %d: %w", c.ID, err)
		}
		c.IV, c.Ciphertext = iv, sealed

		if err := repo.Update(ctx, c); err != nil {
			return 0, fmt.Errorf("credential %d: %w", c.ID, err)
		}
	}
	return len(rows), nil
}

func (s *Session) newCipher(password, salt []byte) (*cryptox.Cipher, error) {
	key, err := cryptox.DeriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	c, err := cryptox.NewCipher(key, s.rand)
	if err != nil {
		common.WipeByteArray(key)
		return nil, err
	}
	return c, nil
}
