package services

import (
	"context"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/dmitrijs2005/gophvault/internal/timex"
)

// AddCredential encrypts secret bound to (service, username, created_at) and
// stores a new row. It returns the assigned id. service must not be empty.
func (s *Session) AddCredential(ctx context.Context, service, username string, secret []byte, notes string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	const op = "add credential"
	if err := s.requireUnlocked(op); err != nil {
		return 0, err
	}
	if service == "" {
		return 0, common.E(common.KindInvalidArgument, op, nil)
	}

	c := &models.Credential{
		Service:   service,
		Username:  username,
		Notes:     notes,
		CreatedAt: timex.FormatUTC(s.clock.Now()),
	}
	iv, sealed, err := s.cipher.Encrypt(secret, c.AAD())
	if err != nil {
		return 0, wrapErr(op, err)
	}
	c.IV, c.Ciphertext = iv, sealed

	id, err := s.repomanager.Credentials(s.db).Create(ctx, c)
	if err != nil {
		return 0, wrapErr(op, err)
	}
	s.log.Info(ctx, "credential added", "id", id, "service", service)
	return id, nil
}

// GetCredential returns the stored row. The secret stays encrypted; use
// RevealSecret to decrypt it.
func (s *Session) GetCredential(ctx context.Context, id int64) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	const op = "get credential"
	if err := s.requireUnlocked(op); err != nil {
		return nil, err
	}
	c, err := s.repomanager.Credentials(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return c, nil
}

// RevealSecret decrypts c's secret using the AAD built from c's current
// fields. A stale or edited row fails with common.ErrAuthenticationFailure.
func (s *Session) RevealSecret(ctx context.Context, c *models.Credential) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	const op = "reveal secret"
	if err := s.requireUnlocked(op); err != nil {
		return nil, err
	}
	if c == nil {
		return nil, common.E(common.KindInvalidArgument, op, nil)
	}
	secret, err := s.cipher.Decrypt(c.IV, c.Ciphertext, c.AAD())
	if err != nil {
		s.log.Warn(ctx, "decrypt failed", "id", c.ID, "kind", common.KindOf(err).String())
		return nil, wrapErr(op, err)
	}
	return secret, nil
}

// SearchByService returns rows whose service contains term, ignoring ASCII
// case, newest first.
func (s *Session) SearchByService(ctx context.Context, term string) ([]models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	const op = "search credentials"
	if err := s.requireUnlocked(op); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Credentials(s.db).Search(ctx, term)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	s.log.Debug(ctx, "search", "results", len(list))
	return list, nil
}

// ListAll returns every row, newest first.
func (s *Session) ListAll(ctx context.Context) ([]models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	const op = "list credentials"
	if err := s.requireUnlocked(op); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Credentials(s.db).List(ctx)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return list, nil
}

// UpdateCredential applies u to the row with id. A change of username or
// secret re-encrypts under the new AAD with a fresh IV; a notes-only update
// leaves ciphertext and IV untouched. The read and write share a transaction.
func (s *Session) UpdateCredential(ctx context.Context, id int64, u models.CredentialUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const op = "update credential"
	if err := s.requireUnlocked(op); err != nil {
		return err
	}

	reencrypted := false
	err := dbx.WithTx(ctx, s.db, s.repomanager.TxOptions(), func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Credentials(tx)
		c, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if u.Empty() {
			return nil
		}

		if u.Username != nil || u.Secret != nil {
			secret := u.Secret
			if secret == nil {
				if secret, err = s.cipher.Decrypt(c.IV, c.Ciphertext, c.AAD()); err != nil {
					return err
				}
				defer common.WipeByteArray(secret)
			}
			if u.Username != nil {
				c.Username = *u.Username
			}
			iv, sealed, err := s.cipher.Encrypt(secret, c.AAD())
			if err != nil {
				return err
			}
			c.IV, c.Ciphertext = iv, sealed
			reencrypted = true
		}
		if u.Notes != nil {
			c.Notes = *u.Notes
		}
		return repo.Update(ctx, c)
	})
	if err != nil {
		return wrapErr(op, err)
	}
	s.log.Info(ctx, "credential updated", "id", id, "reencrypted", reencrypted)
	return nil
}

// DeleteCredential removes the row with id.
func (s *Session) DeleteCredential(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const op = "delete credential"
	if err := s.requireUnlocked(op); err != nil {
		return err
	}
	if err := s.repomanager.Credentials(s.db).Delete(ctx, id); err != nil {
		return wrapErr(op, err)
	}
	s.log.Info(ctx, "credential deleted", "id", id)
	return nil
}
