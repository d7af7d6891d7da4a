package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/models"
)

// SQLiteRepository implements Repository on SQLite.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) GetMaster(ctx context.Context) (*models.MasterAuth, error) {
	m := &models.MasterAuth{}
	err := r.db.QueryRowContext(ctx, `SELECT salt, hash FROM master_auth WHERE id = 1`).Scan(&m.Salt, &m.Hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get master auth: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) SetMaster(ctx context.Context, m models.MasterAuth) error {
	if err := validateMaster(m); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO master_auth (id, salt, hash) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET salt = excluded.salt, hash = excluded.hash
	`, m.Salt, m.Hash)
	if err != nil {
		return fmt.Errorf("failed to set master auth: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetKDFSalt(ctx context.Context) ([]byte, error) {
	var salt []byte
	err := r.db.QueryRowContext(ctx, `SELECT kdf_salt FROM app_settings WHERE id = 1`).Scan(&salt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kdf salt: %w", err)
	}
	return salt, nil
}

func (r *SQLiteRepository) SetKDFSalt(ctx context.Context, salt []byte) error {
	if err := validateSalt(salt); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO app_settings (id, kdf_salt) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET kdf_salt = excluded.kdf_salt
	`, salt)
	if err != nil {
		return fmt.Errorf("failed to set kdf salt: %w", err)
	}
	return nil
}
