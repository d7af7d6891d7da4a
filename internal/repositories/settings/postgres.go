package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/models"
)

// PostgresRepository implements Repository on PostgreSQL.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetMaster(ctx context.Context) (*models.MasterAuth, error) {
	query :=
		`SELECT salt, hash FROM master_auth
		 WHERE id = 1
		 `

	m := &models.MasterAuth{}
	err := r.db.QueryRowContext(ctx, query).Scan(&m.Salt, &m.Hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) SetMaster(ctx context.Context, m models.MasterAuth) error {
	if err := validateMaster(m); err != nil {
		return err
	}
	query :=
		`INSERT INTO master_auth (id, salt, hash) VALUES (1, $1, $2)
		 ON CONFLICT (id) DO UPDATE SET salt = EXCLUDED.salt, hash = EXCLUDED.hash
		 `

	if _, err := r.db.ExecContext(ctx, query, m.Salt, m.Hash); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetKDFSalt(ctx context.Context) ([]byte, error) {
	query :=
		`SELECT kdf_salt FROM app_settings
		 WHERE id = 1
		 `

	var salt []byte
	err := r.db.QueryRowContext(ctx, query).Scan(&salt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return salt, nil
}

func (r *PostgresRepository) SetKDFSalt(ctx context.Context, salt []byte) error {
	if err := validateSalt(salt); err != nil {
		return err
	}
	query :=
		`INSERT INTO app_settings (id, kdf_salt) VALUES (1, $1)
		 ON CONFLICT (id) DO UPDATE SET kdf_salt = EXCLUDED.kdf_salt
		 `

	if _, err := r.db.ExecContext(ctx, query, salt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
