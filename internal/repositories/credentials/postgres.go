package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/models"
)

// PostgresRepository implements Repository on PostgreSQL.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository returns a PostgresRepository bound to db.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Credential) (int64, error) {
	query :=
		`INSERT INTO credentials (service, username, encrypted_password, iv, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		c.Service, c.Username, c.Ciphertext, c.IV, c.Notes, c.CreatedAt).Scan(&c.ID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return c.ID, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Credential, error) {
	query :=
		`SELECT id, service, username, encrypted_password, iv, notes, created_at FROM credentials
		 WHERE id = $1
		 `

	c := &models.Credential{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.Service, &c.Username, &c.Ciphertext, &c.IV, &c.Notes, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Search(ctx context.Context, term string) ([]models.Credential, error) {
	query :=
		`SELECT id, service, username, encrypted_password, iv, notes, created_at FROM credentials
		 WHERE service ILIKE $1 ESCAPE '\'
		 ORDER BY created_at DESC, id DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, likePattern(term))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanCredentials(rows)
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Credential, error) {
	query :=
		`SELECT id, service, username, encrypted_password, iv, notes, created_at FROM credentials
		 ORDER BY created_at DESC, id DESC
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanCredentials(rows)
}

func (r *PostgresRepository) Update(ctx context.Context, c *models.Credential) error {
	query :=
		`UPDATE credentials SET username = $1, encrypted_password = $2, iv = $3, notes = $4
		 WHERE id = $5
		 `

	res, err := r.db.ExecContext(ctx, query, c.Username, c.Ciphertext, c.IV, c.Notes, c.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}
