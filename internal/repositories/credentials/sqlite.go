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

const sqliteColumns = `id, service, username, encrypted_password, iv, notes, created_at`

// SQLiteRepository implements Repository on SQLite.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a SQLiteRepository bound to db.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, c *models.Credential) (int64, error) {
	query := `INSERT INTO credentials (service, username, encrypted_password, iv, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query, c.Service, c.Username, c.Ciphertext, c.IV, c.Notes, c.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert credential: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted id: %w", err)
	}
	c.ID = id
	return id, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Credential, error) {
	query := `SELECT ` + sqliteColumns + ` FROM credentials WHERE id = ?`

	c := &models.Credential{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.Service, &c.Username, &c.Ciphertext, &c.IV, &c.Notes, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select credential: %w", err)
	}
	return c, nil
}

// Search relies on SQLite's LIKE being case-insensitive for ASCII.
func (r *SQLiteRepository) Search(ctx context.Context, term string) ([]models.Credential, error) {
	query := `SELECT ` + sqliteColumns + ` FROM credentials
		WHERE service LIKE ? ESCAPE '\'
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, likePattern(term))
	if err != nil {
		return nil, fmt.Errorf("failed to search credentials: %w", err)
	}
	return scanCredentials(rows)
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Credential, error) {
	query := `SELECT ` + sqliteColumns + ` FROM credentials ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select credentials: %w", err)
	}
	return scanCredentials(rows)
}

func (r *SQLiteRepository) Update(ctx context.Context, c *models.Credential) error {
	query := `UPDATE credentials SET username = ?, encrypted_password = ?, iv = ?, notes = ? WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, c.Username, c.Ciphertext, c.IV, c.Notes, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}
	return expectOneRow(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	switch ra {
	case 0:
		return common.ErrNotFound
	case 1:
		return nil
	default:
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
}
