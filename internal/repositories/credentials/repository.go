package credentials

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dmitrijs2005/gophvault/internal/models"
)

// Repository describes persistence of Credential rows.
type Repository interface {
	// Create inserts c and returns the id assigned by the store. c.ID is set too.
	Create(ctx context.Context, c *models.Credential) (int64, error)

	// GetByID returns the row or common.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.Credential, error)

	// Search returns rows whose service contains term.
	Search(ctx context.Context, term string) ([]models.Credential, error)

	// List returns every row.
	List(ctx context.Context) ([]models.Credential, error)

	// Update replaces username, ciphertext, iv and notes of the row with c.ID.
	// Service and created_at are never written.
	Update(ctx context.Context, c *models.Credential) error

	// Delete removes the row or returns common.ErrNotFound.
	Delete(ctx context.Context, id int64) error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns a user search term into a substring pattern for
// LIKE ... ESCAPE '\'.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func scanCredentials(rows *sql.Rows) ([]models.Credential, error) {
	defer rows.Close()

	var result []models.Credential
	for rows.Next() {
		var c models.Credential
		if err := rows.Scan(&c.ID, &c.Service, &c.Username, &c.Ciphertext, &c.IV, &c.Notes, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
