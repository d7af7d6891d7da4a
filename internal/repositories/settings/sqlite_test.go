package settings

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/migrations"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func validSalt(b byte) []byte { return bytes.Repeat([]byte{b}, cryptox.SaltSize) }

func validMaster(b byte) models.MasterAuth {
	return models.MasterAuth{Salt: validSalt(b), Hash: bytes.Repeat([]byte{b}, cryptox.HashSize)}
}

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpContext(context.Background(), db, migrations.SQLiteDir))
	return db
}

func TestSQLite_MasterAbsent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	m, err := r.GetMaster(context.Background())
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestSQLite_SetMasterUpserts(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.SetMaster(ctx, validMaster(1)))
	require.NoError(t, r.SetMaster(ctx, validMaster(2)))

	m, err := r.GetMaster(ctx)
	require.NoError(t, err)
	want := validMaster(2)
	assert.Equal(t, &want, m)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM master_auth`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSQLite_SetMasterRejectsWrongLengths(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	tests := []struct {
		name string
		m    models.MasterAuth
	}{
		{"empty", models.MasterAuth{}},
		{"no hash", models.MasterAuth{Salt: validSalt(1)}},
		{"short salt", models.MasterAuth{Salt: []byte("s"), Hash: validMaster(1).Hash}},
		{"long salt", models.MasterAuth{Salt: bytes.Repeat([]byte{1}, 17), Hash: validMaster(1).Hash}},
		{"short hash", models.MasterAuth{Salt: validSalt(1), Hash: bytes.Repeat([]byte{1}, 31)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, r.SetMaster(ctx, tt.m), common.ErrInvalidArgument)
		})
	}

	m, err := r.GetMaster(ctx)
	require.NoError(t, err)
	assert.Nil(t, m, "nothing was written")
}

func TestSQLite_KDFSalt(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	salt, err := r.GetKDFSalt(ctx)
	require.NoError(t, err)
	assert.Nil(t, salt)

	require.NoError(t, r.SetKDFSalt(ctx, []byte("0123456789abcdef")))
	require.NoError(t, r.SetKDFSalt(ctx, []byte("fedcba9876543210")))

	salt, err = r.GetKDFSalt(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("fedcba9876543210"), salt)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM app_settings`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSQLite_SetKDFSaltRejectsWrongLength(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	for _, n := range []int{0, 8, 15, 17, 32} {
		require.ErrorIs(t, r.SetKDFSalt(ctx, make([]byte, n)), common.ErrInvalidArgument, "length %d", n)
	}
	salt, err := r.GetKDFSalt(ctx)
	require.NoError(t, err)
	assert.Nil(t, salt, "nothing was written")
}
