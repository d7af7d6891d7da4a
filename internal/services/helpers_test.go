package services

import (
	"context"
	"database/sql"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/repositories/repomanager"
	"github.com/dmitrijs2005/gophvault/internal/timex"
	"github.com/stretchr/testify/require"
)

const masterPassword = "correct horse battery staple"

// stepClock advances one second per call so rows get distinct timestamps.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestDB(t *testing.T) (*sql.DB, repomanager.RepositoryManager) {
	t.Helper()
	m := repomanager.NewSQLiteRepositoryManager(logging.Nop())
	db, err := m.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, m.RunMigrations(context.Background(), db))
	return db, m
}

func newTestSession(t *testing.T, opts ...Option) (*Session, *sql.DB) {
	t.Helper()
	db, m := newTestDB(t)
	base := []Option{
		WithRandom(rand.NewChaCha8([32]byte{1, 2, 3})),
		WithClock(&stepClock{now: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}),
	}
	return NewSession(db, m, append(base, opts...)...), db
}

// newUnlockedSession returns a session that has completed first-run setup.
func newUnlockedSession(t *testing.T, opts ...Option) (*Session, *sql.DB) {
	t.Helper()
	s, db := newTestSession(t, opts...)
	require.NoError(t, s.Login(context.Background(), []byte(masterPassword)))
	return s, db
}

var _ timex.Clock = (*stepClock)(nil)

type rowSnapshot struct {
	ID         int64
	Service    string
	Username   string
	Ciphertext []byte
	IV         []byte
	Notes      string
	CreatedAt  string
}

func snapshotRows(t *testing.T, db *sql.DB) []rowSnapshot {
	t.Helper()
	rows, err := db.Query(`SELECT id, service, username, encrypted_password, iv, notes, created_at FROM credentials ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	var out []rowSnapshot
	for rows.Next() {
		var r rowSnapshot
		require.NoError(t, rows.Scan(&r.ID, &r.Service, &r.Username, &r.Ciphertext, &r.IV, &r.Notes, &r.CreatedAt))
		out = append(out, r)
	}
	require.NoError(t, rows.Err())
	return out
}

func snapshotSettings(t *testing.T, db *sql.DB) (salt, hash, kdfSalt []byte) {
	t.Helper()
	require.NoError(t, db.QueryRow(`SELECT salt, hash FROM master_auth WHERE id = 1`).Scan(&salt, &hash))
	require.NoError(t, db.QueryRow(`SELECT kdf_salt FROM app_settings WHERE id = 1`).Scan(&kdfSalt))
	return salt, hash, kdfSalt
}
