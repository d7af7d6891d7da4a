package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addN(t *testing.T, s *Session, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		id, err := s.AddCredential(context.Background(), fmt.Sprintf("svc-%d", i), fmt.Sprintf("user-%d", i),
			[]byte(fmt.Sprintf("secret-%d", i)), "")
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestChangeMasterPassword_EndToEnd(t *testing.T) {
	s, db := newUnlockedSession(t)
	ctx := context.Background()
	ids := addN(t, s, 5)
	before := snapshotRows(t, db)
	_, _, oldKDF := snapshotSettings(t, db)

	current, next, confirm := []byte(masterPassword), []byte("N3wPass!"), []byte("N3wPass!")
	require.NoError(t, s.ChangeMasterPassword(ctx, current, next, confirm))
	assert.Equal(t, StateUnlocked, s.State())
	for _, b := range [][]byte{current, next, confirm} {
		assert.Equal(t, make([]byte, len(b)), b)
	}

	after := snapshotRows(t, db)
	require.Len(t, after, 5)
	for i := range after {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.Equal(t, before[i].Service, after[i].Service)
		assert.Equal(t, before[i].Username, after[i].Username)
		assert.Equal(t, before[i].Notes, after[i].Notes)
		assert.Equal(t, before[i].CreatedAt, after[i].CreatedAt)
		assert.NotEqual(t, before[i].IV, after[i].IV)
		assert.NotEqual(t, before[i].Ciphertext, after[i].Ciphertext)
	}
	_, _, newKDF := snapshotSettings(t, db)
	assert.NotEqual(t, oldKDF, newKDF)

	// the session already uses the new key
	for i, id := range ids {
		assert.Equal(t, []byte(fmt.Sprintf("secret-%d", i)), reveal(t, s, id))
	}

	s.Lock()
	require.ErrorIs(t, s.Login(ctx, []byte(masterPassword)), common.ErrAuthenticationFailure)
	require.NoError(t, s.Login(ctx, []byte("N3wPass!")))
	for i, id := range ids {
		assert.Equal(t, []byte(fmt.Sprintf("secret-%d", i)), reveal(t, s, id))
	}
}

func TestChangeMasterPassword_WrongCurrent(t *testing.T) {
	s, db := newUnlockedSession(t)
	ctx := context.Background()
	addN(t, s, 2)
	rows := snapshotRows(t, db)
	salt, hash, kdf := snapshotSettings(t, db)

	err := s.ChangeMasterPassword(ctx, []byte("guess"), []byte("N3wPass!"), []byte("N3wPass!"))
	require.ErrorIs(t, err, common.ErrAuthenticationFailure)
	assert.Equal(t, StateUnlocked, s.State())

	assert.Equal(t, rows, snapshotRows(t, db))
	salt2, hash2, kdf2 := snapshotSettings(t, db)
	assert.Equal(t, salt, salt2)
	assert.Equal(t, hash, hash2)
	assert.Equal(t, kdf, kdf2)
}

func TestChangeMasterPassword_InvalidNewPassword(t *testing.T) {
	s, db := newUnlockedSession(t)
	ctx := context.Background()
	salt, hash, kdf := snapshotSettings(t, db)

	err := s.ChangeMasterPassword(ctx, []byte(masterPassword), []byte("a"), []byte("b"))
	require.ErrorIs(t, err, common.ErrInvalidArgument)
	require.ErrorIs(t, err, ErrPasswordMismatch)

	err = s.ChangeMasterPassword(ctx, []byte(masterPassword), []byte{}, []byte{})
	require.ErrorIs(t, err, common.ErrInvalidArgument)
	require.ErrorIs(t, err, ErrEmptyPassword)

	salt2, hash2, kdf2 := snapshotSettings(t, db)
	assert.Equal(t, salt, salt2)
	assert.Equal(t, hash, hash2)
	assert.Equal(t, kdf, kdf2)
}

func TestChangeMasterPassword_RollsBackOnCorruptRow(t *testing.T) {
	const n, k = 6, 3

	s, db := newUnlockedSession(t)
	ctx := context.Background()
	ids := addN(t, s, n)

	// rows are re-keyed newest first, so row k fails after others were rewritten
	_, err := db.Exec(`UPDATE credentials SET iv = zeroblob(12) WHERE id = ?`, ids[k])
	require.NoError(t, err)

	rows := snapshotRows(t, db)
	salt, hash, kdf := snapshotSettings(t, db)

	err = s.ChangeMasterPassword(ctx, []byte(masterPassword), []byte("N3wPass!"), []byte("N3wPass!"))
	require.ErrorIs(t, err, common.ErrTransactionAborted)
	require.ErrorIs(t, err, common.ErrAuthenticationFailure)
	assert.Equal(t, common.KindTransactionAborted, common.KindOf(err))
	assert.Equal(t, StateUnlocked, s.State())

	assert.Equal(t, rows, snapshotRows(t, db))
	salt2, hash2, kdf2 := snapshotSettings(t, db)
	assert.Equal(t, salt, salt2)
	assert.Equal(t, hash, hash2)
	assert.Equal(t, kdf, kdf2)

	// the old key is still in use
	for i, id := range ids {
		if i == k {
			continue
		}
		assert.Equal(t, []byte(fmt.Sprintf("secret-%d", i)), reveal(t, s, id))
	}

	s.Lock()
	require.NoError(t, s.Login(ctx, []byte(masterPassword)))
}

type failingStore struct {
	rows    []models.Credential
	failAt  int
	updates int
}

func (f *failingStore) List(context.Context) ([]models.Credential, error) { return f.rows, nil }

func (f *failingStore) Update(_ context.Context, c *models.Credential) error {
	if f.updates == f.failAt {
		return errors.New("injected")
	}
	f.updates++
	return nil
}

func TestRekey_StopsAtFirstFailure(t *testing.T) {
	key := func(b byte) []byte {
		k := make([]byte, cryptox.KeySize)
		for i := range k {
			k[i] = b
		}
		return k
	}
	oldC, err := cryptox.NewCipher(key(1), nil)
	require.NoError(t, err)
	defer oldC.Close()
	newC, err := cryptox.NewCipher(key(2), nil)
	require.NoError(t, err)
	defer newC.Close()

	var rows []models.Credential
	for i := 0; i < 4; i++ {
		c := models.Credential{ID: int64(i + 1), Service: "s", Username: "u", CreatedAt: "2024-01-01T00:00:00Z"}
		c.IV, c.Ciphertext, err = oldC.Encrypt([]byte("p"), c.AAD())
		require.NoError(t, err)
		rows = append(rows, c)
	}

	store := &failingStore{rows: append([]models.Credential(nil), rows...), failAt: 2}
	_, err = rekey(context.Background(), store, oldC, newC)
	require.ErrorContains(t, err, "credential 3: injected")
	assert.Equal(t, 2, store.updates)

	store = &failingStore{rows: append([]models.Credential(nil), rows...), failAt: -1}
	n, err := rekey(context.Background(), store, oldC, newC)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	for _, c := range store.rows {
		p, err := newC.Decrypt(c.IV, c.Ciphertext, c.AAD())
		require.NoError(t, err)
		assert.Equal(t, []byte("p"), p)
	}
}
