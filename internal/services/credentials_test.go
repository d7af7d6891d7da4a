package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func reveal(t *testing.T, s *Session, id int64) []byte {
	t.Helper()
	c, err := s.GetCredential(context.Background(), id)
	require.NoError(t, err)
	secret, err := s.RevealSecret(context.Background(), c)
	require.NoError(t, err)
	return secret
}

func TestEndToEnd_AddRevealAndRebindOnUsernameChange(t *testing.T) {
	s, _ := newUnlockedSession(t)
	ctx := context.Background()

	id, err := s.AddCredential(ctx, "github", "octocat", []byte("s3cr3t"), "")
	require.NoError(t, err)

	c, err := s.GetCredential(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "github", c.Service)
	assert.Equal(t, "octocat", c.Username)
	assert.Len(t, c.IV, 12)
	assert.Len(t, c.Ciphertext, len("s3cr3t")+16)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`, c.CreatedAt)
	assert.Equal(t, []byte("s3cr3t"), reveal(t, s, id))

	require.NoError(t, s.UpdateCredential(ctx, id, models.CredentialUpdate{Username: strPtr("octoPRO")}))

	updated, err := s.GetCredential(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "octoPRO", updated.Username)
	assert.Equal(t, c.CreatedAt, updated.CreatedAt)
	assert.NotEqual(t, c.IV, updated.IV)

	// the old username no longer authenticates the ciphertext
	stale := *updated
	stale.Username = "octocat"
	_, err = s.RevealSecret(ctx, &stale)
	require.ErrorIs(t, err, common.ErrAuthenticationFailure)

	assert.Equal(t, []byte("s3cr3t"), reveal(t, s, id))
}

func TestAddCredential_RejectsEmptyService(t *testing.T) {
	s, _ := newUnlockedSession(t)

	_, err := s.AddCredential(context.Background(), "", "u", []byte("p"), "")
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestAddCredential_EmptySecret(t *testing.T) {
	s, _ := newUnlockedSession(t)

	id, err := s.AddCredential(context.Background(), "svc", "u", nil, "")
	require.NoError(t, err)
	assert.Empty(t, reveal(t, s, id))
}

func TestRevealSecret_DetectsTamperedMetadata(t *testing.T) {
	s, db := newUnlockedSession(t)
	ctx := context.Background()

	id, err := s.AddCredential(ctx, "bank", "alice", []byte("pin"), "")
	require.NoError(t, err)

	_, err = db.Exec(`UPDATE credentials SET username = 'mallory' WHERE id = ?`, id)
	require.NoError(t, err)

	c, err := s.GetCredential(ctx, id)
	require.NoError(t, err)
	_, err = s.RevealSecret(ctx, c)
	require.ErrorIs(t, err, common.ErrAuthenticationFailure)
}

func TestUpdateCredential_NotesOnlyKeepsCiphertext(t *testing.T) {
	s, _ := newUnlockedSession(t)
	ctx := context.Background()

	id, err := s.AddCredential(ctx, "github", "octocat", []byte("s3cr3t"), "old")
	require.NoError(t, err)
	before, err := s.GetCredential(ctx, id)
	require.NoError(t, err)

	require.NoError(t, s.UpdateCredential(ctx, id, models.CredentialUpdate{Notes: strPtr("new notes")}))

	after, err := s.GetCredential(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "new notes", after.Notes)
	assert.Equal(t, before.IV, after.IV)
	assert.Equal(t, before.Ciphertext, after.Ciphertext)
}

func TestUpdateCredential_NewSecretAndUsername(t *testing.T) {
	s, _ := newUnlockedSession(t)
	ctx := context.Background()

	id, err := s.AddCredential(ctx, "github", "octocat", []byte("s3cr3t"), "")
	require.NoError(t, err)

	require.NoError(t, s.UpdateCredential(ctx, id, models.CredentialUpdate{Secret: []byte("rotated")}))
	assert.Equal(t, []byte("rotated"), reveal(t, s, id))

	require.NoError(t, s.UpdateCredential(ctx, id, models.CredentialUpdate{
		Username: strPtr("octoPRO"),
		Secret:   []byte("both"),
	}))
	c, err := s.GetCredential(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "octoPRO", c.Username)
	assert.Equal(t, []byte("both"), reveal(t, s, id))
}

func TestUpdateCredential_Missing(t *testing.T) {
	s, _ := newUnlockedSession(t)

	err := s.UpdateCredential(context.Background(), 99, models.CredentialUpdate{Notes: strPtr("x")})
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, common.KindNotFound, common.KindOf(err))

	err = s.UpdateCredential(context.Background(), 99, models.CredentialUpdate{})
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateCredential_UsernameChangeFailsOnCorruptRow(t *testing.T) {
	s, db := newUnlockedSession(t)
	ctx := context.Background()

	id, err := s.AddCredential(ctx, "github", "octocat", []byte("s3cr3t"), "")
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE credentials SET encrypted_password = zeroblob(22) WHERE id = ?`, id)
	require.NoError(t, err)
	before := snapshotRows(t, db)

	err = s.UpdateCredential(ctx, id, models.CredentialUpdate{Username: strPtr("other")})
	require.ErrorIs(t, err, common.ErrAuthenticationFailure)
	assert.Equal(t, before, snapshotRows(t, db))
}

func TestDeleteCredential(t *testing.T) {
	s, _ := newUnlockedSession(t)
	ctx := context.Background()

	id, err := s.AddCredential(ctx, "github", "octocat", []byte("s3cr3t"), "")
	require.NoError(t, err)

	require.NoError(t, s.DeleteCredential(ctx, id))

	_, err = s.GetCredential(ctx, id)
	require.ErrorIs(t, err, common.ErrNotFound)
	require.ErrorIs(t, s.DeleteCredential(ctx, id), common.ErrNotFound)
}

func TestListAndSearch_OrderAndEscaping(t *testing.T) {
	s, _ := newUnlockedSession(t)
	ctx := context.Background()

	for _, svc := range []string{"github", "100% bank", "gitlab", "my_mail", "mymail"} {
		_, err := s.AddCredential(ctx, svc, "u", []byte("p"), "")
		require.NoError(t, err)
	}

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	var names []string
	for _, c := range all {
		names = append(names, c.Service)
	}
	assert.Equal(t, []string{"mymail", "my_mail", "gitlab", "100% bank", "github"}, names)

	pct, err := s.SearchByService(ctx, "%")
	require.NoError(t, err)
	require.Len(t, pct, 1)
	assert.Equal(t, "100% bank", pct[0].Service)

	under, err := s.SearchByService(ctx, "_")
	require.NoError(t, err)
	require.Len(t, under, 1)
	assert.Equal(t, "my_mail", under[0].Service)

	git, err := s.SearchByService(ctx, "GIT")
	require.NoError(t, err)
	require.Len(t, git, 2)
	assert.Equal(t, "gitlab", git[0].Service)
	assert.Equal(t, "github", git[1].Service)
}
