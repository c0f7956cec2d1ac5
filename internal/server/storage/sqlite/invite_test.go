package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfaria/cofre/internal/models"
	"github.com/nfaria/cofre/internal/server/storage"
)

func newTestInvite(t *testing.T, s *Storage, invitee *models.Identity, file *models.FileRecord) *models.Invite {
	t.Helper()

	invite := &models.Invite{
		ID:         uuid.New().String(),
		IdentityID: invitee.ID,
		FileID:     file.ID,
		WrappedKey: []byte("wrapped key for " + invitee.Username),
		CreatedAt:  time.Now(),
	}
	require.NoError(t, s.CreateInvite(context.Background(), invite))
	return invite
}

func TestCreateInvite(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	alice := newTestIdentity(t, s, "alice")
	bob := newTestIdentity(t, s, "bob")
	file := newTestFile(t, s, "report.txt", alice)
	newTestInvite(t, s, bob, file)

	t.Run("pending invite visible", func(t *testing.T) {
		ok, err := s.HasPendingInvite(ctx, bob.ID, file.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("duplicate pending invite rejected", func(t *testing.T) {
		dup := &models.Invite{
			ID:         uuid.New().String(),
			IdentityID: bob.ID,
			FileID:     file.ID,
			WrappedKey: []byte("another wrapped key"),
			CreatedAt:  time.Now(),
		}
		err := s.CreateInvite(ctx, dup)
		assert.ErrorIs(t, err, storage.ErrDuplicateInvite)
	})

	t.Run("pending file names listed", func(t *testing.T) {
		names, err := s.ListPendingInviteFileNames(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"report.txt"}, names)
	})
}

func TestAcceptInvite(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	alice := newTestIdentity(t, s, "alice")
	bob := newTestIdentity(t, s, "bob")
	carol := newTestIdentity(t, s, "carol")
	file := newTestFile(t, s, "report.txt", alice)
	invite := newTestInvite(t, s, bob, file)

	t.Run("invitee finds pending invite by file name", func(t *testing.T) {
		got, err := s.GetPendingInviteByFileName(ctx, bob.ID, "report.txt")
		require.NoError(t, err)
		assert.Equal(t, invite.ID, got.ID)
		assert.Equal(t, invite.WrappedKey, got.WrappedKey)
	})

	t.Run("other identity finds nothing", func(t *testing.T) {
		_, err := s.GetPendingInviteByFileName(ctx, carol.ID, "report.txt")
		assert.ErrorIs(t, err, storage.ErrInviteNotFound)
	})

	t.Run("consumed invite cannot be found again", func(t *testing.T) {
		require.NoError(t, s.MarkAccepted(ctx, invite.ID))

		_, err := s.GetPendingInviteByFileName(ctx, bob.ID, "report.txt")
		assert.ErrorIs(t, err, storage.ErrInviteNotFound)

		names, err := s.ListPendingInviteFileNames(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("new invite allowed after acceptance", func(t *testing.T) {
		// The partial unique index only guards unaccepted invites: after a
		// remove/re-key cycle the invitee can be invited again.
		again := newTestInvite(t, s, bob, file)
		got, err := s.GetPendingInviteByFileName(ctx, bob.ID, "report.txt")
		require.NoError(t, err)
		assert.Equal(t, again.ID, got.ID)
	})

	t.Run("mark accepted on unknown invite", func(t *testing.T) {
		err := s.MarkAccepted(ctx, uuid.New().String())
		assert.ErrorIs(t, err, storage.ErrInviteNotFound)
	})
}
