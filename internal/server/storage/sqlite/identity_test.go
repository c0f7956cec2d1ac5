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

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func newTestIdentity(t *testing.T, s *Storage, username string) *models.Identity {
	t.Helper()

	identity := &models.Identity{
		ID:          uuid.New().String(),
		Username:    username,
		Certificate: []byte("certificate of " + username),
		CreatedAt:   time.Now(),
	}
	require.NoError(t, s.CreateIdentity(context.Background(), identity))
	return identity
}

func TestCreateIdentity(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	alice := newTestIdentity(t, s, "alice")

	t.Run("get by username", func(t *testing.T) {
		got, err := s.GetIdentityByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)
		assert.Equal(t, alice.Certificate, got.Certificate)
	})

	t.Run("get by id", func(t *testing.T) {
		got, err := s.GetIdentityByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
	})

	t.Run("duplicate username", func(t *testing.T) {
		dup := &models.Identity{
			ID:          uuid.New().String(),
			Username:    "alice",
			Certificate: []byte("another certificate"),
			CreatedAt:   time.Now(),
		}
		err := s.CreateIdentity(ctx, dup)
		assert.ErrorIs(t, err, storage.ErrIdentityExists)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := s.GetIdentityByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, storage.ErrIdentityNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := s.GetIdentityByID(ctx, uuid.New().String())
		assert.ErrorIs(t, err, storage.ErrIdentityNotFound)
	})
}
