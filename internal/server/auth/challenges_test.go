package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfaria/cofre/internal/server/storage"
)

func TestIssueGetInvalidate(t *testing.T) {
	c := NewChallenges(DefaultChallengeTTL)

	nonce, err := c.Issue("identity-1")
	require.NoError(t, err)
	assert.NotEmpty(t, nonce)

	got, err := c.Get("identity-1")
	require.NoError(t, err)
	assert.Equal(t, nonce, got)

	t.Run("get does not consume", func(t *testing.T) {
		again, err := c.Get("identity-1")
		require.NoError(t, err)
		assert.Equal(t, nonce, again)
	})

	t.Run("invalidate consumes exactly once", func(t *testing.T) {
		c.Invalidate("identity-1")

		_, err := c.Get("identity-1")
		assert.ErrorIs(t, err, storage.ErrChallengeNotFound)
	})
}

func TestIssueOverwritesPrevious(t *testing.T) {
	c := NewChallenges(DefaultChallengeTTL)

	first, err := c.Issue("identity-1")
	require.NoError(t, err)
	second, err := c.Issue("identity-1")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	// Only the newest challenge is answerable.
	got, err := c.Get("identity-1")
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestChallengeExpiry(t *testing.T) {
	c := NewChallenges(time.Minute)

	current := time.Now()
	c.now = func() time.Time { return current }

	_, err := c.Issue("identity-1")
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)

	_, err = c.Get("identity-1")
	assert.ErrorIs(t, err, storage.ErrChallengeNotFound)
}

func TestChallengesAreIndependentPerIdentity(t *testing.T) {
	c := NewChallenges(DefaultChallengeTTL)

	a, err := c.Issue("identity-a")
	require.NoError(t, err)
	b, err := c.Issue("identity-b")
	require.NoError(t, err)

	gotB, err := c.Get("identity-b")
	require.NoError(t, err)
	assert.Equal(t, b, gotB)

	gotA, err := c.Get("identity-a")
	require.NoError(t, err)
	assert.Equal(t, a, gotA)

	c.Invalidate("identity-a")
	_, err = c.Get("identity-a")
	assert.ErrorIs(t, err, storage.ErrChallengeNotFound)

	_, err = c.Get("identity-b")
	assert.NoError(t, err)
}
