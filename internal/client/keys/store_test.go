package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfaria/cofre/internal/crypto"
)

func TestSaveLoad(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	key, certDER, err := crypto.GenerateIdentity("alice")
	require.NoError(t, err)

	require.False(t, store.Exists("alice"))
	require.NoError(t, store.Save("alice", key, certDER, "correct horse"))
	require.True(t, store.Exists("alice"))

	loaded, loadedCert, err := store.Load("alice", "correct horse")
	require.NoError(t, err)
	assert.True(t, key.Equal(loaded))
	assert.Equal(t, certDER, loadedCert)
}

func TestLoadWrongPassphrase(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	key, certDER, err := crypto.GenerateIdentity("alice")
	require.NoError(t, err)
	require.NoError(t, store.Save("alice", key, certDER, "correct horse"))

	_, _, err = store.Load("alice", "battery staple")
	require.Error(t, err)
}

func TestLoadMissingUser(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Load("ghost", "whatever")
	require.ErrorIs(t, err, ErrNoKey)
}
