package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpenPrivateKey(t *testing.T) {
	key, _, err := GenerateIdentity("alice")
	require.NoError(t, err)

	blob, err := SealPrivateKey(key, "correct horse battery")
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		got, err := OpenPrivateKey(blob, "correct horse battery")
		require.NoError(t, err)
		assert.True(t, key.Equal(got))
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		_, err := OpenPrivateKey(blob, "wrong passphrase!")
		assert.ErrorIs(t, err, ErrCrypto)
	})

	t.Run("corrupted blob", func(t *testing.T) {
		tampered := append([]byte(nil), blob...)
		tampered[len(tampered)-1] ^= 0x01
		_, err := OpenPrivateKey(tampered, "correct horse battery")
		assert.ErrorIs(t, err, ErrCrypto)
	})

	t.Run("truncated blob", func(t *testing.T) {
		_, err := OpenPrivateKey(blob[:10], "correct horse battery")
		assert.ErrorIs(t, err, ErrCrypto)
	})

	t.Run("empty passphrase rejected", func(t *testing.T) {
		_, err := SealPrivateKey(key, "")
		assert.Error(t, err)
	})
}
