package blob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	data := []byte("ciphertext bytes")
	require.NoError(t, s.Write("users/abc/report.txt", data))

	got, err := s.Read("users/abc/report.txt")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	t.Run("overwrite replaces content", func(t *testing.T) {
		require.NoError(t, s.Write("users/abc/report.txt", []byte("v2")))

		got, err := s.Read("users/abc/report.txt")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)
	})

	t.Run("missing blob", func(t *testing.T) {
		_, err := s.Read("users/abc/missing.txt")
		assert.Error(t, err)
	})
}

func TestExistsAndDelete(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	assert.False(t, s.Exists("alice/notes.txt"))

	require.NoError(t, s.Write("alice/notes.txt", []byte("ciphertext")))
	assert.True(t, s.Exists("alice/notes.txt"))

	require.NoError(t, s.Delete("alice/notes.txt"))
	assert.False(t, s.Exists("alice/notes.txt"))

	// Deleting an absent blob is a no-op.
	require.NoError(t, s.Delete("alice/notes.txt"))
}

func TestPathEscapeRejected(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	for _, path := range []string{"../outside.txt", "/etc/passwd", "users/../../escape", "."} {
		assert.Error(t, s.Write(path, []byte("x")), "path %q must be rejected", path)
	}
}
