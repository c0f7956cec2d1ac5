package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()

	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestEntryRoundTrip(t *testing.T) {
	c := newTestCache(t)

	entry := Entry{
		Name:         "notes.txt",
		Owner:        "alice",
		Version:      3,
		LastModifier: "bob",
		UpdatedAt:    time.Now().Truncate(time.Second),
	}
	require.NoError(t, c.PutEntry(entry))

	got, err := c.GetEntry("notes.txt")
	require.NoError(t, err)
	assert.Equal(t, entry.Owner, got.Owner)
	assert.Equal(t, entry.Version, got.Version)
	assert.Equal(t, entry.LastModifier, got.LastModifier)
}

func TestGetEntryMissing(t *testing.T) {
	c := newTestCache(t)

	_, err := c.GetEntry("ghost.txt")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPutEntryOverwrites(t *testing.T) {
	c := newTestCache(t)

	require.NoError(t, c.PutEntry(Entry{Name: "notes.txt", Version: 1}))
	require.NoError(t, c.PutEntry(Entry{Name: "notes.txt", Version: 2}))

	got, err := c.GetEntry("notes.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
}

func TestListEntries(t *testing.T) {
	c := newTestCache(t)

	require.NoError(t, c.PutEntry(Entry{Name: "a.txt", Version: 1}))
	require.NoError(t, c.PutEntry(Entry{Name: "b.txt", Version: 5}))

	entries, err := c.ListEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFileKeyRoundTrip(t *testing.T) {
	c := newTestCache(t)

	key := []byte("0123456789abcdef")
	require.NoError(t, c.PutFileKey("notes.txt", key))

	got, err := c.GetFileKey("notes.txt")
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = c.GetFileKey("other.txt")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCiphertextRoundTrip(t *testing.T) {
	c := newTestCache(t)

	data := []byte("opaque encrypted bytes")
	require.NoError(t, c.PutCiphertext("notes.txt", data))

	got, err := c.GetCiphertext("notes.txt")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = c.GetCiphertext("other.txt")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCiphertext(t *testing.T) {
	c := newTestCache(t)

	require.NoError(t, c.PutCiphertext("notes.txt", []byte("stale")))
	require.NoError(t, c.DeleteCiphertext("notes.txt"))

	_, err := c.GetCiphertext("notes.txt")
	require.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent copy is a no-op.
	require.NoError(t, c.DeleteCiphertext("ghost.txt"))
}
