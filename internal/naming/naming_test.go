package naming

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, *Client) {
	t.Helper()

	reg := NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(reg.Handler())
	t.Cleanup(srv.Close)

	return reg, NewClient(srv.URL)
}

func TestBindLookup(t *testing.T) {
	_, client := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, client.Bind(ctx, "/cofre/server", "http://primary:8080"))

	uri, err := client.Lookup(ctx, "/cofre/server")
	require.NoError(t, err)
	assert.Equal(t, "http://primary:8080", uri)
}

func TestBindConflict(t *testing.T) {
	_, client := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, client.Bind(ctx, "/cofre/server", "http://primary:8080"))
	require.Error(t, client.Bind(ctx, "/cofre/server", "http://usurper:8080"))

	// The original binding survives the failed bind.
	uri, err := client.Lookup(ctx, "/cofre/server")
	require.NoError(t, err)
	assert.Equal(t, "http://primary:8080", uri)
}

func TestRebindReplaces(t *testing.T) {
	_, client := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, client.Bind(ctx, "/cofre/server", "http://primary:8080"))
	require.NoError(t, client.Rebind(ctx, "/cofre/server", "http://backup:8081"))

	uri, err := client.Lookup(ctx, "/cofre/server")
	require.NoError(t, err)
	assert.Equal(t, "http://backup:8081", uri)
}

func TestLookupUnbound(t *testing.T) {
	_, client := newTestRegistry(t)

	_, err := client.Lookup(context.Background(), "/cofre/server")
	require.ErrorIs(t, err, ErrNotBound)
}

func TestUnbind(t *testing.T) {
	_, client := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, client.Bind(ctx, "/cofre/server/backup", "http://backup:8081"))
	require.NoError(t, client.Unbind(ctx, "/cofre/server/backup", "http://backup:8081"))

	_, err := client.Lookup(ctx, "/cofre/server/backup")
	require.ErrorIs(t, err, ErrNotBound)
}

func TestUnbindRequiresMatchingURI(t *testing.T) {
	_, client := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, client.Bind(ctx, "/cofre/server", "http://replacement:8080"))

	// A stale unbind from a dead server must not evict its replacement.
	require.Error(t, client.Unbind(ctx, "/cofre/server", "http://old-primary:8080"))

	uri, err := client.Lookup(ctx, "/cofre/server")
	require.NoError(t, err)
	assert.Equal(t, "http://replacement:8080", uri)
}

func TestRegistryDirect(t *testing.T) {
	reg := NewRegistry(nil)

	require.True(t, reg.Bind("/a", "uri-1"))
	require.False(t, reg.Bind("/a", "uri-2"))

	uri, ok := reg.Lookup("/a")
	require.True(t, ok)
	assert.Equal(t, "uri-1", uri)

	reg.Rebind("/a", "uri-3")
	uri, _ = reg.Lookup("/a")
	assert.Equal(t, "uri-3", uri)

	require.False(t, reg.Unbind("/a", "uri-1"))
	require.True(t, reg.Unbind("/a", "uri-3"))
	_, ok = reg.Lookup("/a")
	assert.False(t, ok)
}
