// Package handlers implements the HTTP API: registration and
// challenge-response login, encrypted file upload/download, key-sharing
// invites and collaborator management, plus the replication ping.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/nfaria/cofre/internal/server/auth"
	"github.com/nfaria/cofre/internal/server/blob"
	"github.com/nfaria/cofre/internal/server/storage"
)

// Replicator forwards a mutating request to the backup replica before the
// primary commits it. Forwarding is best effort: a missing or unreachable
// backup is logged, never surfaced to the client.
type Replicator interface {
	Forward(ctx context.Context, method, path string, body []byte, token string)
}

// NoopReplicator is the Replicator used by the backup replica itself and by
// single-server deployments.
type NoopReplicator struct{}

func (NoopReplicator) Forward(context.Context, string, string, []byte, string) {}

// Handler serves the HTTP API. One instance is shared by every route.
type Handler struct {
	identities storage.IdentityStorage
	files      storage.FileStorage
	invites    storage.InviteStorage
	blobs      *blob.Store
	challenges *auth.Challenges
	tokens     TokenConfig
	replicator Replicator
	log        *slog.Logger
}

// Config collects the Handler's dependencies.
type Config struct {
	Identities storage.IdentityStorage
	Files      storage.FileStorage
	Invites    storage.InviteStorage
	Blobs      *blob.Store
	Challenges *auth.Challenges
	Tokens     TokenConfig
	Replicator Replicator
	Logger     *slog.Logger
}

// New creates a Handler. A nil Replicator defaults to NoopReplicator and a
// nil Logger to slog.Default.
func New(cfg Config) *Handler {
	if cfg.Replicator == nil {
		cfg.Replicator = NoopReplicator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{
		identities: cfg.Identities,
		files:      cfg.Files,
		invites:    cfg.Invites,
		blobs:      cfg.Blobs,
		challenges: cfg.Challenges,
		tokens:     cfg.Tokens,
		replicator: cfg.Replicator,
		log:        cfg.Logger,
	}
}

// readBody reads and decodes a JSON request body, returning the raw bytes so
// mutating handlers can forward the request verbatim to the backup.
func readBody(r *http.Request, v any) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return nil, err
	}
	return body, nil
}

// replicate forwards the request to the backup under the caller's own
// credential before the primary commits the mutation.
func (h *Handler) replicate(r *http.Request, body []byte) {
	h.replicator.Forward(r.Context(), r.Method, r.URL.Path, body, RawToken(r.Context()))
}

// requireIdentity rejects unauthenticated requests with 401 and otherwise
// returns the caller's identity id.
func (h *Handler) requireIdentity(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := IdentityID(r.Context())
	if id == UnauthenticatedID {
		sendError(w, http.StatusUnauthorized, "unauthenticated", "missing or invalid session token")
		return "", false
	}
	return id, true
}
