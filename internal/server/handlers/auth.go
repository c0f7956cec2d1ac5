package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nfaria/cofre/internal/crypto"
	"github.com/nfaria/cofre/internal/models"
	"github.com/nfaria/cofre/internal/server/storage"
	"github.com/nfaria/cofre/internal/validation"
	"github.com/nfaria/cofre/pkg/api"
)

// Register creates a new identity from a username and its certificate.
// POST /api/v1/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	body, err := readBody(r, &req)
	if err != nil {
		sendError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	if err := validation.ValidateUsername(req.Username); err != nil {
		sendError(w, http.StatusBadRequest, "invalid_username", err.Error())
		return
	}
	if _, err := crypto.PublicKeyFromCertificate(req.Certificate); err != nil {
		sendError(w, http.StatusBadRequest, "invalid_certificate", "certificate is not a valid X.509 RSA certificate")
		return
	}

	h.replicate(r, body)

	// The identity id is derived from the username so both replicas mint
	// the same id: session tokens embed it, and a token issued by the
	// primary must keep working on the backup after a failover.
	identity := &models.Identity{
		ID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte(req.Username)).String(),
		Username:    req.Username,
		Certificate: req.Certificate,
		CreatedAt:   time.Now(),
	}
	if err := h.identities.CreateIdentity(r.Context(), identity); err != nil {
		sendDomainError(w, err)
		return
	}

	h.log.Info("identity registered", "username", req.Username)
	sendJSON(w, http.StatusCreated, api.RegisterResponse{Message: "registered"})
}

// Challenge issues a one-time login nonce for the identity to sign.
// POST /api/v1/auth/challenge
func (h *Handler) Challenge(w http.ResponseWriter, r *http.Request) {
	var req api.ChallengeRequest
	if _, err := readBody(r, &req); err != nil {
		sendError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	identity, err := h.identities.GetIdentityByUsername(r.Context(), req.Username)
	if err != nil {
		sendDomainError(w, err)
		return
	}

	nonce, err := h.challenges.Issue(identity.ID)
	if err != nil {
		sendDomainError(w, err)
		return
	}

	sendJSON(w, http.StatusOK, api.ChallengeResponse{Nonce: nonce})
}

// Token exchanges a signed challenge nonce for a session token. The nonce is
// consumed only on success, so a failed attempt must answer the same
// challenge again rather than forcing a fresh one.
// POST /api/v1/auth/token
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var req api.TokenRequest
	if _, err := readBody(r, &req); err != nil {
		sendError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	identity, err := h.identities.GetIdentityByUsername(r.Context(), req.Username)
	if err != nil {
		sendDomainError(w, err)
		return
	}

	nonce, err := h.challenges.Get(identity.ID)
	if err != nil {
		sendDomainError(w, err)
		return
	}

	if err := crypto.Verify([]byte(nonce), identity.Certificate, req.SignedNonce); err != nil {
		h.log.Warn("challenge verification failed", "username", req.Username)
		sendDomainError(w, storage.ErrChallengeMismatch)
		return
	}
	h.challenges.Invalidate(identity.ID)

	token, err := GenerateSessionToken(h.tokens, identity.ID, identity.Username)
	if err != nil {
		sendDomainError(w, err)
		return
	}

	pending, err := h.invites.ListPendingInviteFileNames(r.Context(), identity.ID)
	if err != nil {
		sendDomainError(w, err)
		return
	}

	h.log.Info("session opened", "username", req.Username)
	sendJSON(w, http.StatusOK, api.TokenResponse{Token: token, PendingInvites: pending})
}
