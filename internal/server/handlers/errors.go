package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nfaria/cofre/internal/crypto"
	"github.com/nfaria/cofre/internal/server/storage"
)

// sendDomainError translates domain errors to HTTP responses. Anything not
// recognized is a 500 with a generic body; the detail goes to the log only.
func sendDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrIdentityExists):
		sendError(w, http.StatusConflict, "identity_exists", "username is already registered")
	case errors.Is(err, storage.ErrIdentityNotFound):
		sendError(w, http.StatusNotFound, "identity_not_found", "no such user")
	case errors.Is(err, storage.ErrFileNotFound):
		sendError(w, http.StatusNotFound, "file_not_found", "no such file")
	case errors.Is(err, storage.ErrNotOwner):
		sendError(w, http.StatusForbidden, "not_owner", "only the owner may perform this operation")
	case errors.Is(err, storage.ErrNotCollaborator):
		sendError(w, http.StatusForbidden, "not_collaborator", "caller is not a collaborator on this file")
	case errors.Is(err, storage.ErrInviteNotFound):
		sendError(w, http.StatusNotFound, "invite_not_found", "no pending invite for this file")
	case errors.Is(err, storage.ErrDuplicateInvite):
		sendError(w, http.StatusConflict, "duplicate_invite", "user already has a pending invite for this file")
	case errors.Is(err, storage.ErrAlreadyCollaborator):
		sendError(w, http.StatusConflict, "already_collaborator", "user is already a collaborator on this file")
	case errors.Is(err, storage.ErrChallengeNotFound):
		sendError(w, http.StatusUnauthorized, "challenge_expired", "no pending challenge; request a new one")
	case errors.Is(err, storage.ErrChallengeMismatch):
		sendError(w, http.StatusUnauthorized, "challenge_failed", "challenge verification failed")
	case errors.Is(err, crypto.ErrCrypto):
		sendError(w, http.StatusUnauthorized, "verification_failed", "cryptographic verification failed")
	default:
		slog.Error("internal error", "error", err)
		sendError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
