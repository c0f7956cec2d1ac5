package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nfaria/cofre/internal/models"
	"github.com/nfaria/cofre/internal/server/storage"
	"github.com/nfaria/cofre/pkg/api"
)

// Invite stores a wrapped file key for another identity. Only the owner can
// invite, and the server never sees the key in the clear.
// POST /api/v1/invites
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	var req api.InviteRequest
	body, err := readBody(r, &req)
	if err != nil {
		sendError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if len(req.WrappedKey) == 0 {
		sendError(w, http.StatusBadRequest, "bad_request", "wrapped key is required")
		return
	}

	caller, err := h.identities.GetIdentityByID(r.Context(), callerID)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	file, err := h.files.GetFileByPath(r.Context(), filePath(caller.Username, req.FileName))
	if err != nil {
		sendDomainError(w, err)
		return
	}
	if file.OwnerID != callerID {
		sendDomainError(w, storage.ErrNotOwner)
		return
	}

	invitee, err := h.identities.GetIdentityByUsername(r.Context(), req.Username)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	if file.HasCollaborator(invitee.ID) {
		sendDomainError(w, storage.ErrAlreadyCollaborator)
		return
	}
	pending, err := h.invites.HasPendingInvite(r.Context(), invitee.ID, file.ID)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	if pending {
		sendDomainError(w, storage.ErrDuplicateInvite)
		return
	}

	h.replicate(r, body)

	invite := &models.Invite{
		ID:         uuid.New().String(),
		IdentityID: invitee.ID,
		FileID:     file.ID,
		WrappedKey: req.WrappedKey,
		CreatedAt:  time.Now(),
	}
	if err := h.invites.CreateInvite(r.Context(), invite); err != nil {
		sendDomainError(w, err)
		return
	}

	h.log.Info("invite created", "file", req.FileName, "invitee", req.Username)
	sendJSON(w, http.StatusCreated, api.RegisterResponse{Message: "invited"})
}

// Accept consumes the caller's pending invite for a file, promotes the
// caller to collaborator and hands back the wrapped key. Promotion is
// idempotent, so a replayed accept cannot corrupt the collaborator set.
// POST /api/v1/invites/accept
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	var req api.AcceptRequest
	body, err := readBody(r, &req)
	if err != nil {
		sendError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	invite, err := h.invites.GetPendingInviteByFileName(r.Context(), callerID, req.FileName)
	if err != nil {
		sendDomainError(w, err)
		return
	}

	h.replicate(r, body)

	if err := h.invites.MarkAccepted(r.Context(), invite.ID); err != nil {
		sendDomainError(w, err)
		return
	}
	if err := h.files.AddCollaborator(r.Context(), invite.FileID, callerID); err != nil {
		sendDomainError(w, err)
		return
	}

	h.log.Info("invite accepted", "file", req.FileName)
	sendJSON(w, http.StatusOK, api.AcceptResponse{WrappedKey: invite.WrappedKey})
}
