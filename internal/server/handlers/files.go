package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nfaria/cofre/internal/crypto"
	"github.com/nfaria/cofre/internal/models"
	"github.com/nfaria/cofre/internal/server/storage"
	"github.com/nfaria/cofre/pkg/api"
)

// filePath is the canonical storage path for a file: the owner's username
// namespaces the name, so two users can own files with the same name.
func filePath(ownerUsername, name string) string {
	return ownerUsername + "/" + name
}

func validFileName(name string) bool {
	return name != "" && !strings.ContainsAny(name, "/\\")
}

// Upload stores a new version of a file, or creates it when no file exists
// at the owner's path yet. The signature must verify against the caller's
// certificate; re-sent duplicates of the current version are acknowledged
// without bumping the version.
// POST /api/v1/files
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	var req api.UploadRequest
	body, err := readBody(r, &req)
	if err != nil {
		sendError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if !validFileName(req.Name) {
		sendError(w, http.StatusBadRequest, "invalid_file_name", "file name must be non-empty and contain no path separators")
		return
	}
	if len(req.Ciphertext) == 0 || len(req.Signature) == 0 {
		sendError(w, http.StatusBadRequest, "bad_request", "ciphertext and signature are required")
		return
	}

	caller, err := h.identities.GetIdentityByID(r.Context(), callerID)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	owner, err := h.identities.GetIdentityByUsername(r.Context(), req.Owner)
	if err != nil {
		sendDomainError(w, err)
		return
	}

	// The stored signature always covers the stored ciphertext, so verify
	// against the caller's certificate before anything is persisted.
	if err := crypto.Verify(req.Ciphertext, caller.Certificate, req.Signature); err != nil {
		h.log.Warn("upload signature rejected", "file", req.Name, "username", caller.Username)
		sendDomainError(w, err)
		return
	}

	path := filePath(owner.Username, req.Name)
	file, err := h.files.GetFileByPath(r.Context(), path)
	switch {
	case err == nil:
		h.overwrite(w, r, body, file, callerID, req)
	case errors.Is(err, storage.ErrFileNotFound):
		h.createFile(w, r, body, owner, callerID, path, req)
	default:
		sendDomainError(w, err)
	}
}

func (h *Handler) createFile(w http.ResponseWriter, r *http.Request, body []byte, owner *models.Identity, callerID, path string, req api.UploadRequest) {
	// Only the declared owner may create the file; collaborators can only
	// overwrite files that already exist.
	if owner.ID != callerID {
		sendDomainError(w, storage.ErrNotOwner)
		return
	}

	h.replicate(r, body)

	// Ciphertext goes to disk before the record exists. The duplicate check
	// in overwrite assumes a recorded signature always has its stored blob;
	// an orphaned blob from a failed insert is overwritten by the retry.
	if err := h.blobs.Write(path, req.Ciphertext); err != nil {
		sendDomainError(w, err)
		return
	}

	file := &models.FileRecord{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Path:           path,
		Version:        1,
		OwnerID:        owner.ID,
		LastModifierID: callerID,
		Signature:      req.Signature,
		Collaborators:  []string{owner.ID},
		UpdatedAt:      time.Now(),
	}
	if err := h.files.CreateFile(r.Context(), file); err != nil {
		if delErr := h.blobs.Delete(path); delErr != nil {
			h.log.Warn("orphaned blob after failed create", "path", path, "error", delErr)
		}
		sendDomainError(w, err)
		return
	}

	h.log.Info("file created", "file", req.Name, "owner", owner.Username)
	sendJSON(w, http.StatusCreated, api.UploadResponse{Version: 1})
}

func (h *Handler) overwrite(w http.ResponseWriter, r *http.Request, body []byte, file *models.FileRecord, callerID string, req api.UploadRequest) {
	if !file.HasCollaborator(callerID) {
		sendDomainError(w, storage.ErrNotCollaborator)
		return
	}

	// A retried or replicated duplicate carries the signature already on
	// record; acknowledge it without a second version bump. The blob must
	// actually exist before the retry is waved through, so an upload whose
	// blob write failed can still complete here.
	if bytes.Equal(file.Signature, req.Signature) {
		if !h.blobs.Exists(file.Path) {
			h.replicate(r, body)
			if err := h.blobs.Write(file.Path, req.Ciphertext); err != nil {
				sendDomainError(w, err)
				return
			}
			h.log.Info("missing blob restored", "file", file.Name, "version", file.Version)
		}
		sendJSON(w, http.StatusOK, api.UploadResponse{Version: file.Version})
		return
	}

	h.replicate(r, body)

	// Same discipline as createFile: blob first, record second. If the
	// version update fails, the recorded signature no longer matches the
	// stored bytes, and the next retry (a different signature) rewrites both.
	if err := h.blobs.Write(file.Path, req.Ciphertext); err != nil {
		sendDomainError(w, err)
		return
	}
	version, err := h.files.UpdateFileVersion(r.Context(), file.ID, req.Signature, callerID)
	if err != nil {
		sendDomainError(w, err)
		return
	}

	h.log.Info("file overwritten", "file", file.Name, "version", version)
	sendJSON(w, http.StatusOK, api.UploadResponse{Version: version})
}

// Download returns the stored ciphertext and the metadata needed to verify
// and decrypt it. Files are only reachable through collaborator membership.
// GET /api/v1/files/{name}
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	name := r.PathValue("name")
	file, err := h.files.GetFileForIdentity(r.Context(), name, callerID)
	if err != nil {
		sendDomainError(w, err)
		return
	}

	modifier, err := h.identities.GetIdentityByID(r.Context(), file.LastModifierID)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	owner, err := h.identities.GetIdentityByID(r.Context(), file.OwnerID)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	ciphertext, err := h.blobs.Read(file.Path)
	if err != nil {
		sendDomainError(w, err)
		return
	}

	sendJSON(w, http.StatusOK, api.DownloadResponse{
		Name:         file.Name,
		Ciphertext:   ciphertext,
		Signature:    file.Signature,
		Certificate:  modifier.Certificate,
		LastModifier: modifier.Username,
		Owner:        owner.Username,
		Version:      file.Version,
	})
}

// Certificate returns a registered identity's public certificate so other
// users can wrap file keys for it.
// GET /api/v1/users/{username}/certificate
func (h *Handler) Certificate(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireIdentity(w, r); !ok {
		return
	}

	username := r.PathValue("username")
	identity, err := h.identities.GetIdentityByUsername(r.Context(), username)
	if err != nil {
		sendDomainError(w, err)
		return
	}

	sendJSON(w, http.StatusOK, api.CertificateResponse{
		Username:    identity.Username,
		Certificate: identity.Certificate,
	})
}

// Remove revokes a collaborator. The server cannot rotate the symmetric key
// it never sees, so removal resets the collaborator set to just the owner
// and returns the certificates of everyone still entitled; the owner re-keys
// the file and re-invites each of them.
// POST /api/v1/files/remove
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	var req api.RemoveRequest
	body, err := readBody(r, &req)
	if err != nil {
		sendError(w, http.StatusBadRequest, "bad_request", "invalid request body")
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

	target, err := h.identities.GetIdentityByUsername(r.Context(), req.Username)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	if target.ID == file.OwnerID {
		sendError(w, http.StatusBadRequest, "cannot_remove_owner", "the owner cannot be removed from their own file")
		return
	}
	if !file.HasCollaborator(target.ID) {
		sendDomainError(w, storage.ErrNotCollaborator)
		return
	}

	remaining, err := h.files.ListCollaborators(r.Context(), file.ID)
	if err != nil {
		sendDomainError(w, err)
		return
	}

	h.replicate(r, body)

	if err := h.files.ResetCollaborators(r.Context(), file.ID, file.OwnerID); err != nil {
		sendDomainError(w, err)
		return
	}

	resp := api.RemoveResponse{}
	for _, c := range remaining {
		if c.ID == target.ID || c.ID == file.OwnerID {
			continue
		}
		resp.Collaborators = append(resp.Collaborators, api.CertificateResponse{
			Username:    c.Username,
			Certificate: c.Certificate,
		})
	}

	h.log.Info("collaborator removed", "file", req.FileName, "removed", req.Username)
	sendJSON(w, http.StatusOK, resp)
}
