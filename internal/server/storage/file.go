package storage

import (
	"context"

	"github.com/nfaria/cofre/internal/models"
)

// FileStorage persists file records and their collaborator sets. Records are
// only ever reachable through collaborator membership; there is no global
// listing.
type FileStorage interface {
	// CreateFile inserts a new record with version 1 and its initial
	// collaborator set (the owner).
	CreateFile(ctx context.Context, file *models.FileRecord) error

	// GetFileByPath retrieves a record by its unique storage path.
	// Returns ErrFileNotFound if absent.
	GetFileByPath(ctx context.Context, path string) (*models.FileRecord, error)

	// GetFileForIdentity retrieves the record with the given name that the
	// identity collaborates on. Returns ErrFileNotFound when no such file
	// is reachable for that identity.
	GetFileForIdentity(ctx context.Context, name, identityID string) (*models.FileRecord, error)

	// UpdateFileVersion applies an accepted overwrite: version+1, new
	// signature and last modifier, all in one transaction. Returns the new
	// version.
	UpdateFileVersion(ctx context.Context, fileID string, signature []byte, modifierID string) (int, error)

	// AddCollaborator adds an identity to the file's collaborator set.
	// Adding an existing member is a no-op.
	AddCollaborator(ctx context.Context, fileID, identityID string) error

	// ListCollaborators returns the identities in the file's collaborator set.
	ListCollaborators(ctx context.Context, fileID string) ([]*models.Identity, error)

	// ResetCollaborators clears the collaborator set down to just the owner.
	// Used by remove: everyone else must be re-invited under a fresh key.
	ResetCollaborators(ctx context.Context, fileID, ownerID string) error
}
