package storage

import (
	"context"

	"github.com/nfaria/cofre/internal/models"
)

// InviteStorage persists key-sharing invites. An identity holds at most one
// unaccepted invite per file; accepted invites are kept for audit but can
// never be consumed again.
type InviteStorage interface {
	// CreateInvite inserts a pending invite.
	// Returns ErrDuplicateInvite if an unaccepted invite for the same
	// identity and file already exists.
	CreateInvite(ctx context.Context, invite *models.Invite) error

	// GetPendingInviteByFileName finds the identity's unaccepted invite for
	// the file with the given name. Returns ErrInviteNotFound if absent.
	GetPendingInviteByFileName(ctx context.Context, identityID, fileName string) (*models.Invite, error)

	// HasPendingInvite reports whether an unaccepted invite exists for the
	// identity and file.
	HasPendingInvite(ctx context.Context, identityID, fileID string) (bool, error)

	// ListPendingInviteFileNames returns the names of files the identity has
	// outstanding invites for, for login-time enumeration.
	ListPendingInviteFileNames(ctx context.Context, identityID string) ([]string, error)

	// MarkAccepted consumes an invite. Returns ErrInviteNotFound if the
	// invite does not exist.
	MarkAccepted(ctx context.Context, inviteID string) error
}
