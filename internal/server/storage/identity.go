package storage

import (
	"context"

	"github.com/nfaria/cofre/internal/models"
)

// IdentityStorage persists registered identities.
type IdentityStorage interface {
	// CreateIdentity inserts a new identity.
	// Returns ErrIdentityExists if the username is taken.
	CreateIdentity(ctx context.Context, identity *models.Identity) error

	// GetIdentityByUsername retrieves an identity by its username.
	// Returns ErrIdentityNotFound if absent.
	GetIdentityByUsername(ctx context.Context, username string) (*models.Identity, error)

	// GetIdentityByID retrieves an identity by its stable id.
	// Returns ErrIdentityNotFound if absent.
	GetIdentityByID(ctx context.Context, id string) (*models.Identity, error)
}
