package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/nfaria/cofre/internal/models"
	"github.com/nfaria/cofre/internal/server/storage"
)

// CreateIdentity inserts a new identity.
func (s *Storage) CreateIdentity(ctx context.Context, identity *models.Identity) error {
	query := `
		INSERT INTO identities (id, username, certificate, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		identity.ID,
		identity.Username,
		identity.Certificate,
		identity.CreatedAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: identities.username") {
			return storage.ErrIdentityExists
		}
		return fmt.Errorf("failed to insert identity: %w", err)
	}

	return nil
}

// GetIdentityByUsername retrieves an identity by username.
func (s *Storage) GetIdentityByUsername(ctx context.Context, username string) (*models.Identity, error) {
	query := `
		SELECT id, username, certificate, created_at
		FROM identities
		WHERE username = ?
	`
	return s.scanIdentity(s.db.QueryRowContext(ctx, query, username))
}

// GetIdentityByID retrieves an identity by id.
func (s *Storage) GetIdentityByID(ctx context.Context, id string) (*models.Identity, error) {
	query := `
		SELECT id, username, certificate, created_at
		FROM identities
		WHERE id = ?
	`
	return s.scanIdentity(s.db.QueryRowContext(ctx, query, id))
}

func (s *Storage) scanIdentity(row *sql.Row) (*models.Identity, error) {
	identity := &models.Identity{}

	err := row.Scan(
		&identity.ID,
		&identity.Username,
		&identity.Certificate,
		&identity.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	return identity, nil
}
