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

// CreateInvite inserts a pending invite. The partial unique index on
// (identity_id, file_id) WHERE accepted = 0 enforces the one-pending-invite
// rule at the storage level.
func (s *Storage) CreateInvite(ctx context.Context, invite *models.Invite) error {
	query := `
		INSERT INTO invites (id, identity_id, file_id, wrapped_key, accepted, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		invite.ID,
		invite.IdentityID,
		invite.FileID,
		invite.WrappedKey,
		invite.Accepted,
		invite.CreatedAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return storage.ErrDuplicateInvite
		}
		return fmt.Errorf("failed to insert invite: %w", err)
	}

	return nil
}

// GetPendingInviteByFileName finds the identity's unaccepted invite for the
// file with the given name.
func (s *Storage) GetPendingInviteByFileName(ctx context.Context, identityID, fileName string) (*models.Invite, error) {
	query := `
		SELECT inv.id, inv.identity_id, inv.file_id, inv.wrapped_key, inv.accepted, inv.created_at
		FROM invites inv
		JOIN files f ON f.id = inv.file_id
		WHERE inv.identity_id = ? AND f.name = ? AND inv.accepted = 0
	`

	invite := &models.Invite{}
	err := s.db.QueryRowContext(ctx, query, identityID, fileName).Scan(
		&invite.ID,
		&invite.IdentityID,
		&invite.FileID,
		&invite.WrappedKey,
		&invite.Accepted,
		&invite.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}

	return invite, nil
}

// HasPendingInvite reports whether an unaccepted invite exists for the
// identity and file.
func (s *Storage) HasPendingInvite(ctx context.Context, identityID, fileID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invites WHERE identity_id = ? AND file_id = ? AND accepted = 0`,
		identityID, fileID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count invites: %w", err)
	}
	return count > 0, nil
}

// ListPendingInviteFileNames returns the file names the identity has
// outstanding invites for.
func (s *Storage) ListPendingInviteFileNames(ctx context.Context, identityID string) ([]string, error) {
	query := `
		SELECT f.name
		FROM invites inv
		JOIN files f ON f.id = inv.file_id
		WHERE inv.identity_id = ? AND inv.accepted = 0
		ORDER BY inv.created_at
	`

	rows, err := s.db.QueryContext(ctx, query, identityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending invites: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan invite file name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invites: %w", err)
	}

	return names, nil
}

// MarkAccepted consumes an invite permanently.
func (s *Storage) MarkAccepted(ctx context.Context, inviteID string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE invites SET accepted = 1 WHERE id = ?`, inviteID)
	if err != nil {
		return fmt.Errorf("failed to mark invite accepted: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrInviteNotFound
	}

	return nil
}
