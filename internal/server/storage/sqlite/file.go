package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nfaria/cofre/internal/models"
	"github.com/nfaria/cofre/internal/server/storage"
)

// CreateFile inserts a new record together with its initial collaborator set
// (just the owner), atomically.
func (s *Storage) CreateFile(ctx context.Context, file *models.FileRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO files (id, name, path, version, owner_id, last_modifier_id, signature, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		file.ID,
		file.Name,
		file.Path,
		file.Version,
		file.OwnerID,
		file.LastModifierID,
		file.Signature,
		file.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert file: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO file_collaborators (file_id, identity_id) VALUES (?, ?)`,
		file.ID, file.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert owner collaborator: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// GetFileByPath retrieves a record by its unique storage path.
func (s *Storage) GetFileByPath(ctx context.Context, path string) (*models.FileRecord, error) {
	query := `
		SELECT id, name, path, version, owner_id, last_modifier_id, signature, updated_at
		FROM files
		WHERE path = ?
	`
	return s.scanFile(ctx, s.db.QueryRowContext(ctx, query, path))
}

// GetFileForIdentity retrieves the named file the identity collaborates on.
// Membership is the only way to reach a record, so a file that exists but
// does not list the identity is indistinguishable from a missing one.
func (s *Storage) GetFileForIdentity(ctx context.Context, name, identityID string) (*models.FileRecord, error) {
	query := `
		SELECT f.id, f.name, f.path, f.version, f.owner_id, f.last_modifier_id, f.signature, f.updated_at
		FROM files f
		JOIN file_collaborators fc ON fc.file_id = f.id
		WHERE f.name = ? AND fc.identity_id = ?
	`
	return s.scanFile(ctx, s.db.QueryRowContext(ctx, query, name, identityID))
}

// UpdateFileVersion applies an accepted overwrite in a single transaction:
// the version increment, the new signature and the new last modifier are
// never observable separately.
func (s *Storage) UpdateFileVersion(ctx context.Context, fileID string, signature []byte, modifierID string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		UPDATE files
		SET version = version + 1, signature = ?, last_modifier_id = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := tx.ExecContext(ctx, query, signature, modifierID, time.Now(), fileID)
	if err != nil {
		return 0, fmt.Errorf("failed to update file: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return 0, storage.ErrFileNotFound
	}

	var version int
	if err := tx.QueryRowContext(ctx, `SELECT version FROM files WHERE id = ?`, fileID).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read new version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return version, nil
}

// AddCollaborator adds an identity to the collaborator set; re-adding an
// existing member is a no-op, which makes invite promotion idempotent.
func (s *Storage) AddCollaborator(ctx context.Context, fileID, identityID string) error {
	query := `
		INSERT INTO file_collaborators (file_id, identity_id)
		VALUES (?, ?)
		ON CONFLICT (file_id, identity_id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, fileID, identityID); err != nil {
		return fmt.Errorf("failed to add collaborator: %w", err)
	}
	return nil
}

// ListCollaborators returns the identities in the file's collaborator set.
func (s *Storage) ListCollaborators(ctx context.Context, fileID string) ([]*models.Identity, error) {
	query := `
		SELECT i.id, i.username, i.certificate, i.created_at
		FROM identities i
		JOIN file_collaborators fc ON fc.identity_id = i.id
		WHERE fc.file_id = ?
		ORDER BY i.username
	`

	rows, err := s.db.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collaborators: %w", err)
	}
	defer rows.Close()

	var collaborators []*models.Identity
	for rows.Next() {
		identity := &models.Identity{}
		if err := rows.Scan(&identity.ID, &identity.Username, &identity.Certificate, &identity.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan collaborator: %w", err)
		}
		collaborators = append(collaborators, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate collaborators: %w", err)
	}

	return collaborators, nil
}

// ResetCollaborators clears the collaborator set down to the owner.
func (s *Storage) ResetCollaborators(ctx context.Context, fileID, ownerID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM file_collaborators WHERE file_id = ?`, fileID); err != nil {
		return fmt.Errorf("failed to clear collaborators: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO file_collaborators (file_id, identity_id) VALUES (?, ?)`,
		fileID, ownerID,
	); err != nil {
		return fmt.Errorf("failed to re-add owner: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *Storage) scanFile(ctx context.Context, row *sql.Row) (*models.FileRecord, error) {
	file := &models.FileRecord{}

	err := row.Scan(
		&file.ID,
		&file.Name,
		&file.Path,
		&file.Version,
		&file.OwnerID,
		&file.LastModifierID,
		&file.Signature,
		&file.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	collaborators, err := s.collaboratorIDs(ctx, file.ID)
	if err != nil {
		return nil, err
	}
	file.Collaborators = collaborators

	return file, nil
}

func (s *Storage) collaboratorIDs(ctx context.Context, fileID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT identity_id FROM file_collaborators WHERE file_id = ?`, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query collaborator ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan collaborator id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate collaborator ids: %w", err)
	}
	return ids, nil
}
