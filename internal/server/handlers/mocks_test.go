package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/nfaria/cofre/internal/models"
	"github.com/nfaria/cofre/internal/server/storage"
)

// memStore is an in-memory implementation of the storage interfaces for
// handler tests, mirroring the sentinel-error contract of the sqlite layer.
type memStore struct {
	mu         sync.Mutex
	identities map[string]*models.Identity
	files      map[string]*models.FileRecord
	invites    map[string]*models.Invite
}

func newMemStore() *memStore {
	return &memStore{
		identities: make(map[string]*models.Identity),
		files:      make(map[string]*models.FileRecord),
		invites:    make(map[string]*models.Invite),
	}
}

func (m *memStore) CreateIdentity(_ context.Context, identity *models.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.identities {
		if existing.Username == identity.Username {
			return storage.ErrIdentityExists
		}
	}
	cp := *identity
	m.identities[identity.ID] = &cp
	return nil
}

func (m *memStore) GetIdentityByUsername(_ context.Context, username string) (*models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, identity := range m.identities {
		if identity.Username == username {
			cp := *identity
			return &cp, nil
		}
	}
	return nil, storage.ErrIdentityNotFound
}

func (m *memStore) GetIdentityByID(_ context.Context, id string) (*models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.identities[id]
	if !ok {
		return nil, storage.ErrIdentityNotFound
	}
	cp := *identity
	return &cp, nil
}

func (m *memStore) CreateFile(_ context.Context, file *models.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *file
	cp.Collaborators = append([]string(nil), file.Collaborators...)
	m.files[file.ID] = &cp
	return nil
}

func (m *memStore) GetFileByPath(_ context.Context, path string) (*models.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, file := range m.files {
		if file.Path == path {
			return copyFile(file), nil
		}
	}
	return nil, storage.ErrFileNotFound
}

func (m *memStore) GetFileForIdentity(_ context.Context, name, identityID string) (*models.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, file := range m.files {
		if file.Name == name && file.HasCollaborator(identityID) {
			return copyFile(file), nil
		}
	}
	return nil, storage.ErrFileNotFound
}

func (m *memStore) UpdateFileVersion(_ context.Context, fileID string, signature []byte, modifierID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	file, ok := m.files[fileID]
	if !ok {
		return 0, storage.ErrFileNotFound
	}
	file.Version++
	file.Signature = append([]byte(nil), signature...)
	file.LastModifierID = modifierID
	file.UpdatedAt = time.Now()
	return file.Version, nil
}

func (m *memStore) AddCollaborator(_ context.Context, fileID, identityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	file, ok := m.files[fileID]
	if !ok {
		return storage.ErrFileNotFound
	}
	if !file.HasCollaborator(identityID) {
		file.Collaborators = append(file.Collaborators, identityID)
	}
	return nil
}

func (m *memStore) ListCollaborators(_ context.Context, fileID string) ([]*models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	file, ok := m.files[fileID]
	if !ok {
		return nil, storage.ErrFileNotFound
	}
	var out []*models.Identity
	for _, id := range file.Collaborators {
		if identity, ok := m.identities[id]; ok {
			cp := *identity
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) ResetCollaborators(_ context.Context, fileID, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	file, ok := m.files[fileID]
	if !ok {
		return storage.ErrFileNotFound
	}
	file.Collaborators = []string{ownerID}
	return nil
}

func (m *memStore) CreateInvite(_ context.Context, invite *models.Invite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.invites {
		if !existing.Accepted && existing.IdentityID == invite.IdentityID && existing.FileID == invite.FileID {
			return storage.ErrDuplicateInvite
		}
	}
	cp := *invite
	m.invites[invite.ID] = &cp
	return nil
}

func (m *memStore) GetPendingInviteByFileName(_ context.Context, identityID, fileName string) (*models.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, invite := range m.invites {
		if invite.Accepted || invite.IdentityID != identityID {
			continue
		}
		if file, ok := m.files[invite.FileID]; ok && file.Name == fileName {
			cp := *invite
			return &cp, nil
		}
	}
	return nil, storage.ErrInviteNotFound
}

func (m *memStore) HasPendingInvite(_ context.Context, identityID, fileID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, invite := range m.invites {
		if !invite.Accepted && invite.IdentityID == identityID && invite.FileID == fileID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListPendingInviteFileNames(_ context.Context, identityID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for _, invite := range m.invites {
		if invite.Accepted || invite.IdentityID != identityID {
			continue
		}
		if file, ok := m.files[invite.FileID]; ok {
			names = append(names, file.Name)
		}
	}
	return names, nil
}

func (m *memStore) MarkAccepted(_ context.Context, inviteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	invite, ok := m.invites[inviteID]
	if !ok {
		return storage.ErrInviteNotFound
	}
	invite.Accepted = true
	return nil
}

func copyFile(f *models.FileRecord) *models.FileRecord {
	cp := *f
	cp.Collaborators = append([]string(nil), f.Collaborators...)
	cp.Signature = append([]byte(nil), f.Signature...)
	return &cp
}
