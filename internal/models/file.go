package models

import "time"

// FileRecord describes one stored encrypted file. Version starts at 1 and
// increments by exactly one per accepted overwrite. Signature always covers
// the ciphertext currently stored at Path, produced by LastModifierID's key.
// Collaborators is the full set of identity IDs entitled to download the
// file and always contains OwnerID.
type FileRecord struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Path           string    `json:"path"`
	Version        int       `json:"version"`
	OwnerID        string    `json:"owner_id"`
	LastModifierID string    `json:"last_modifier_id"`
	Signature      []byte    `json:"signature"`
	Collaborators  []string  `json:"collaborators"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasCollaborator reports whether the identity is in the file's collaborator
// set.
func (f *FileRecord) HasCollaborator(identityID string) bool {
	for _, id := range f.Collaborators {
		if id == identityID {
			return true
		}
	}
	return false
}
