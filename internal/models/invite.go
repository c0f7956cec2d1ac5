package models

import "time"

// Invite is a pending (or consumed) offer of access to a file. WrappedKey is
// the file's symmetric key encrypted under the invitee's certificate. An
// invite is consumed exactly once: Accepted flips to true and stays true.
type Invite struct {
	ID         string    `json:"id"`
	IdentityID string    `json:"identity_id"` // invitee
	FileID     string    `json:"file_id"`
	WrappedKey []byte    `json:"wrapped_key"`
	Accepted   bool      `json:"accepted"`
	CreatedAt  time.Time `json:"created_at"`
}
