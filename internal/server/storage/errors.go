package storage

import "errors"

// Domain errors raised by the storage and protocol layers. They are
// translated into transport status codes exactly once, at the handler
// boundary.
var (
	// ErrIdentityNotFound indicates the referenced identity does not exist
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrIdentityExists indicates the username is already registered
	ErrIdentityExists = errors.New("identity already exists")

	// ErrFileNotFound indicates no file with that name is reachable for the caller
	ErrFileNotFound = errors.New("file not found")

	// ErrNotOwner indicates the caller does not own the file
	ErrNotOwner = errors.New("caller does not own the file")

	// ErrNotCollaborator indicates the caller is not in the file's collaborator set
	ErrNotCollaborator = errors.New("caller is not a collaborator")

	// ErrInviteNotFound indicates no matching unaccepted invite exists
	ErrInviteNotFound = errors.New("invite not found")

	// ErrDuplicateInvite indicates an unaccepted invite for that identity and file already exists
	ErrDuplicateInvite = errors.New("invite already pending")

	// ErrAlreadyCollaborator indicates the invitee already has access to the file
	ErrAlreadyCollaborator = errors.New("identity is already a collaborator")

	// ErrChallengeNotFound indicates the login challenge is absent or expired
	ErrChallengeNotFound = errors.New("challenge not found")

	// ErrChallengeMismatch indicates the signed nonce does not match the stored challenge
	ErrChallengeMismatch = errors.New("challenge mismatch")
)
