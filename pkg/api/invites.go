package api

// InviteRequest offers another identity access to a file. WrappedKey is the
// file's symmetric key encrypted under the invitee's certificate; the server
// stores it opaquely and never sees the plaintext key.
type InviteRequest struct {
	Username   string `json:"username"`
	FileName   string `json:"file_name"`
	WrappedKey []byte `json:"wrapped_key"`
}

// AcceptRequest consumes a pending invite for the calling identity.
type AcceptRequest struct {
	FileName string `json:"file_name"`
}

// AcceptResponse delivers the wrapped key stored with the invite.
type AcceptResponse struct {
	WrappedKey []byte `json:"wrapped_key"`
}
