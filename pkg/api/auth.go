package api

// RegisterRequest creates a new identity from a username and its X.509
// certificate (DER encoded).
type RegisterRequest struct {
	Username    string `json:"username"`
	Certificate []byte `json:"certificate"`
}

// RegisterResponse acknowledges a successful registration.
type RegisterResponse struct {
	Message string `json:"message"`
}

// ChallengeRequest asks the server for a login challenge.
type ChallengeRequest struct {
	Username string `json:"username"`
}

// ChallengeResponse carries the one-time nonce the client must sign with its
// private key to prove key possession.
type ChallengeResponse struct {
	Nonce string `json:"nonce"`
}

// TokenRequest exchanges a signed challenge nonce for a session token.
type TokenRequest struct {
	Username    string `json:"username"`
	SignedNonce []byte `json:"signed_nonce"`
}

// TokenResponse carries the session token plus the caller's outstanding,
// unaccepted invite file names as a login-time convenience.
type TokenResponse struct {
	Token          string   `json:"token"`
	PendingInvites []string `json:"pending_invites,omitempty"`
}

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
