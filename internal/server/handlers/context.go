package handlers

import "context"

type contextKey string

const (
	// IdentityIDKey holds the authenticated caller's identity id in the
	// request context. Its value is UnauthenticatedID when the request
	// carried no valid token.
	IdentityIDKey contextKey = "identityID"

	// RawTokenKey holds the caller's raw bearer token so the replication
	// forwarder can replay the request under the caller's own credential.
	RawTokenKey contextKey = "rawToken"
)

// UnauthenticatedID is the sentinel principal for requests without a valid
// session token. Every protected handler must reject it explicitly.
const UnauthenticatedID = ""

// IdentityID extracts the caller's identity id from the request context.
func IdentityID(ctx context.Context) string {
	id, _ := ctx.Value(IdentityIDKey).(string)
	return id
}

// RawToken extracts the caller's raw bearer token from the request context.
func RawToken(ctx context.Context) string {
	token, _ := ctx.Value(RawTokenKey).(string)
	return token
}
