package models

import "time"

// Identity is a registered user: a unique username bound to the X.509
// certificate presented at registration. ID is the stable key used by every
// other entity; usernames are display/lookup handles and could in principle
// be renamed.
type Identity struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Certificate []byte    `json:"certificate"` // DER-encoded X.509
	CreatedAt   time.Time `json:"created_at"`
}
