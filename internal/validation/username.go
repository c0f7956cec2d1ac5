package validation

import (
	"fmt"
	"regexp"
)

// UsernamePattern defines the accepted username format: latin letters,
// digits and underscores, 3-32 characters. The username doubles as a path
// segment on the server and as IV derivation input on the client, so the
// character set is kept deliberately narrow.
var UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

const (
	// MinUsernameLen is the minimum username length
	MinUsernameLen = 3
	// MaxUsernameLen is the maximum username length
	MaxUsernameLen = 32
)

// ValidateUsername checks that a username matches the accepted format.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if len(username) < MinUsernameLen {
		return fmt.Errorf("username must be at least %d characters long", MinUsernameLen)
	}

	if len(username) > MaxUsernameLen {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLen)
	}

	if !UsernamePattern.MatchString(username) {
		return fmt.Errorf("username can only contain letters (a-z, A-Z), numbers (0-9), and underscores (_)")
	}

	return nil
}

// ValidatePassphrase checks minimal requirements for the keystore passphrase
// protecting the client's private key file.
func ValidatePassphrase(passphrase string) error {
	const minPassphraseLen = 8

	if passphrase == "" {
		return fmt.Errorf("passphrase cannot be empty")
	}

	if len(passphrase) < minPassphraseLen {
		return fmt.Errorf("passphrase must be at least %d characters long", minPassphraseLen)
	}

	return nil
}
