// Package keys persists the user's RSA keypair on disk. The private key is
// sealed under a passphrase; the certificate is stored in the clear next to
// it.
package keys

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nfaria/cofre/internal/crypto"
)

// ErrNoKey is returned when no keypair exists for the username.
var ErrNoKey = errors.New("no key material for user")

// Store reads and writes key material under a directory, one pair of files
// per username: <username>.key (sealed private key) and <username>.crt
// (DER certificate).
type Store struct {
	dir string
}

// NewStore creates a key store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save seals the private key under the passphrase and writes both files.
func (s *Store) Save(username string, key *rsa.PrivateKey, certDER []byte, passphrase string) error {
	sealed, err := crypto.SealPrivateKey(key, passphrase)
	if err != nil {
		return err
	}

	if err := os.WriteFile(s.keyPath(username), sealed, 0o600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	if err := os.WriteFile(s.certPath(username), certDER, 0o644); err != nil {
		return fmt.Errorf("failed to write certificate file: %w", err)
	}
	return nil
}

// Load opens the sealed private key with the passphrase and returns it with
// the certificate.
func (s *Store) Load(username, passphrase string) (*rsa.PrivateKey, []byte, error) {
	sealed, err := os.ReadFile(s.keyPath(username))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNoKey, username)
		}
		return nil, nil, fmt.Errorf("failed to read key file: %w", err)
	}

	key, err := crypto.OpenPrivateKey(sealed, passphrase)
	if err != nil {
		return nil, nil, err
	}

	certDER, err := os.ReadFile(s.certPath(username))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read certificate file: %w", err)
	}
	return key, certDER, nil
}

// Exists reports whether key material for the username is present.
func (s *Store) Exists(username string) bool {
	_, err := os.Stat(s.keyPath(username))
	return err == nil
}

func (s *Store) keyPath(username string) string {
	return filepath.Join(s.dir, username+".key")
}

func (s *Store) certPath(username string) string {
	return filepath.Join(s.dir, username+".crt")
}
