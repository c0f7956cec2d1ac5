// Package core implements the client-side protocol: all encryption,
// signing, key wrapping and verification happen here, so nothing but
// ciphertext and wrapped keys ever reaches the server.
package core

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	apiclient "github.com/nfaria/cofre/internal/client/api"
	"github.com/nfaria/cofre/internal/client/cache"
	"github.com/nfaria/cofre/internal/client/keys"
	"github.com/nfaria/cofre/internal/crypto"
	"github.com/nfaria/cofre/internal/validation"
	"github.com/nfaria/cofre/pkg/api"
)

// ErrNotLoggedIn is returned by operations that need an open session.
var ErrNotLoggedIn = errors.New("not logged in")

// Core ties together the API client, the local key store and the metadata
// cache, and holds the open session.
type Core struct {
	api   *apiclient.Client
	keys  *keys.Store
	cache *cache.Cache

	username string
	key      *rsa.PrivateKey
	cert     []byte
}

// New creates a Core around its three dependencies.
func New(client *apiclient.Client, keyStore *keys.Store, fileCache *cache.Cache) *Core {
	return &Core{
		api:   client,
		keys:  keyStore,
		cache: fileCache,
	}
}

// Username returns the logged-in username, or empty.
func (c *Core) Username() string {
	return c.username
}

// LoggedIn reports whether a session is open.
func (c *Core) LoggedIn() bool {
	return c.key != nil
}

// Register generates a fresh RSA keypair and self-signed certificate,
// stores the key sealed under the passphrase and registers the certificate
// with the server.
func (c *Core) Register(ctx context.Context, username, passphrase string) error {
	if err := validation.ValidateUsername(username); err != nil {
		return err
	}
	if err := validation.ValidatePassphrase(passphrase); err != nil {
		return err
	}
	if c.keys.Exists(username) {
		return fmt.Errorf("key material for %q already exists locally", username)
	}

	key, certDER, err := crypto.GenerateIdentity(username)
	if err != nil {
		return err
	}
	if err := c.keys.Save(username, key, certDER, passphrase); err != nil {
		return err
	}

	_, err = c.api.Register(ctx, api.RegisterRequest{Username: username, Certificate: certDER})
	if err != nil {
		return err
	}
	return nil
}

// Login opens a session: it unseals the private key, answers the server's
// challenge with a signature over the nonce and stores the returned token.
// It returns the names of files with invites waiting for the user.
func (c *Core) Login(ctx context.Context, username, passphrase string) ([]string, error) {
	key, certDER, err := c.keys.Load(username, passphrase)
	if err != nil {
		return nil, err
	}

	challenge, err := c.api.Challenge(ctx, username)
	if err != nil {
		return nil, err
	}
	signed, err := crypto.Sign([]byte(challenge.Nonce), key)
	if err != nil {
		return nil, err
	}

	resp, err := c.api.Login(ctx, api.TokenRequest{Username: username, SignedNonce: signed})
	if err != nil {
		return nil, err
	}

	c.username = username
	c.key = key
	c.cert = certDER
	return resp.PendingInvites, nil
}

// Push encrypts and signs the plaintext and uploads it as the next version.
// New files get a fresh symmetric key; the encryption IV is derived from the
// uploader's own username, since the uploader becomes the last modifier.
func (c *Core) Push(ctx context.Context, name string, plaintext []byte) (int, error) {
	if !c.LoggedIn() {
		return 0, ErrNotLoggedIn
	}

	owner := c.username
	fileKey, err := c.cache.GetFileKey(name)
	switch {
	case err == nil:
		if entry, entryErr := c.cache.GetEntry(name); entryErr == nil {
			owner = entry.Owner
		}
	case errors.Is(err, cache.ErrNotFound):
		fileKey, err = crypto.NewFileKey()
		if err != nil {
			return 0, err
		}
		if err := c.cache.PutFileKey(name, fileKey); err != nil {
			return 0, err
		}
	default:
		return 0, err
	}

	iv, err := crypto.DeriveIV(c.username)
	if err != nil {
		return 0, err
	}
	ciphertext, err := crypto.Encrypt(plaintext, fileKey, iv)
	if err != nil {
		return 0, err
	}
	signature, err := crypto.Sign(ciphertext, c.key)
	if err != nil {
		return 0, err
	}

	resp, err := c.api.Upload(ctx, api.UploadRequest{
		Name:       name,
		Ciphertext: ciphertext,
		Signature:  signature,
		Owner:      owner,
	})
	if err != nil {
		return 0, err
	}

	// Keep the uploaded ciphertext as the local copy; Unlock decrypts it
	// without the server. The copy and the entry's last modifier must agree,
	// so both are written together.
	if err := c.cache.PutCiphertext(name, ciphertext); err != nil {
		return 0, err
	}
	err = c.cache.PutEntry(cache.Entry{
		Name:         name,
		Owner:        owner,
		Version:      resp.Version,
		LastModifier: c.username,
		UpdatedAt:    time.Now(),
	})
	if err != nil {
		return 0, err
	}
	return resp.Version, nil
}

// Pull downloads, verifies and decrypts a file. The signature is checked
// against the last modifier's certificate before anything is decrypted, and
// the IV is re-derived from the last modifier's username. The local copy is
// replaced only after the download verifies, so a tampered download leaves
// the last-known-good ciphertext available to Unlock.
func (c *Core) Pull(ctx context.Context, name string) ([]byte, error) {
	if !c.LoggedIn() {
		return nil, ErrNotLoggedIn
	}

	resp, err := c.api.Download(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := crypto.Verify(resp.Ciphertext, resp.Certificate, resp.Signature); err != nil {
		return nil, fmt.Errorf("stored file failed integrity check: %w", err)
	}

	fileKey, err := c.cache.GetFileKey(name)
	if err != nil {
		return nil, fmt.Errorf("no key for %q; accept its invite first: %w", name, err)
	}

	iv, err := crypto.DeriveIV(resp.LastModifier)
	if err != nil {
		return nil, err
	}
	plaintext, err := crypto.Decrypt(resp.Ciphertext, fileKey, iv)
	if err != nil {
		return nil, err
	}

	if err := c.cache.PutCiphertext(name, resp.Ciphertext); err != nil {
		return nil, err
	}
	err = c.cache.PutEntry(cache.Entry{
		Name:         name,
		Owner:        resp.Owner,
		Version:      resp.Version,
		LastModifier: resp.LastModifier,
		UpdatedAt:    time.Now(),
	})
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

// Unlock decrypts the locally kept copy of a file without contacting the
// server. The copy is the last ciphertext that passed verification, so this
// recovers the contents when the server is unreachable or a later download
// failed its integrity check.
func (c *Core) Unlock(name string) ([]byte, error) {
	entry, err := c.cache.GetEntry(name)
	if err != nil {
		return nil, fmt.Errorf("no local copy of %q: %w", name, err)
	}
	ciphertext, err := c.cache.GetCiphertext(name)
	if err != nil {
		return nil, fmt.Errorf("no local copy of %q: %w", name, err)
	}
	fileKey, err := c.cache.GetFileKey(name)
	if err != nil {
		return nil, fmt.Errorf("no key for %q: %w", name, err)
	}

	iv, err := crypto.DeriveIV(entry.LastModifier)
	if err != nil {
		return nil, err
	}
	return crypto.Decrypt(ciphertext, fileKey, iv)
}

// List returns the locally known files. It is a cache read; versions may
// lag behind the server until the next Pull.
func (c *Core) List() ([]cache.Entry, error) {
	return c.cache.ListEntries()
}

// Invite wraps the file's symmetric key under the invitee's certificate and
// registers the invite on the server.
func (c *Core) Invite(ctx context.Context, username, fileName string) error {
	if !c.LoggedIn() {
		return ErrNotLoggedIn
	}

	fileKey, err := c.cache.GetFileKey(fileName)
	if err != nil {
		return fmt.Errorf("no key for %q: %w", fileName, err)
	}

	certResp, err := c.api.Certificate(ctx, username)
	if err != nil {
		return err
	}
	wrapped, err := crypto.WrapKey(fileKey, certResp.Certificate)
	if err != nil {
		return err
	}

	return c.api.Invite(ctx, api.InviteRequest{
		Username:   username,
		FileName:   fileName,
		WrappedKey: wrapped,
	})
}

// Accept consumes a pending invite, unwraps the file key with the private
// key and caches it. The file's contents arrive with the next Pull.
func (c *Core) Accept(ctx context.Context, fileName string) error {
	if !c.LoggedIn() {
		return ErrNotLoggedIn
	}

	resp, err := c.api.Accept(ctx, fileName)
	if err != nil {
		return err
	}

	fileKey, err := crypto.UnwrapKey(resp.WrappedKey, c.key)
	if err != nil {
		return fmt.Errorf("failed to unwrap file key: %w", err)
	}
	if err := c.cache.PutFileKey(fileName, fileKey); err != nil {
		return err
	}
	// A re-invite after a re-key delivers a new key; any local copy was
	// encrypted under the old one and can no longer be unlocked.
	return c.cache.DeleteCiphertext(fileName)
}

// Remove revokes a collaborator and re-keys the file: the current contents
// are re-encrypted under a fresh symmetric key, uploaded as a new version,
// and every collaborator still entitled gets an invite wrapping the new key.
// The removed user keeps the old key but can never decrypt a version made
// after the removal.
func (c *Core) Remove(ctx context.Context, username, fileName string) ([]string, error) {
	if !c.LoggedIn() {
		return nil, ErrNotLoggedIn
	}

	// Fetch the current plaintext while the old key is still cached.
	plaintext, err := c.Pull(ctx, fileName)
	if err != nil {
		return nil, fmt.Errorf("fetch current contents before re-key: %w", err)
	}

	resp, err := c.api.Remove(ctx, api.RemoveRequest{Username: username, FileName: fileName})
	if err != nil {
		return nil, err
	}

	// Rotate the key and push the re-encrypted contents.
	newKey, err := crypto.NewFileKey()
	if err != nil {
		return nil, err
	}
	if err := c.cache.PutFileKey(fileName, newKey); err != nil {
		return nil, err
	}
	if err := c.cache.DeleteCiphertext(fileName); err != nil {
		return nil, err
	}
	if _, err := c.Push(ctx, fileName, plaintext); err != nil {
		return nil, fmt.Errorf("re-encrypt after removal: %w", err)
	}

	// Re-invite everyone still entitled under the new key.
	var reinvited []string
	for _, collaborator := range resp.Collaborators {
		wrapped, err := crypto.WrapKey(newKey, collaborator.Certificate)
		if err != nil {
			return reinvited, err
		}
		err = c.api.Invite(ctx, api.InviteRequest{
			Username:   collaborator.Username,
			FileName:   fileName,
			WrappedKey: wrapped,
		})
		if err != nil {
			return reinvited, err
		}
		reinvited = append(reinvited, collaborator.Username)
	}
	return reinvited, nil
}
