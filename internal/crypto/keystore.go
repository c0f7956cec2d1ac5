package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for deriving the keystore sealing key from the user's
// passphrase.
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // KB
	argon2Threads = 4
	argon2KeyLen  = 32

	keystoreSaltSize  = 16
	keystoreNonceSize = 12
)

// SealPrivateKey encrypts a private key under a passphrase for storage on
// disk. Layout: salt (16) || nonce (12) || AES-256-GCM ciphertext of the
// PKCS#8 DER key.
func SealPrivateKey(key *rsa.PrivateKey, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}

	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	salt := make([]byte, keystoreSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	aead, err := newKeystoreAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, keystoreNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, der, nil)

	blob := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, sealed...)
	return blob, nil
}

// OpenPrivateKey reverses SealPrivateKey. A wrong passphrase or a corrupted
// blob fails with ErrCrypto.
func OpenPrivateKey(blob []byte, passphrase string) (*rsa.PrivateKey, error) {
	if len(blob) < keystoreSaltSize+keystoreNonceSize {
		return nil, fmt.Errorf("%w: keystore blob too short", ErrCrypto)
	}

	salt := blob[:keystoreSaltSize]
	nonce := blob[keystoreSaltSize : keystoreSaltSize+keystoreNonceSize]
	sealed := blob[keystoreSaltSize+keystoreNonceSize:]

	aead, err := newKeystoreAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}

	der, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open keystore (wrong passphrase or corrupted file)", ErrCrypto)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("keystore does not hold an RSA key")
	}
	return key, nil
}

func newKeystoreAEAD(passphrase string, salt []byte) (cipher.AEAD, error) {
	sealingKey := argon2.IDKey([]byte(passphrase), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	block, err := aes.NewCipher(sealingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}
