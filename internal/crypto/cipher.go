package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	// KeySize is the size of a file's symmetric key (AES-128)
	KeySize = 16
	// IVSize is the AES block size used for CBC initialization vectors
	IVSize = aes.BlockSize
)

// ErrCrypto marks failures that indicate corrupted or untrusted data: bad
// padding, a signature that does not verify, a wrapped key that does not
// match the recipient. Callers must never ignore it silently.
var ErrCrypto = errors.New("cryptographic verification failed")

// NewFileKey generates a random 16-byte AES key for one file.
func NewFileKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate file key: %w", err)
	}
	return key, nil
}

// Encrypt encrypts plaintext with AES-128-CBC and PKCS#7 padding. The IV is
// supplied by the caller because it is derived deterministically from the
// modifier's username (see DeriveIV), not generated per message.
func Encrypt(plaintext, key, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("iv must be %d bytes, got %d", IVSize, len(iv))
	}

	padded := pad(plaintext)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return ciphertext, nil
}

// Decrypt reverses Encrypt. A ciphertext that is not a whole number of
// blocks, or whose padding does not check out, yields ErrCrypto: the data is
// corrupted or was encrypted under a different key or IV. This is distinct
// from a signature failure and callers must not conflate the two.
func Decrypt(ciphertext, key, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("iv must be %d bytes, got %d", IVSize, len(iv))
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d is not a multiple of the block size", ErrCrypto, len(ciphertext))
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	plaintext, err := unpad(padded)
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

// DeriveIV derives the 16-byte CBC IV from the username of the identity that
// produced the ciphertext: the name is repeated to at least 16 bytes and
// truncated. Decryption must use the IV of the file's last modifier at
// encryption time, so every decrypting component has to look up who last
// modified the version it holds.
//
// This construction is interoperability-frozen and cryptographically weak
// (the IV repeats across every file the same user encrypts). It must not be
// strengthened without a coordinated format change of all stored ciphertexts.
func DeriveIV(username string) ([]byte, error) {
	if username == "" {
		return nil, fmt.Errorf("username cannot be empty")
	}

	holder := username
	for len(holder) < IVSize {
		holder += username
	}
	return []byte(holder[:IVSize]), nil
}

// pad applies PKCS#7 padding up to the AES block size.
func pad(data []byte) []byte {
	n := aes.BlockSize - len(data)%aes.BlockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

// unpad validates and strips PKCS#7 padding.
func unpad(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: invalid padded length %d", ErrCrypto, len(data))
	}

	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, fmt.Errorf("%w: invalid padding", ErrCrypto)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: invalid padding", ErrCrypto)
		}
	}
	return data[:len(data)-n], nil
}
