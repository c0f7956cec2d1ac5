package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"time"
)

const (
	// identityKeyBits is the RSA key size for long-term identity keypairs
	identityKeyBits = 2048
	// certificateValidity is how long a self-signed identity certificate lives
	certificateValidity = 2 * 365 * 24 * time.Hour
)

// GenerateIdentity creates a long-term RSA keypair and a self-signed X.509
// certificate binding it to the username. The certificate (DER) is what gets
// registered with the server; the private key never leaves the client.
func GenerateIdentity(username string) (*rsa.PrivateKey, []byte, error) {
	key, err := rsa.GenerateKey(rand.Reader, identityKeyBits)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate keypair: %w", err)
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixMilli()),
		Subject:      pkix.Name{CommonName: username},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(certificateValidity),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	return key, certDER, nil
}

// PublicKeyFromCertificate extracts the RSA public key from a DER-encoded
// certificate. A certificate that does not parse, or that carries a non-RSA
// key, is untrusted data.
func PublicKeyFromCertificate(certDER []byte) (*rsa.PublicKey, error) {
	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse certificate: %v", ErrCrypto, err)
	}

	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: certificate does not carry an RSA key", ErrCrypto)
	}
	return pub, nil
}

// Sign produces an RSA PKCS#1 v1.5 signature over the SHA-256 digest of
// data. For files, data is always the ciphertext, never the plaintext, so
// anyone holding the signer's certificate can verify without the file key.
func Sign(data []byte, key *rsa.PrivateKey) ([]byte, error) {
	digest := sha256.Sum256(data)
	signature, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	return signature, nil
}

// Verify checks a signature produced by Sign against the signer's
// certificate. A failure yields ErrCrypto and means the data or signature
// was tampered with, or the certificate belongs to someone else.
func Verify(data, certDER, signature []byte) error {
	pub, err := PublicKeyFromCertificate(certDER)
	if err != nil {
		return err
	}

	digest := sha256.Sum256(data)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], signature); err != nil {
		return fmt.Errorf("%w: signature does not verify: %v", ErrCrypto, err)
	}
	return nil
}

// WrapKey encrypts a file's symmetric key under the recipient's certificate
// so only the holder of the matching private key can recover it. This is the
// payload of an invite.
func WrapKey(fileKey, certDER []byte) ([]byte, error) {
	if len(fileKey) != KeySize {
		return nil, fmt.Errorf("file key must be %d bytes, got %d", KeySize, len(fileKey))
	}

	pub, err := PublicKeyFromCertificate(certDER)
	if err != nil {
		return nil, err
	}

	wrapped, err := rsa.EncryptPKCS1v15(rand.Reader, pub, fileKey)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap key: %w", err)
	}
	return wrapped, nil
}

// UnwrapKey recovers a wrapped file key with the recipient's private key.
// A blob wrapped for a different recipient fails with ErrCrypto.
func UnwrapKey(wrapped []byte, key *rsa.PrivateKey) ([]byte, error) {
	fileKey, err := rsa.DecryptPKCS1v15(rand.Reader, key, wrapped)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to unwrap key: %v", ErrCrypto, err)
	}
	if len(fileKey) != KeySize {
		return nil, fmt.Errorf("%w: unwrapped key has unexpected size %d", ErrCrypto, len(fileKey))
	}
	return fileKey, nil
}
