package handlers

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenConfig carries the signing key and lifetime for session tokens.
// Primary and backup share the same key so a token issued by one replica
// validates on the other.
type TokenConfig struct {
	Key *rsa.PrivateKey
	TTL time.Duration
}

// SessionClaims is the payload of a session token. Subject carries the
// username for debugging; IdentityID is what handlers authorize against.
type SessionClaims struct {
	IdentityID string `json:"identity_id"`
	jwt.RegisteredClaims
}

// GenerateSessionToken issues a signed session token for the identity that
// passed the challenge.
func GenerateSessionToken(cfg TokenConfig, identityID, username string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		IdentityID: identityID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(cfg.Key)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ValidateSessionToken parses and verifies a session token, returning its
// claims. Expired or tampered tokens fail verification.
func ValidateSessionToken(cfg TokenConfig, tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return &cfg.Key.PublicKey, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}
	return claims, nil
}
