// Package auth holds the server side of the challenge-response login
// protocol: an in-memory, TTL-bounded map of outstanding challenges.
package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/nfaria/cofre/internal/server/storage"
)

// DefaultChallengeTTL is how long an issued challenge stays answerable.
const DefaultChallengeTTL = time.Minute

type challenge struct {
	nonce     string
	expiresAt time.Time
}

// Challenges stores at most one pending login challenge per identity.
// Issuing a new challenge overwrites the previous one, which closes the
// replay window where an attacker answers a stale challenge.
type Challenges struct {
	mu      sync.Mutex
	pending map[string]challenge
	ttl     time.Duration
	now     func() time.Time
}

// NewChallenges creates a challenge store with the given TTL.
func NewChallenges(ttl time.Duration) *Challenges {
	return &Challenges{
		pending: make(map[string]challenge),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Issue generates a random printable nonce for the identity, replacing any
// challenge already pending for it.
func (c *Challenges) Issue(identityID string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(1)<<62))
	if err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce := n.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.expireLocked()
	c.pending[identityID] = challenge{
		nonce:     nonce,
		expiresAt: c.now().Add(c.ttl),
	}

	return nonce, nil
}

// Get returns the identity's pending nonce without consuming it, so a
// mismatched answer leaves the challenge in place. Absent or expired
// challenges fail with ErrChallengeNotFound.
func (c *Challenges) Get(identityID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.expireLocked()
	ch, ok := c.pending[identityID]
	if !ok {
		return "", storage.ErrChallengeNotFound
	}

	return ch.nonce, nil
}

// Invalidate removes the identity's pending challenge. Called after a
// successful verification: each challenge is consumed exactly once.
func (c *Challenges) Invalidate(identityID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.pending, identityID)
}

func (c *Challenges) expireLocked() {
	now := c.now()
	for id, ch := range c.pending {
		if now.After(ch.expiresAt) {
			delete(c.pending, id)
		}
	}
}
