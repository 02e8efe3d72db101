package engine

import (
	"errors"
	"sync"

	"github.com/oarkflow/shamir"
)

// ErrEmptyKeyRing is returned when an operation requires at least one
// secret but the ring holds none.
var ErrEmptyKeyRing = errors.New("engine: key ring has no secrets")

// KeyRing holds an ordered set of raw secrets: the primary (used for
// Encode) followed by old secrets kept around so previously issued
// tokens still Decode during a rotation window. Unlike a cache of
// derived keys, KeyRing never stores per-salt derived material — Derive
// is cheap (one HMAC call) and caching it would multiply the ring's
// size by however many distinct salts have been seen.
type KeyRing struct {
	mu      sync.RWMutex
	secrets [][]byte
}

// NewKeyRing builds a ring whose first secret is primary and the rest
// are old secrets tried, in order, after the primary fails to verify.
// Every secret must satisfy ValidateSecret.
func NewKeyRing(primary []byte, old ...[]byte) (*KeyRing, error) {
	if err := ValidateSecret(primary); err != nil {
		return nil, err
	}
	for _, s := range old {
		if err := ValidateSecret(s); err != nil {
			return nil, err
		}
	}
	secrets := make([][]byte, 0, 1+len(old))
	secrets = append(secrets, cloneSecret(primary))
	for _, s := range old {
		secrets = append(secrets, cloneSecret(s))
	}
	return &KeyRing{secrets: secrets}, nil
}

// Primary returns the secret Encode uses.
func (r *KeyRing) Primary() []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.secrets) == 0 {
		return nil
	}
	return r.secrets[0]
}

// All returns the ring's secrets in try order: primary first, then old
// secrets oldest-rotated-out last. The returned slices are the ring's
// own backing arrays and must not be mutated by the caller.
func (r *KeyRing) All() [][]byte {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([][]byte, len(r.secrets))
	copy(out, r.secrets)
	return out
}

// Rotate installs next as the new primary secret, demoting the current
// primary to the front of the old-secret list. cacheLimit bounds the
// ring's total size; the oldest secrets are dropped once exceeded.
func (r *KeyRing) Rotate(next []byte, cacheLimit int) error {
	if err := ValidateSecret(next); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.secrets = append([][]byte{cloneSecret(next)}, r.secrets...)
	if cacheLimit > 0 && len(r.secrets) > cacheLimit {
		r.secrets = r.secrets[:cacheLimit]
	}
	return nil
}

// Split divides the current primary secret into n Shamir shares with
// recovery threshold k, for out-of-band custody (e.g. distributing a
// root secret across operators). It does not alter the ring.
func (r *KeyRing) Split(n, k int) ([][]byte, error) {
	primary := r.Primary()
	if primary == nil {
		return nil, ErrEmptyKeyRing
	}
	return shamir.Split(primary, n, k)
}

// Combine reconstructs a secret from Shamir shares produced by Split
// and installs it as the new primary via Rotate.
func (r *KeyRing) Combine(shares [][]byte, cacheLimit int) error {
	secret, err := shamir.Combine(shares)
	if err != nil {
		return err
	}
	return r.Rotate(secret, cacheLimit)
}

func cloneSecret(secret []byte) []byte {
	out := make([]byte, len(secret))
	copy(out, secret)
	return out
}
