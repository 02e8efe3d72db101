package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"strconv"
)

// Derive computes the per-token symmetric key from a salt and secret:
//
//	key = HMAC-SHA-256(secret, decimal_ascii(salt))
//
// The formula is pinned by the wire format — it must reproduce the
// reference construction byte for byte, so two implementations sharing
// a secret interoperate. Never cache the result across tokens: salts
// are unique per token by design, so there is nothing to cache.
func Derive(salt uint32, secret []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(saltASCII(salt))
	return mac.Sum(nil)
}

// saltASCII renders salt as its decimal ASCII representation, the
// exact bytes that appear in the SALT wire field.
func saltASCII(salt uint32) []byte {
	return []byte(strconv.FormatUint(uint64(salt), 10))
}

// ValidateSecret enforces the length ≥ 1 invariant on secret material.
func ValidateSecret(secret []byte) error {
	if len(secret) < 1 {
		return ErrInvalidSecret
	}
	return nil
}
