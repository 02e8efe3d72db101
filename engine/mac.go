package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
)

// AuthTagSize is the byte length of an HMAC-SHA-256 output.
const AuthTagSize = sha256.Size

// Sign computes HMAC-SHA-256(key, message) — the MAC over the wire's
// authenticated-data string.
func Sign(key, message []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}

// Verify recomputes the MAC over message under key and compares it to
// tag in constant time, so comparison timing does not depend on which
// byte of tag first differs. On a length mismatch it still runs one
// constant-time compare of the expected MAC against itself before
// reporting failure.
func Verify(key, message, tag []byte) bool {
	expected := Sign(key, message)
	if len(tag) != len(expected) {
		// Still perform a constant-time compare of equal-length
		// buffers so the wrong-length case takes a shape similar to
		// the right-length case, rather than branching away early.
		subtle.ConstantTimeCompare(expected, expected)
		return false
	}
	return subtle.ConstantTimeCompare(expected, tag) == 1
}
