// Package engine implements the cryptographic primitives behind a
// securecookie token: salt generation, key derivation, the AES-CBC
// cipher envelope, HMAC authentication, and the base64/field-framing
// wire codec, plus the KeyRing, protocol Table and secret generator
// that support them. The top-level securecookie package wires these
// together into the Codec orchestrator; engine never checks a token's
// expiration and never runs the multi-secret verification loop itself.
package engine

import "errors"

// ErrInvalidSecret is returned when a secret fails the length invariant.
var ErrInvalidSecret = errors.New("engine: secret must be at least 1 byte")

// DerivedKeySize is the length in bytes of a key produced by Derive,
// and the AES key size used by Seal/Open (AES-256).
const DerivedKeySize = 32
