// Package securecookie implements an authenticated, encrypted,
// optionally expiring token codec: arbitrary Go values in, a compact
// SALT~EXP~CT~MAC string out, and back. It follows the design of
// Python's itsdangerous/django signed cookies: a fresh per-token salt
// derives a one-time key via HMAC, the payload is AES-CBC encrypted
// under that key, and an HMAC-SHA-256 MAC over the expiration and
// ciphertext fields authenticates the whole envelope before anything
// is decrypted.
package securecookie

import (
	"errors"
	"log/slog"
	"time"

	"github.com/oarkflow/securecookie/engine"
)

// ErrNoValue is the sentinel Decode's bool return communicates as
// false: any pre-MAC failure (malformed wire framing, bad base64, MAC
// mismatch, expired token) is indistinguishable from "no such value"
// to the caller, by design — these inputs are attacker-controlled and
// must never leak why they failed.
var ErrNoValue = errors.New("securecookie: no value")

// Codec encodes and decodes tokens under a KeyRing and protocol Table.
// A Codec is safe for concurrent use.
type Codec struct {
	ring            *engine.KeyRing
	table           engine.Table
	defaultDuration time.Duration
	now             func() time.Time
	log             *slog.Logger
	salt            *engine.SaltSource
}

// New builds a Codec whose primary secret is secret. Use Options to
// add old secrets for rotation, a default expiration duration, an
// enabled protocol Table, or an injected clock.
func New(secret []byte, opts ...Option) (*Codec, error) {
	ring, err := engine.NewKeyRing(secret)
	if err != nil {
		return nil, err
	}
	c := &Codec{
		ring:  ring,
		table: engine.DefaultTable(),
		now:   time.Now,
		log:   slog.Default(),
		salt:  engine.NewSaltSource(nil),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Encode serializes data, encrypts and authenticates it under the
// ring's primary secret, and returns the wire token. An optional
// expires argument is an absolute Unix timestamp; omitting it falls
// back to the Codec's default duration (if any configured via
// WithDefaultDuration), and omitting both means the token never
// expires.
func (c *Codec) Encode(data any, expires ...int64) (string, error) {
	rule := c.table.Encoder()
	if rule.FixtureOnly {
		return "", engine.ErrProtocolFixturesUnavailable
	}

	salt, err := c.nextSalt()
	if err != nil {
		return "", err
	}

	expVal, hasExp := c.resolveExpiration(expires...)
	if hasExp && expVal < c.now().Unix() {
		// A token whose caller-supplied expiration is already in the
		// past is encoded anyway, but its payload is discarded first:
		// even a clock-skewed acceptance of this token on some other
		// machine reveals nothing, since there is nothing left to
		// reveal.
		data = map[string]any{}
	}

	plaintext, err := engine.Freeze(data)
	if err != nil {
		return "", err
	}

	key := engine.Derive(salt, c.ring.Primary())
	ciphertext, err := engine.Seal(key, plaintext)
	if err != nil {
		return "", err
	}

	expField := engine.FormatExpiration(expVal, hasExp)
	saltField := engine.FormatSalt(salt)
	ctField := engine.EncodeField(ciphertext, rule.Alphabet)

	mac := engine.Sign(key, rule.MACMessage(saltField, expField, ctField))
	macField := engine.EncodeField(mac, rule.Alphabet)

	return engine.Join(saltField, expField, ctField, macField), nil
}

// Decode verifies and decrypts token, returning the reconstructed
// value. ok is false for any failure: malformed framing, bad base64,
// MAC mismatch under every secret in the ring and every enabled
// protocol version, an expired token, or a ciphertext that fails to
// decrypt or deserialize after its MAC verified — callers that need to
// tell that last, post-MAC case apart from the others use DecodeStrict.
func (c *Codec) Decode(token string) (any, bool) {
	value, err := c.DecodeStrict(token)
	if err != nil {
		return nil, false
	}
	return value, true
}

// DecodeStrict behaves like Decode but returns an error instead of
// collapsing every failure to a bool. Silent rejections (bad framing,
// bad base64, MAC mismatch, expiration) all return ErrNoValue itself,
// with no detail; post-MAC failures (ciphertext that fails to
// decrypt or deserialize once the MAC has already authenticated it)
// return the underlying engine error unwrapped, since those indicate
// corruption rather than tampering.
func (c *Codec) DecodeStrict(token string) (any, error) {
	saltField, expField, ctField, macField, ok := engine.Split(token)
	if !ok {
		return nil, ErrNoValue
	}
	salt, ok := engine.ParseSalt(saltField)
	if !ok {
		return nil, ErrNoValue
	}
	expVal, hasExp, ok := engine.ParseExpiration(expField)
	if !ok {
		return nil, ErrNoValue
	}

	for _, rule := range c.table {
		ciphertext, err := engine.DecodeField(ctField, rule.Alphabet)
		if err != nil {
			continue
		}
		mac, err := engine.DecodeField(macField, rule.Alphabet)
		if err != nil {
			continue
		}
		message := rule.MACMessage(saltField, expField, ctField)

		for _, secret := range c.ring.All() {
			key := engine.Derive(salt, secret)
			if !engine.Verify(key, message, mac) {
				continue
			}

			// MAC verified: an expired token is still a silent
			// rejection, but decryption and deserialization failures
			// from here are fatal.
			if hasExp && c.now().Unix() > expVal {
				return nil, ErrNoValue
			}

			plaintext, err := engine.Open(key, ciphertext)
			if err != nil {
				return nil, err
			}
			value, err := engine.Thaw(plaintext)
			if err != nil {
				return nil, err
			}
			return value, nil
		}
	}

	c.log.Debug("securecookie: no secret in ring verified token MAC")
	return nil, ErrNoValue
}

// Rotate installs next as the ring's new primary secret, demoting the
// current primary to the front of the old-secret list. cacheLimit
// bounds how many secrets the ring retains; 0 means unbounded.
func (c *Codec) Rotate(next []byte, cacheLimit int) error {
	return c.ring.Rotate(next, cacheLimit)
}

func (c *Codec) nextSalt() (uint32, error) {
	return c.salt.Next()
}

func (c *Codec) resolveExpiration(expires ...int64) (int64, bool) {
	if len(expires) > 0 {
		return expires[0], true
	}
	if c.defaultDuration > 0 {
		return c.now().Add(c.defaultDuration).Unix(), true
	}
	return 0, false
}
