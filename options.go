package securecookie

import (
	"io"
	"log/slog"
	"time"

	"github.com/oarkflow/securecookie/engine"
)

// Option configures a Codec at construction time.
type Option func(*Codec) error

// WithOldSecrets adds secrets to try, in order, after the primary
// fails to verify a token's MAC — the mechanism behind zero-downtime
// secret rotation.
func WithOldSecrets(secrets ...[]byte) Option {
	return func(c *Codec) error {
		primary := c.ring.Primary()
		ring, err := engine.NewKeyRing(primary, secrets...)
		if err != nil {
			return err
		}
		c.ring = ring
		return nil
	}
}

// WithDefaultDuration sets the expiration Encode applies when no
// explicit expires argument is given. Zero (the default) means tokens
// never expire unless Encode is called with an explicit timestamp.
func WithDefaultDuration(d time.Duration) Option {
	return func(c *Codec) error {
		c.defaultDuration = d
		return nil
	}
}

// WithProtocolVersions restricts (and orders) which protocol versions
// Decode will try, and selects the version Encode uses (the first in
// the list). The default is ProtocolV2 only.
func WithProtocolVersions(versions ...engine.ProtocolVersion) Option {
	return func(c *Codec) error {
		table, err := engine.NewTable(versions...)
		if err != nil {
			return err
		}
		c.table = table
		return nil
	}
}

// WithNow injects the clock Decode uses to evaluate expiration and
// Encode uses to compute a default-duration expiration. Intended for
// tests; production Codecs should leave this unset (time.Now).
func WithNow(now func() time.Time) Option {
	return func(c *Codec) error {
		c.now = now
		return nil
	}
}

// WithLogger sets the logger used for non-fatal diagnostic messages
// (e.g. a MAC verification miss across the whole key ring). Decode
// never logs the token or any decoded value.
func WithLogger(log *slog.Logger) Option {
	return func(c *Codec) error {
		c.log = log
		return nil
	}
}

// WithEntropySource overrides the reader the Codec's salt generator
// seeds from. Intended for deterministic tests; production Codecs
// should leave this unset (crypto/rand.Reader).
func WithEntropySource(reader io.Reader) Option {
	return func(c *Codec) error {
		c.salt = engine.NewSaltSource(reader)
		return nil
	}
}
