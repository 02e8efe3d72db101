package securecookie

import (
	"encoding/base64"
	"errors"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/oarkflow/securecookie/engine"
)

// Config describes a Codec's construction parameters for loading from
// the process environment: a deployment keeps its secrets out of
// source control and passes them in as SECURECOOKIE_SECRET /
// SECURECOOKIE_OLD_SECRETS / SECURECOOKIE_PROTOCOL_VERSIONS.
type Config struct {
	// Secret is the base64 (RawURLEncoding) primary secret.
	Secret string `env:"SECRET,required,notEmpty"`
	// OldSecrets are base64 secrets tried after Secret fails to verify,
	// newest rotated-out first.
	OldSecrets []string `env:"OLD_SECRETS" envSeparator:","`
	// DefaultDuration is the expiration Encode applies absent an
	// explicit expires argument. Zero means no expiration.
	DefaultDuration time.Duration `env:"DEFAULT_DURATION" envDefault:"0s"`
	// ProtocolVersions restricts (and orders) which protocol versions
	// the resulting Codec tries: the first entry is the version Encode
	// uses, and every entry is tried, in order, on Decode. Empty means
	// the default table (the current version only).
	ProtocolVersions []int `env:"PROTOCOL_VERSIONS" envSeparator:","`
}

// LoadConfig reads a Config from the environment under the
// SECURECOOKIE_ prefix.
func LoadConfig() (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: "SECURECOOKIE_"})
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewFromConfig decodes Config's base64 secrets and builds a Codec,
// applying any additional opts after the config-derived ones.
func NewFromConfig(cfg *Config, opts ...Option) (*Codec, error) {
	if cfg == nil {
		return nil, errors.New("securecookie: nil config")
	}
	primary, err := base64.RawURLEncoding.DecodeString(cfg.Secret)
	if err != nil {
		return nil, err
	}
	old := make([][]byte, 0, len(cfg.OldSecrets))
	for _, s := range cfg.OldSecrets {
		b, err := base64.RawURLEncoding.DecodeString(s)
		if err != nil {
			return nil, err
		}
		old = append(old, b)
	}

	allOpts := make([]Option, 0, len(opts)+3)
	if len(old) > 0 {
		allOpts = append(allOpts, WithOldSecrets(old...))
	}
	if cfg.DefaultDuration > 0 {
		allOpts = append(allOpts, WithDefaultDuration(cfg.DefaultDuration))
	}
	if len(cfg.ProtocolVersions) > 0 {
		versions := make([]engine.ProtocolVersion, len(cfg.ProtocolVersions))
		for i, v := range cfg.ProtocolVersions {
			versions[i] = engine.ProtocolVersion(v)
		}
		allOpts = append(allOpts, WithProtocolVersions(versions...))
	}
	allOpts = append(allOpts, opts...)

	return New(primary, allOpts...)
}
