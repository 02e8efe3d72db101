package securecookie

import (
	"encoding/base64"
	"testing"
	"time"
)

func TestLoadConfigFromEnvironment(t *testing.T) {
	secret := base64.RawURLEncoding.EncodeToString([]byte("a-32-byte-secret-material-here!!"))
	old := base64.RawURLEncoding.EncodeToString([]byte("old-secret"))

	t.Setenv("SECURECOOKIE_SECRET", secret)
	t.Setenv("SECURECOOKIE_OLD_SECRETS", old)
	t.Setenv("SECURECOOKIE_DEFAULT_DURATION", "1h")
	t.Setenv("SECURECOOKIE_PROTOCOL_VERSIONS", "2,1")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Secret != secret {
		t.Fatalf("Secret = %q, want %q", cfg.Secret, secret)
	}
	if len(cfg.OldSecrets) != 1 || cfg.OldSecrets[0] != old {
		t.Fatalf("OldSecrets = %v, want [%q]", cfg.OldSecrets, old)
	}
	if cfg.DefaultDuration != time.Hour {
		t.Fatalf("DefaultDuration = %v, want 1h", cfg.DefaultDuration)
	}
	if len(cfg.ProtocolVersions) != 2 || cfg.ProtocolVersions[0] != 2 || cfg.ProtocolVersions[1] != 1 {
		t.Fatalf("ProtocolVersions = %v, want [2 1]", cfg.ProtocolVersions)
	}
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("SECURECOOKIE_SECRET", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("LoadConfig did not fail with SECURECOOKIE_SECRET empty")
	}
}

func TestNewFromConfigBuildsWorkingCodec(t *testing.T) {
	cfg := &Config{
		Secret: base64.RawURLEncoding.EncodeToString([]byte("config-secret")),
	}
	codec, err := NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	token, err := codec.Encode("payload")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, ok := codec.Decode(token); !ok {
		t.Fatalf("Decode rejected a token from a config-built codec")
	}
}

func TestNewFromConfigRejectsBadBase64(t *testing.T) {
	cfg := &Config{Secret: "not valid base64!!"}
	if _, err := NewFromConfig(cfg); err == nil {
		t.Fatalf("NewFromConfig accepted malformed base64 secret")
	}
}

func TestNewFromConfigWiresProtocolVersions(t *testing.T) {
	cfg := &Config{
		Secret:           base64.RawURLEncoding.EncodeToString([]byte("config-secret")),
		ProtocolVersions: []int{2},
	}
	codec, err := NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	if len(codec.table) != 1 || codec.table.Encoder().Version != 2 {
		t.Fatalf("codec.table = %v, want a single entry for protocol version 2", codec.table)
	}
}

func TestNewFromConfigRejectsUnknownProtocolVersion(t *testing.T) {
	cfg := &Config{
		Secret:           base64.RawURLEncoding.EncodeToString([]byte("config-secret")),
		ProtocolVersions: []int{99},
	}
	if _, err := NewFromConfig(cfg); err == nil {
		t.Fatalf("NewFromConfig accepted an unknown protocol version")
	}
}
