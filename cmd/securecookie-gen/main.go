// Command securecookie-gen generates secrets and exercises the token
// codec from the command line: print a fresh secret, encode a payload
// under one, or decode a token back to its claims.
package main

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/oarkflow/securecookie"
	"github.com/oarkflow/securecookie/engine"
)

const (
	version    = "1.0.0"
	secretSize = engine.DerivedKeySize
)

type config struct {
	Length          int
	CopyToClipboard bool
	Verbose         bool
	ShowVersion     bool

	Encode     bool
	Decode     bool
	SecretKey  string
	Payload    string
	TTLInput   string
	TokenInput string
}

func main() {
	cfg := parseFlags()

	if cfg.ShowVersion {
		fmt.Printf("securecookie-gen v%s\n", version)
		return
	}

	if err := run(cfg); err != nil {
		log.Fatalf("securecookie-gen: %v", err)
	}
}

func run(cfg *config) error {
	switch {
	case cfg.Decode:
		return runDecode(cfg)
	case cfg.Encode:
		return runEncode(cfg)
	default:
		return runGenerate(cfg)
	}
}

func parseFlags() *config {
	cfg := &config{}

	flag.IntVar(&cfg.Length, "length", secretSize, "length in bytes of the generated secret")
	flag.IntVar(&cfg.Length, "l", secretSize, "length in bytes of the generated secret (shorthand)")
	flag.BoolVar(&cfg.CopyToClipboard, "copy", true, "copy generated secret or token to clipboard")
	flag.BoolVar(&cfg.CopyToClipboard, "c", true, "copy generated secret or token to clipboard (shorthand)")
	noCopy := flag.Bool("no-copy", false, "disable clipboard copy")
	flag.BoolVar(&cfg.Verbose, "verbose", true, "enable verbose output")
	flag.BoolVar(&cfg.Verbose, "v", true, "enable verbose output (shorthand)")

	flag.BoolVar(&cfg.Encode, "encode", false, "encode a payload into a token")
	flag.BoolVar(&cfg.Encode, "E", false, "encode a payload into a token (shorthand)")
	flag.BoolVar(&cfg.Decode, "decode", false, "decode a token back into its payload")
	flag.BoolVar(&cfg.Decode, "D", false, "decode a token back into its payload (shorthand)")
	flag.StringVar(&cfg.SecretKey, "secret", "", "secret key material: read as base64 if it decodes as base64, else as hex, else as raw text")
	flag.StringVar(&cfg.SecretKey, "s", "", "secret key material (shorthand)")
	flag.StringVar(&cfg.Payload, "payload", "", "JSON payload to embed when encoding")
	flag.StringVar(&cfg.Payload, "p", "", "JSON payload to embed when encoding (shorthand)")
	flag.StringVar(&cfg.TTLInput, "ttl", "", "token lifetime (e.g. 10m, 24h); empty means no expiration")
	flag.StringVar(&cfg.TTLInput, "T", "", "token lifetime (shorthand)")
	flag.StringVar(&cfg.TokenInput, "token", "", "token string to decode")

	showVersion := flag.Bool("version", false, "show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "securecookie-gen v%s - generate secrets and exercise the token codec\n\n", version)
		fmt.Fprintf(os.Stderr, "USAGE:\n")
		fmt.Fprintf(os.Stderr, "  securecookie-gen [-l <length>]\n")
		fmt.Fprintf(os.Stderr, "  securecookie-gen --encode --secret <key> --payload '<json>' [--ttl 10m]\n")
		fmt.Fprintf(os.Stderr, "  securecookie-gen --decode --secret <key> --token <token-string>\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
	}

	flag.Parse()
	cfg.ShowVersion = *showVersion
	if *noCopy {
		cfg.CopyToClipboard = false
	}
	return cfg
}

func runGenerate(cfg *config) error {
	if cfg.Length <= 0 {
		return fmt.Errorf("secret length must be positive")
	}
	secret, err := engine.GenerateSecretString(cfg.Length)
	if err != nil {
		return fmt.Errorf("generate secret: %w", err)
	}
	fmt.Printf("Generated secret (%d chars): %s\n", len(secret), secret)
	maybeCopyToClipboard(secret, cfg)
	return nil
}

func runEncode(cfg *config) error {
	secretBytes, err := decodeSecretKey(cfg.SecretKey)
	if err != nil {
		return err
	}
	claims, err := parsePayloadClaims(cfg.Payload)
	if err != nil {
		return err
	}

	opts := []securecookie.Option{}
	var expires []int64
	if strings.TrimSpace(cfg.TTLInput) != "" {
		ttl, err := time.ParseDuration(cfg.TTLInput)
		if err != nil {
			return fmt.Errorf("invalid ttl %q: %w", cfg.TTLInput, err)
		}
		expires = append(expires, time.Now().Add(ttl).Unix())
	}

	codec, err := securecookie.New(secretBytes, opts...)
	if err != nil {
		return fmt.Errorf("build codec: %w", err)
	}
	token, err := codec.Encode(claims, expires...)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	fmt.Printf("Token (%d chars): %s\n", len(token), token)
	maybeCopyToClipboard(token, cfg)
	return nil
}

func runDecode(cfg *config) error {
	if strings.TrimSpace(cfg.TokenInput) == "" {
		return fmt.Errorf("--token is required when --decode is set")
	}
	secretBytes, err := decodeSecretKey(cfg.SecretKey)
	if err != nil {
		return err
	}
	codec, err := securecookie.New(secretBytes)
	if err != nil {
		return fmt.Errorf("build codec: %w", err)
	}
	value, err := codec.DecodeStrict(cfg.TokenInput)
	if err != nil {
		return fmt.Errorf("decode token: %w", err)
	}
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal decoded value: %w", err)
	}
	fmt.Printf("Payload: %s\n", out)
	return nil
}

func parsePayloadClaims(payload string) (map[string]any, error) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return map[string]any{}, nil
	}
	var claims map[string]any
	if err := json.Unmarshal([]byte(trimmed), &claims); err != nil {
		return nil, fmt.Errorf("payload must be a JSON object: %w", err)
	}
	return claims, nil
}

func decodeSecretKey(input string) ([]byte, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, fmt.Errorf("secret key is required (-s/--secret)")
	}
	for _, dec := range []func(string) ([]byte, error){
		base64.RawURLEncoding.DecodeString,
		base64.URLEncoding.DecodeString,
		base64.RawStdEncoding.DecodeString,
		base64.StdEncoding.DecodeString,
	} {
		if b, err := dec(trimmed); err == nil {
			return b, nil
		}
	}
	if b, err := hex.DecodeString(trimmed); err == nil {
		return b, nil
	}
	return []byte(trimmed), nil
}

func maybeCopyToClipboard(value string, cfg *config) {
	if !cfg.CopyToClipboard {
		return
	}
	if err := clipboard.WriteAll(value); err != nil {
		if cfg.Verbose {
			fmt.Printf("Warning: unable to copy to clipboard: %v\n", err)
		}
		return
	}
	if cfg.Verbose {
		fmt.Println("✓ copied to clipboard")
	}
}
