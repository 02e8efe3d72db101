package engine

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"os"
	"sync"
	"unsafe"

	"gopkg.in/yaml.v3"
)

const (
	defaultPoolSize = 256
	maxPoolSize     = 4096
	charsetMask64   = 0x3F
)

var (
	// ErrInvalidSize is returned when a requested buffer/byte size is not positive.
	ErrInvalidSize = errors.New("engine: size must be positive")
	// ErrInvalidLength is returned when a requested string length is not positive.
	ErrInvalidLength = errors.New("engine: length must be positive")
)

var charset = [64]byte{
	'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M',
	'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z',
	'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm',
	'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z',
	'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '-', '_',
}

// SecretGenerator produces cryptographically secure secrets: raw key
// bytes for NewKeyRing/Rotate, and URL-safe strings for display (CLI
// output, config scaffolding). It pools buffers for repeated use.
type SecretGenerator struct {
	reader io.Reader
	pool   sync.Pool
}

// NewSecretGenerator builds a generator reading from reader, or from
// crypto/rand.Reader if reader is nil.
func NewSecretGenerator(reader io.Reader) *SecretGenerator {
	if reader == nil {
		reader = rand.Reader
	}
	return &SecretGenerator{
		reader: reader,
		pool: sync.Pool{
			New: func() any {
				buf := make([]byte, defaultPoolSize)
				return &buf
			},
		},
	}
}

func (g *SecretGenerator) getBuffer(size int) []byte {
	if size > maxPoolSize {
		return make([]byte, size)
	}
	bufPtr := g.pool.Get().(*[]byte)
	buf := *bufPtr
	if cap(buf) < size {
		buf = make([]byte, size)
	}
	return buf[:size]
}

func (g *SecretGenerator) putBuffer(buf []byte) {
	if cap(buf) > maxPoolSize {
		return
	}
	b := buf[:cap(buf)]
	g.pool.Put(&b)
}

func (g *SecretGenerator) readBytesSafe(buf []byte) error {
	_, err := io.ReadFull(g.reader, buf)
	return err
}

// Key returns size cryptographically secure random bytes, suitable as
// a raw secret for NewKeyRing/Rotate.
func (g *SecretGenerator) Key(size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	out := make([]byte, size)
	if err := g.readBytesSafe(out); err != nil {
		return nil, err
	}
	return out, nil
}

// String returns a URL-safe random string of the given length, using
// bit masking against the 64-entry charset for an unbiased draw.
func (g *SecretGenerator) String(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}
	buf := g.getBuffer(length)
	defer g.putBuffer(buf)

	if err := g.readBytesSafe(buf); err != nil {
		return "", err
	}
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		out[i] = charset[buf[i]&charsetMask64]
	}
	return unsafeBytesToString(out), nil
}

// Base64 returns a raw URL-safe base64 encoding of size random bytes.
func (g *SecretGenerator) Base64(size int) (string, error) {
	if size <= 0 {
		return "", ErrInvalidSize
	}
	buf := g.getBuffer(size)
	defer g.putBuffer(buf)

	if err := g.readBytesSafe(buf); err != nil {
		return "", err
	}
	out := make([]byte, base64.RawURLEncoding.EncodedLen(size))
	base64.RawURLEncoding.Encode(out, buf)
	return unsafeBytesToString(out), nil
}

func unsafeBytesToString(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// WriteSecretToYAMLFile generates a length-byte URL-safe secret and
// writes it under key in a YAML file at filePath, preserving any other
// keys already present.
func (g *SecretGenerator) WriteSecretToYAMLFile(filePath, key string, length int) (string, error) {
	secret, err := g.String(length)
	if err != nil {
		return "", err
	}
	content, err := os.ReadFile(filePath)
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}
	data := make(map[string]any)
	if len(content) > 0 {
		if err := yaml.Unmarshal(content, &data); err != nil {
			return "", err
		}
	}
	data[key] = secret
	updated, err := yaml.Marshal(data)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filePath, updated, 0o600); err != nil {
		return "", err
	}
	return secret, nil
}

// defaultGenerator backs the package-level convenience functions below.
var defaultGenerator = NewSecretGenerator(nil)

// GenerateSecret returns a raw DerivedKeySize-byte secret suitable as
// a KeyRing entry.
func GenerateSecret() ([]byte, error) {
	return defaultGenerator.Key(DerivedKeySize)
}

// GenerateSecretString returns a URL-safe random string of the given length.
func GenerateSecretString(length int) (string, error) {
	return defaultGenerator.String(length)
}
