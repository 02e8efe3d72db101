package engine

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand/v2"
	"sync"
)

// seedBytes is the amount of OS entropy drawn to seed the per-codec
// PRNG. The salt only needs to be unique with overwhelming probability
// within a deployment — it is not itself secret — so a cheap PRNG
// driven by a strong seed is sufficient, and far cheaper than reading
// crypto/rand on every Encode call.
const seedBytes = 1024

// SaltSource produces 32-bit unsigned salts for Encode. It is safe for
// concurrent use: draws are serialized behind a mutex, matching the
// short-critical-section pattern the reference library uses around its
// pooled buffers.
type SaltSource struct {
	mu     sync.Mutex
	once   sync.Once
	reader io.Reader
	rng    *rand.ChaCha8
	seedE  error
}

// NewSaltSource returns a SaltSource with lazy, on-first-use seeding.
// The reader is normally nil, which selects crypto/rand.Reader; tests
// may inject a deterministic reader.
func NewSaltSource(reader io.Reader) *SaltSource {
	return &SaltSource{reader: orDefault(reader)}
}

func orDefault(r io.Reader) io.Reader {
	if r == nil {
		return cryptorand.Reader
	}
	return r
}

func (s *SaltSource) ensureSeeded() error {
	s.once.Do(func() {
		seed := make([]byte, seedBytes)
		if _, err := io.ReadFull(s.reader, seed); err != nil {
			s.seedE = err
			return
		}
		var key [32]byte
		// Fold the 1024 bytes of entropy down to the 32-byte ChaCha8
		// seed by XORing successive 32-byte blocks together, so every
		// drawn byte contributes to the seed instead of only the
		// first 32.
		for i := 0; i < len(seed); i += 32 {
			for j := 0; j < 32 && i+j < len(seed); j++ {
				key[j] ^= seed[i+j]
			}
		}
		s.rng = rand.NewChaCha8(key)
	})
	return s.seedE
}

// Next draws a fresh uint32 salt. Returns an error only if the OS
// entropy source could not be read during lazy seeding; per the
// specification this is a fatal condition.
func (s *SaltSource) Next() (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureSeeded(); err != nil {
		return 0, err
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], s.rng.Uint64())
	return binary.LittleEndian.Uint32(buf[:4]), nil
}
