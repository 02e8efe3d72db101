package engine

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

// ErrTaggedValue is returned by Thaw when the decoded payload contains
// a CBOR tag (major type 6) — the wire representation of an object
// carrying reconstruction semantics. The codec only ever hands callers
// plain aggregate data (mappings, sequences, strings, numbers, bools,
// null), so a tag here means the bytes were never produced by this
// library's Freeze, or were produced by a caller value this library
// must refuse.
var ErrTaggedValue = errors.New("engine: refusing to reconstruct a tagged value")

// encMode is CBOR's Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. The
// same logical value always produces identical bytes, which keeps
// Freeze's output (and therefore the ciphertext) deterministic given a
// fixed salt/IV — useful for tests, harmless otherwise.
var encMode cbor.EncMode

// decMode decodes into plain Go aggregate types only.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("engine: cbor encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("engine: cbor decoder initialization failed: " + err.Error())
	}
}

// zstdEncoder and zstdDecoder are process-wide: both types are
// documented safe for concurrent use, and constructing either is
// comparatively expensive, so the reference artifact-compression code
// in the corpus builds one of each at init and reuses them forever.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdOnce    sync.Once
	zstdInitErr error
)

func ensureZstd() error {
	zstdOnce.Do(func() {
		zstdEncoder, zstdInitErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if zstdInitErr != nil {
			return
		}
		zstdDecoder, zstdInitErr = zstd.NewReader(nil)
	})
	return zstdInitErr
}

// Freeze serializes value to CBOR (Core Deterministic Encoding) and
// compresses the result with zstd. value must be plain aggregate data;
// a value whose wire encoding carries a CBOR tag anywhere (a literal
// cbor.Tag, or a type whose Marshaler emits one) is rejected with
// ErrTaggedValue instead of being shipped, mirroring the reconstruction
// refusal Thaw applies on the way back in.
func Freeze(value any) ([]byte, error) {
	if value == nil {
		value = map[string]any{}
	}
	raw, err := encMode.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("engine: serialize: %w", err)
	}
	if err := rejectTaggedWire(raw); err != nil {
		return nil, err
	}
	if err := ensureZstd(); err != nil {
		return nil, fmt.Errorf("engine: compressor init: %w", err)
	}
	return zstdEncoder.EncodeAll(raw, make([]byte, 0, len(raw))), nil
}

// Thaw decompresses and deserializes bytes produced by Freeze back
// into plain Go data (map[string]any, []any, string, number, bool, or
// nil). It refuses to decode any value containing a CBOR tag.
func Thaw(data []byte) (any, error) {
	if err := ensureZstd(); err != nil {
		return nil, fmt.Errorf("engine: compressor init: %w", err)
	}
	raw, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("engine: decompress: %w", err)
	}
	var value any
	if err := decMode.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("engine: deserialize: %w", err)
	}
	if structurallyTagged(value) {
		return nil, ErrTaggedValue
	}
	return value, nil
}

// rejectTaggedWire decodes raw (CBOR bytes Freeze is about to ship) the
// same way Thaw would and walks the result for an embedded tag. Unlike
// a text-based scan of cbor.Diagnose output, this respects major-type
// boundaries, so a plain string that merely contains digits and
// parentheses (e.g. "Room 12(a)") is never mistaken for a tag.
func rejectTaggedWire(raw []byte) error {
	var probe any
	if err := decMode.Unmarshal(raw, &probe); err != nil {
		return fmt.Errorf("engine: serialize: %w", err)
	}
	if structurallyTagged(probe) {
		return ErrTaggedValue
	}
	return nil
}

// structurallyTagged reports whether v, or anything nested inside it,
// came from a CBOR tag: a cbor.Tag, or the big.Int and time.Time values
// decMode builds from the built-in bignum and time tags. decMode only
// ever produces map[string]any, []any, and scalar leaves for untagged
// input, so those are the only aggregate shapes that need walking.
func structurallyTagged(v any) bool {
	switch t := v.(type) {
	case cbor.Tag, big.Int, *big.Int, time.Time:
		return true
	case map[string]any:
		for _, elem := range t {
			if structurallyTagged(elem) {
				return true
			}
		}
	case []any:
		for _, elem := range t {
			if structurallyTagged(elem) {
				return true
			}
		}
	}
	return false
}
