package securecookie

import (
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/oarkflow/securecookie/engine"
)

// decryptIgnoringExpiration re-verifies and decrypts token exactly like
// DecodeStrict, but skips the expiration gate — a test-only helper for
// asserting what a pre-expired token's ciphertext actually holds,
// independent of whether a clock-skewed decoder would accept it.
func (c *Codec) decryptIgnoringExpiration(token string) (any, error) {
	saltField, expField, ctField, macField, ok := engine.Split(token)
	if !ok {
		return nil, ErrNoValue
	}
	salt, ok := engine.ParseSalt(saltField)
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
			plaintext, err := engine.Open(key, ciphertext)
			if err != nil {
				return nil, err
			}
			return engine.Thaw(plaintext)
		}
	}
	return nil, ErrNoValue
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec, err := New([]byte("primary-secret"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	payload := map[string]any{"user_id": uint64(7), "admin": true}

	token, err := codec.Encode(payload)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	value, ok := codec.Decode(token)
	if !ok {
		t.Fatalf("Decode rejected a token this codec just produced")
	}
	got, ok := value.(map[string]any)
	if !ok {
		t.Fatalf("Decode returned %T, want map[string]any", value)
	}
	if got["admin"] != true {
		t.Fatalf("decoded payload missing expected field: %#v", got)
	}
}

func TestDecodeRejectsTamperedToken(t *testing.T) {
	codec, err := New([]byte("primary-secret"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	token, err := codec.Encode("hello")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	tampered := token[:len(token)-1] + flipLastChar(token)
	if _, ok := codec.Decode(tampered); ok {
		t.Fatalf("Decode accepted a tampered token")
	}
}

func flipLastChar(s string) string {
	if s == "" {
		return s
	}
	// The last character of an unpadded 32-byte MAC carries only its
	// top four bits, so the replacement must differ in those bits: 'A'
	// and 'Q' do, and 'A' differs from every other last character the
	// encoder emits.
	c := s[len(s)-1]
	if c == 'A' {
		return "Q"
	}
	return "A"
}

func TestDecodeRejectsGarbage(t *testing.T) {
	codec, err := New([]byte("primary-secret"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := codec.Decode("not~a~valid~token"); ok {
		t.Fatalf("Decode accepted structurally invalid input")
	}
	if _, ok := codec.Decode(""); ok {
		t.Fatalf("Decode accepted an empty string")
	}
}

func TestExpiredTokenIsRejected(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	codec, err := New([]byte("secret"), WithNow(fixedClock(base)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	token, err := codec.Encode("payload", base.Add(-time.Minute).Unix())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, ok := codec.Decode(token); ok {
		t.Fatalf("Decode accepted a token whose expiration is in the past")
	}
}

func TestPastExpirationStillEncodesButDiscardsPayload(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	codec, err := New([]byte("secret"), WithNow(fixedClock(base)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	token, err := codec.Encode(map[string]any{"foo": "bar"}, base.Add(-time.Hour).Unix())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, ok := codec.Decode(token); ok {
		t.Fatalf("Decode accepted a token with a past expiration")
	}

	// Even ignoring the expiration gate entirely, the ciphertext holds
	// nothing: a clock-skewed decoder gains no information.
	value, err := codec.decryptIgnoringExpiration(token)
	if err != nil {
		t.Fatalf("decryptIgnoringExpiration: %v", err)
	}
	got, ok := value.(map[string]any)
	if !ok || len(got) != 0 {
		t.Fatalf("inner payload of a pre-expired token = %#v, want an empty mapping", value)
	}
}

func TestFutureExpirationIsAccepted(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	codec, err := New([]byte("secret"), WithNow(fixedClock(base)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	token, err := codec.Encode("payload", base.Add(time.Hour).Unix())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, ok := codec.Decode(token); !ok {
		t.Fatalf("Decode rejected a token whose expiration is in the future")
	}
}

func TestNoExpirationNeverExpires(t *testing.T) {
	codec, err := New([]byte("secret"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	token, err := codec.Encode("payload")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, ok := codec.Decode(token); !ok {
		t.Fatalf("Decode rejected a token with no expiration field")
	}
}

func TestDefaultDurationAppliesWhenExpiresOmitted(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	now := base
	codec, err := New([]byte("secret"),
		WithDefaultDuration(time.Minute),
		WithNow(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	token, err := codec.Encode("payload")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	now = base.Add(30 * time.Second)
	if _, ok := codec.Decode(token); !ok {
		t.Fatalf("Decode rejected a token still within its default duration")
	}

	now = base.Add(2 * time.Minute)
	if _, ok := codec.Decode(token); ok {
		t.Fatalf("Decode accepted a token past its default duration")
	}
}

func TestOldSecretStillDecodesDuringRotation(t *testing.T) {
	oldSecret := []byte("old-secret")
	codecOld, err := New(oldSecret)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	token, err := codecOld.Encode("payload")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	codecNew, err := New([]byte("new-secret"), WithOldSecrets(oldSecret))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := codecNew.Decode(token); !ok {
		t.Fatalf("Decode rejected a token signed under a demoted old secret")
	}
}

func TestNewPrimaryCannotDecodeUnrelatedSecret(t *testing.T) {
	codecA, err := New([]byte("secret-a"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	token, err := codecA.Encode("payload")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	codecB, err := New([]byte("secret-b"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := codecB.Decode(token); ok {
		t.Fatalf("Decode accepted a token from a codec with an unrelated secret")
	}
}

func TestRotatePromotesNewPrimaryForEncode(t *testing.T) {
	codec, err := New([]byte("v1"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := codec.Rotate([]byte("v2"), 0); err != nil {
		t.Fatalf("Rotate: %v", err)
	}

	token, err := codec.Encode("payload")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	verifier, err := New([]byte("v2"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := verifier.Decode(token); !ok {
		t.Fatalf("token encoded after Rotate was not signed under the new primary")
	}
}

func TestDecodeStrictDistinguishesFatalFromSilent(t *testing.T) {
	codec, err := New([]byte("secret"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := codec.DecodeStrict("garbage~token~here~x"); err != ErrNoValue {
		t.Fatalf("DecodeStrict(garbage) = %v, want ErrNoValue", err)
	}

	token, err := codec.Encode("payload")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	value, err := codec.DecodeStrict(token)
	if err != nil {
		t.Fatalf("DecodeStrict: %v", err)
	}
	if value != "payload" {
		t.Fatalf("DecodeStrict returned %#v, want %q", value, "payload")
	}

	// A correctly MACed token whose ciphertext is only an IV fails
	// after MAC verification: fatal for DecodeStrict, silent for Decode.
	key := engine.Derive(1, []byte("secret"))
	ctField := engine.EncodeField(make([]byte, 16), engine.URLAlphabet)
	macField := engine.EncodeField(engine.Sign(key, engine.AuthenticatedMessage("", ctField)), engine.URLAlphabet)
	forged := engine.Join("1", "", ctField, macField)
	if _, err := codec.DecodeStrict(forged); err != engine.ErrCiphertext {
		t.Fatalf("DecodeStrict(post-MAC failure) = %v, want engine.ErrCiphertext", err)
	}
	if _, ok := codec.Decode(forged); ok {
		t.Fatalf("Decode accepted a token whose ciphertext fails to decrypt")
	}
}

func TestEncodeRejectsTaggedObject(t *testing.T) {
	codec, err := New([]byte("secret"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tagged := map[string]any{
		"inner": cbor.Tag{Number: 55799, Content: "reconstruct me"},
	}
	if _, err := codec.Encode(tagged); err == nil {
		t.Fatalf("Encode accepted a value containing a tagged object")
	}
}

func TestEncodeProducesUniqueSaltsAcrossCalls(t *testing.T) {
	codec, err := New([]byte("secret"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	seen := make(map[string]bool)
	for i := 0; i < 16; i++ {
		token, err := codec.Encode("same payload every time")
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		salt, _, _, _, ok := splitForTest(token)
		if !ok {
			t.Fatalf("could not split token %q", token)
		}
		if seen[salt] {
			t.Fatalf("salt %q reused across Encode calls", salt)
		}
		seen[salt] = true
	}
}

func splitForTest(token string) (salt, exp, ct, mac string, ok bool) {
	parts := make([]string, 0, 4)
	start := 0
	for i := 0; i < len(token); i++ {
		if token[i] == '~' {
			parts = append(parts, token[start:i])
			start = i + 1
		}
	}
	parts = append(parts, token[start:])
	if len(parts) != 4 {
		return "", "", "", "", false
	}
	return parts[0], parts[1], parts[2], parts[3], true
}
