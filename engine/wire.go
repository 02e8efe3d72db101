package engine

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// FieldSeparator is the single ASCII byte joining the four token
// fields: SALT~EXP~CT~MAC.
const FieldSeparator = "~"

// Alphabet is the base64 variant a ProtocolVersion encodes binary
// fields with. The current wire format uses URL-safe, unpadded
// base64; legacy versions may pin a different alphabet.
type Alphabet = *base64.Encoding

// URLAlphabet is the current wire format's base64 alphabet: URL-safe,
// no padding.
var URLAlphabet Alphabet = base64.RawURLEncoding

// StdAlphabet is the standard base64 alphabet, offered for legacy
// protocol versions per the specification's Open Question — never used
// by the current (default) version.
var StdAlphabet Alphabet = base64.RawStdEncoding

// EncodeField base64-encodes data under the given alphabet.
func EncodeField(data []byte, alphabet Alphabet) string {
	return alphabet.EncodeToString(data)
}

// DecodeField base64-decodes s under the given alphabet.
func DecodeField(s string, alphabet Alphabet) ([]byte, error) {
	return alphabet.DecodeString(s)
}

// FormatSalt renders a uint32 salt as its decimal ASCII wire form.
func FormatSalt(salt uint32) string {
	return strconv.FormatUint(uint64(salt), 10)
}

// ParseSalt parses a decimal ASCII SALT field back to a uint32.
func ParseSalt(field string) (uint32, bool) {
	v, err := strconv.ParseUint(field, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// FormatExpiration renders an optional expiration (epoch seconds) as
// its wire field: empty when absent.
func FormatExpiration(expires int64, present bool) string {
	if !present {
		return ""
	}
	return strconv.FormatInt(expires, 10)
}

// ParseExpiration parses an EXP field. An empty field means "no
// expiration" and is reported via present=false.
func ParseExpiration(field string) (expires int64, present bool, ok bool) {
	if field == "" {
		return 0, false, true
	}
	v, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		return 0, false, false
	}
	return v, true, true
}

// Join assembles the four wire fields into a token string.
func Join(salt, exp, ct, mac string) string {
	return salt + FieldSeparator + exp + FieldSeparator + ct + FieldSeparator + mac
}

// Split divides a token into its four fields. It rejects any token
// that does not yield exactly four parts, or whose SALT, CT, or MAC
// field is empty (EXP may legitimately be empty).
func Split(token string) (salt, exp, ct, mac string, ok bool) {
	parts := strings.SplitN(token, FieldSeparator, 5)
	if len(parts) != 4 {
		return "", "", "", "", false
	}
	salt, exp, ct, mac = parts[0], parts[1], parts[2], parts[3]
	if salt == "" || ct == "" || mac == "" {
		return "", "", "", "", false
	}
	return salt, exp, ct, mac, true
}

// AuthenticatedMessage builds the exact ASCII byte sequence that is
// MACed under the current protocol version: EXP~CT, using the literal
// separator byte as it appears on the wire.
func AuthenticatedMessage(exp, ct string) []byte {
	return []byte(exp + FieldSeparator + ct)
}
