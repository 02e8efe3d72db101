package engine

import "errors"

// ErrProtocolFixturesUnavailable is returned by Encode when the caller
// selects a legacy ProtocolVersion that has no checked-in fixture set
// to ground its exact field composition. Per the specification, a
// legacy wire format must come from an authoritative fixture, never
// from inference — so this module ships the extension point wired but
// inert until a real fixture set exists.
var ErrProtocolFixturesUnavailable = errors.New("engine: legacy protocol version has no fixture-backed encoder")

// ProtocolVersion identifies a token field-composition/alphabet rule
// set. ProtocolV2 is the current, fully specified construction this
// package implements; ProtocolV1 is a placeholder for a legacy format
// described only by the specification's Open Question, not its body.
type ProtocolVersion int

const (
	// ProtocolV1 represents a hypothetical legacy wire format: per the
	// specification's Open feature Question, plausible differences
	// are a standard (not URL-safe) base64 alphabet and/or a MAC
	// composition that includes the salt or the plaintext rather than
	// the ciphertext. Without an authoritative fixture set this
	// module does not know which, so ProtocolV1's rule entry exists
	// but Encode refuses to use it.
	ProtocolV1 ProtocolVersion = 1

	// ProtocolV2 is the current construction described in full by the
	// specification body: URL-safe unpadded base64, MAC over EXP~CT.
	ProtocolV2 ProtocolVersion = 2
)

// Rule describes one protocol version's wire composition: which
// base64 alphabet frames binary fields, and how to build the
// authenticated-data message fed to the MAC.
type Rule struct {
	Version     ProtocolVersion
	Alphabet    Alphabet
	MACMessage  func(salt, exp, ct string) []byte
	FixtureOnly bool // true if this version must not be used to Encode without fixtures
}

// Table is an ordered registry of protocol rules, tried in order on
// decode until one produces a matching MAC.
type Table []Rule

// DefaultTable is the built-in rule set: the current version only; the
// legacy placeholder is not included. NewTable(ProtocolV2) (or omitting the
// option entirely) is the common case; callers wanting legacy decode
// support pass NewTable(ProtocolV2, ProtocolV1) explicitly.
func DefaultTable() Table {
	return Table{ruleFor(ProtocolV2)}
}

// NewTable builds a Table from an ordered list of enabled versions.
// The first entry is the version Encode uses; all entries are tried,
// in order, on Decode. Returns an error if a requested version is
// unknown or duplicated.
func NewTable(versions ...ProtocolVersion) (Table, error) {
	if len(versions) == 0 {
		return DefaultTable(), nil
	}
	seen := make(map[ProtocolVersion]bool, len(versions))
	table := make(Table, 0, len(versions))
	for _, v := range versions {
		if seen[v] {
			return nil, errors.New("engine: duplicate protocol version in table")
		}
		seen[v] = true
		rule, ok := knownRule(v)
		if !ok {
			return nil, errors.New("engine: unknown protocol version")
		}
		table = append(table, rule)
	}
	return table, nil
}

// Encoder is the rule Encode must use: the table's first entry.
func (t Table) Encoder() Rule {
	return t[0]
}

func knownRule(v ProtocolVersion) (Rule, bool) {
	switch v {
	case ProtocolV2:
		return ruleFor(ProtocolV2), true
	case ProtocolV1:
		return ruleFor(ProtocolV1), true
	default:
		return Rule{}, false
	}
}

func ruleFor(v ProtocolVersion) Rule {
	switch v {
	case ProtocolV1:
		return Rule{
			Version:  ProtocolV1,
			Alphabet: StdAlphabet,
			MACMessage: func(salt, exp, ct string) []byte {
				return []byte(salt + FieldSeparator + exp + FieldSeparator + ct)
			},
			FixtureOnly: true,
		}
	default:
		return Rule{
			Version:  ProtocolV2,
			Alphabet: URLAlphabet,
			MACMessage: func(_, exp, ct string) []byte {
				return AuthenticatedMessage(exp, ct)
			},
		}
	}
}
