package domain

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	// AddressLength is the byte width of module and adapter identifiers.
	AddressLength = 20

	// NameHashLength is the byte width of a hashed adapter name.
	NameHashLength = 32
)

// Address is an opaque identifier for a module or an adapter.
// The zero value is the null identifier.
type Address [AddressLength]byte

// ZeroAddress is the null identifier. It is never stored as an adapter.
var ZeroAddress Address

// ParseAddress parses a hex encoded address, with or without a 0x prefix.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw, err := decodeHex(s, AddressLength)
	if err != nil {
		return a, fmt.Errorf("invalid address %q: %w", s, err)
	}
	copy(a[:], raw)
	return a, nil
}

// MustParseAddress is like ParseAddress but panics on malformed input.
// Intended for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsZero reports whether a is the null identifier.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Hex returns the 0x prefixed lowercase hex encoding.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) String() string {
	return a.Hex()
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// NameHash is the fixed-width storage key derived from an adapter name.
type NameHash [NameHashLength]byte

// HashName returns the Keccak-256 hash of the UTF-8 bytes of name.
// Names are case-sensitive: "COMPOUND" and "compound" hash differently.
func HashName(name string) NameHash {
	var h NameHash
	hasher := sha3.NewLegacyKeccak256()
	_, _ = hasher.Write([]byte(name))
	copy(h[:], hasher.Sum(nil))
	return h
}

// ParseNameHash parses a hex encoded name hash, with or without a 0x prefix.
func ParseNameHash(s string) (NameHash, error) {
	var h NameHash
	raw, err := decodeHex(s, NameHashLength)
	if err != nil {
		return h, fmt.Errorf("invalid name hash %q: %w", s, err)
	}
	copy(h[:], raw)
	return h, nil
}

// Hex returns the 0x prefixed lowercase hex encoding.
func (h NameHash) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h NameHash) String() string {
	return h.Hex()
}

// MarshalText implements encoding.TextMarshaler.
func (h NameHash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *NameHash) UnmarshalText(text []byte) error {
	parsed, err := ParseNameHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func decodeHex(s string, size int) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != size*2 {
		return nil, fmt.Errorf("want %d hex characters, got %d", size*2, len(s))
	}
	return hex.DecodeString(s)
}
