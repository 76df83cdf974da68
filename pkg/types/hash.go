package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HashSize is the length of a hash in bytes.
const HashSize = 32

// Hash is a 32-byte BLAKE3 digest: event IDs and signed command digests.
// Its text form is 0x-prefixed hex, like Address.
type Hash [HashSize]byte

// IsZero reports whether h is the all-zero hash (an unsealed event).
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String returns the 0x-prefixed hex hash.
func (h Hash) String() string {
	return AddressPrefix + hex.EncodeToString(h[:])
}

// Bytes returns a copy of the hash.
func (h Hash) Bytes() []byte {
	return append([]byte(nil), h[:]...)
}

// MarshalText implements encoding.TextMarshaler, so JSON carries the hex form.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText accepts hex with or without 0x. Empty text is the zero hash.
func (h *Hash) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*h = Hash{}
		return nil
	}
	parsed, err := HexToHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// HexToHash parses a 64-char hex hash, with or without the 0x prefix.
func HexToHash(s string) (Hash, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, AddressPrefix))
	if err != nil {
		return Hash{}, fmt.Errorf("invalid hash hex: %w", err)
	}
	if len(b) != HashSize {
		return Hash{}, fmt.Errorf("hash must be %d bytes, got %d", HashSize, len(b))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}
