// Package crypto provides the hashing and signature primitives used by the
// token node.
package crypto

import (
	"encoding/binary"

	"github.com/Klingon-tech/feetoken/pkg/types"
	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// HashParts hashes a sequence of byte strings, each prefixed with its
// 4-byte little-endian length, so that ("ab","c") and ("a","bc") differ.
func HashParts(parts ...[]byte) types.Hash {
	h := blake3.New()
	var lenBuf [4]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(p)))
		h.Write(lenBuf[:])
		h.Write(p)
	}
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// AddressFromPubKey derives an address from a compressed public key.
// Address = BLAKE3(compressed_pubkey)[:20].
func AddressFromPubKey(pubKey []byte) types.Address {
	h := Hash(pubKey)
	var addr types.Address
	copy(addr[:], h[:types.AddressSize])
	return addr
}

// ContractAddress derives the token's own account address from its
// deployment identity. Tokens sent to this address can only leave it
// through the owner's rescue operation.
func ContractAddress(name, symbol string, owner types.Address) types.Address {
	h := HashParts([]byte("feetoken"), []byte(name), []byte(symbol), owner[:])
	var addr types.Address
	copy(addr[:], h[:types.AddressSize])
	return addr
}
