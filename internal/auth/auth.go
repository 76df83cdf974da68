// Package auth authenticates callers of mutating RPC methods.
//
// A caller signs the digest of (contract, method, nonce, params) with its
// secp256k1 key. The server recovers the caller's address from the public
// key, checks the Schnorr signature and requires the nonce to be strictly
// greater than the caller's last accepted nonce.
package auth

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Klingon-tech/feetoken/internal/storage"
	"github.com/Klingon-tech/feetoken/pkg/crypto"
	"github.com/Klingon-tech/feetoken/pkg/types"
)

// Authentication errors.
var (
	ErrBadSignature = errors.New("invalid command signature")
	ErrBadNonce     = errors.New("nonce must exceed the last accepted nonce")
	ErrBadPubKey    = errors.New("invalid public key")
)

var domainTag = []byte("feetoken-command-v1")

// Command is a signed request to run a mutating method.
type Command struct {
	Params    json.RawMessage `json:"params"`
	Nonce     uint64          `json:"nonce"`
	PubKey    string          `json:"pubkey"`    // hex, compressed secp256k1
	Signature string          `json:"signature"` // hex, Schnorr
}

// Digest returns the hash a caller signs. Params are compacted first, so
// insignificant whitespace does not change the digest.
func Digest(contract types.Address, method string, params json.RawMessage, nonce uint64) (types.Hash, error) {
	var compact bytes.Buffer
	if len(params) == 0 {
		params = json.RawMessage("null")
	}
	if err := json.Compact(&compact, params); err != nil {
		return types.Hash{}, fmt.Errorf("compact params: %w", err)
	}
	var nonceBuf [8]byte
	binary.BigEndian.PutUint64(nonceBuf[:], nonce)
	return crypto.HashParts(domainTag, contract[:], []byte(method), nonceBuf[:], compact.Bytes()), nil
}

// Sign builds a signed command for method with the given params.
func Sign(signer crypto.Signer, contract types.Address, method string, params any, nonce uint64) (*Command, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}
	digest, err := Digest(contract, method, raw, nonce)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(digest[:])
	if err != nil {
		return nil, err
	}
	return &Command{
		Params:    raw,
		Nonce:     nonce,
		PubKey:    hex.EncodeToString(signer.PublicKey()),
		Signature: hex.EncodeToString(sig),
	}, nil
}

// Caller verifies the signature and returns the signer's address. It does
// not check the nonce.
func (c *Command) Caller(contract types.Address, method string) (types.Address, error) {
	pub, err := hex.DecodeString(c.PubKey)
	if err != nil || !crypto.ValidPublicKey(pub) {
		return types.Address{}, ErrBadPubKey
	}
	sig, err := hex.DecodeString(c.Signature)
	if err != nil {
		return types.Address{}, ErrBadSignature
	}
	digest, err := Digest(contract, method, c.Params, c.Nonce)
	if err != nil {
		return types.Address{}, err
	}
	if !crypto.VerifySignature(digest[:], sig, pub) {
		return types.Address{}, ErrBadSignature
	}
	return crypto.AddressFromPubKey(pub), nil
}

var prefixNonce = []byte("n/") // n/<addr(20)> -> uint64 BE

// Authenticator verifies commands and tracks per-caller nonces.
type Authenticator struct {
	mu       sync.Mutex
	db       storage.DB
	contract types.Address
}

// NewAuthenticator creates an authenticator for commands addressed to
// contract. Nonces are persisted in db.
func NewAuthenticator(db storage.DB, contract types.Address) *Authenticator {
	return &Authenticator{db: db, contract: contract}
}

// Contract returns the contract address commands must be bound to.
func (a *Authenticator) Contract() types.Address {
	return a.contract
}

// Authenticate verifies cmd for method and consumes its nonce. The nonce
// stays consumed even if the command itself later fails.
func (a *Authenticator) Authenticate(method string, cmd *Command) (types.Address, error) {
	caller, err := cmd.Caller(a.contract, method)
	if err != nil {
		return types.Address{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	last, err := a.lastNonce(caller)
	if err != nil {
		return types.Address{}, err
	}
	if cmd.Nonce <= last {
		return types.Address{}, fmt.Errorf("%w: got %d, last %d", ErrBadNonce, cmd.Nonce, last)
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], cmd.Nonce)
	if err := a.db.Put(nonceKey(caller), buf[:]); err != nil {
		return types.Address{}, fmt.Errorf("store nonce: %w", err)
	}
	return caller, nil
}

// LastNonce returns the caller's last accepted nonce, 0 if none.
func (a *Authenticator) LastNonce(caller types.Address) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastNonce(caller)
}

func (a *Authenticator) lastNonce(caller types.Address) (uint64, error) {
	data, err := a.db.Get(nonceKey(caller))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read nonce: %w", err)
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("read nonce: corrupt value")
	}
	return binary.BigEndian.Uint64(data), nil
}

func nonceKey(addr types.Address) []byte {
	key := make([]byte, len(prefixNonce)+types.AddressSize)
	copy(key, prefixNonce)
	copy(key[len(prefixNonce):], addr[:])
	return key
}
