// Package ledger holds token balances, total supply and allowances.
//
// All mutations go through a Tx, which stages writes in memory and commits
// them to storage as a single batch. A Tx that is never committed leaves
// storage untouched.
package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Klingon-tech/feetoken/internal/storage"
	"github.com/Klingon-tech/feetoken/pkg/types"
)

// Ledger errors.
var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrOverflow              = errors.New("amount overflows uint64")
	ErrTxDone                = errors.New("ledger tx already committed or discarded")
)

var (
	prefixBalance   = []byte("b/") // b/<addr(20)> -> uint64 BE
	prefixAllowance = []byte("a/") // a/<owner(20)><spender(20)> -> uint64 BE
	keySupply       = []byte("s/supply")
)

// Ledger reads committed state and opens transactions against it.
type Ledger struct {
	db storage.DB
}

// New creates a ledger over db.
func New(db storage.DB) *Ledger {
	return &Ledger{db: db}
}

// BalanceOf returns the committed balance of addr.
func (l *Ledger) BalanceOf(addr types.Address) (uint64, error) {
	return readUint(l.db, balanceKey(addr))
}

// TotalSupply returns the committed total supply.
func (l *Ledger) TotalSupply() (uint64, error) {
	return readUint(l.db, keySupply)
}

// Allowance returns how much spender may move on behalf of owner.
func (l *Ledger) Allowance(owner, spender types.Address) (uint64, error) {
	return readUint(l.db, allowanceKey(owner, spender))
}

// Holder is one non-zero balance.
type Holder struct {
	Address types.Address `json:"address"`
	Balance uint64        `json:"balance"`
}

// Holders returns every account with a non-zero balance, ordered by address.
func (l *Ledger) Holders() ([]Holder, error) {
	var out []Holder
	err := l.db.ForEach(prefixBalance, func(key, value []byte) error {
		if len(key) != len(prefixBalance)+types.AddressSize || len(value) != 8 {
			return nil // Malformed entry, skip.
		}
		bal := binary.BigEndian.Uint64(value)
		if bal == 0 {
			return nil
		}
		var h Holder
		copy(h.Address[:], key[len(prefixBalance):])
		h.Balance = bal
		out = append(out, h)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ledger holders: %w", err)
	}
	return out, nil
}

// Begin opens a new transaction.
func (l *Ledger) Begin() *Tx {
	return &Tx{db: l.db, writes: make(map[string][]byte)}
}

func balanceKey(addr types.Address) []byte {
	k := make([]byte, 0, len(prefixBalance)+types.AddressSize)
	k = append(k, prefixBalance...)
	return append(k, addr[:]...)
}

func allowanceKey(owner, spender types.Address) []byte {
	k := make([]byte, 0, len(prefixAllowance)+2*types.AddressSize)
	k = append(k, prefixAllowance...)
	k = append(k, owner[:]...)
	return append(k, spender[:]...)
}

func encodeUint(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}

func decodeUint(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("ledger: corrupt value of length %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

type getter interface {
	Get(key []byte) ([]byte, error)
}

func readUint(db getter, key []byte) (uint64, error) {
	data, err := db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ledger read: %w", err)
	}
	return decodeUint(data)
}
