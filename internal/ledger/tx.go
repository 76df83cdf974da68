package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Klingon-tech/feetoken/internal/log"
	"github.com/Klingon-tech/feetoken/internal/storage"
	"github.com/Klingon-tech/feetoken/pkg/types"
)

// Tx is a staged set of ledger writes. Reads observe earlier writes of
// the same Tx. A Tx is not safe for concurrent use; callers serialize
// operations above it.
type Tx struct {
	db     storage.DB
	writes map[string][]byte // nil value = delete
	done   bool
}

// Get returns a raw value, observing staged writes.
func (tx *Tx) Get(key []byte) ([]byte, error) {
	if v, ok := tx.writes[string(key)]; ok {
		if v == nil {
			return nil, storage.ErrNotFound
		}
		return v, nil
	}
	return tx.db.Get(key)
}

// Put stages a raw record to be committed with the ledger writes.
// Used for state that must change atomically with balances.
func (tx *Tx) Put(key, value []byte) {
	v := make([]byte, len(value))
	copy(v, value)
	tx.writes[string(key)] = v
}

// Delete stages the removal of a raw record.
func (tx *Tx) Delete(key []byte) {
	tx.writes[string(key)] = nil
}

// BalanceOf returns the staged balance of addr.
func (tx *Tx) BalanceOf(addr types.Address) (uint64, error) {
	return readUint(tx, balanceKey(addr))
}

// TotalSupply returns the staged total supply.
func (tx *Tx) TotalSupply() (uint64, error) {
	return readUint(tx, keySupply)
}

// Allowance returns the staged allowance of spender over owner's funds.
func (tx *Tx) Allowance(owner, spender types.Address) (uint64, error) {
	return readUint(tx, allowanceKey(owner, spender))
}

func (tx *Tx) setBalance(addr types.Address, v uint64) {
	if v == 0 {
		tx.Delete(balanceKey(addr))
		return
	}
	tx.writes[string(balanceKey(addr))] = encodeUint(v)
}

// Debit removes amount from addr.
func (tx *Tx) Debit(addr types.Address, amount uint64) error {
	bal, err := tx.BalanceOf(addr)
	if err != nil {
		return err
	}
	if bal < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientBalance, addr, bal, amount)
	}
	tx.setBalance(addr, bal-amount)
	return nil
}

// Credit adds amount to addr.
func (tx *Tx) Credit(addr types.Address, amount uint64) error {
	bal, err := tx.BalanceOf(addr)
	if err != nil {
		return err
	}
	if bal+amount < bal {
		return fmt.Errorf("%w: balance of %s", ErrOverflow, addr)
	}
	tx.setBalance(addr, bal+amount)
	return nil
}

// Transfer moves amount between accounts. A zero from mints and a zero to
// burns, adjusting total supply.
func (tx *Tx) Transfer(from, to types.Address, amount uint64) error {
	switch {
	case from.IsZero() && to.IsZero():
		return errors.New("ledger transfer: both ends are the zero address")
	case from.IsZero():
		return tx.Mint(to, amount)
	case to.IsZero():
		return tx.Burn(from, amount)
	}
	if err := tx.Debit(from, amount); err != nil {
		return err
	}
	return tx.Credit(to, amount)
}

// Mint credits to and increases total supply.
func (tx *Tx) Mint(to types.Address, amount uint64) error {
	supply, err := tx.TotalSupply()
	if err != nil {
		return err
	}
	if supply+amount < supply {
		return fmt.Errorf("%w: total supply", ErrOverflow)
	}
	if err := tx.Credit(to, amount); err != nil {
		return err
	}
	tx.writes[string(keySupply)] = encodeUint(supply + amount)
	return nil
}

// Burn debits from and decreases total supply.
func (tx *Tx) Burn(from types.Address, amount uint64) error {
	if err := tx.Debit(from, amount); err != nil {
		return err
	}
	supply, err := tx.TotalSupply()
	if err != nil {
		return err
	}
	if supply < amount {
		return fmt.Errorf("ledger burn: supply %d below burned %d", supply, amount)
	}
	tx.writes[string(keySupply)] = encodeUint(supply - amount)
	return nil
}

// SetAllowance sets the allowance of spender over owner's funds.
func (tx *Tx) SetAllowance(owner, spender types.Address, amount uint64) {
	key := allowanceKey(owner, spender)
	if amount == 0 {
		tx.Delete(key)
		return
	}
	tx.writes[string(key)] = encodeUint(amount)
}

// SpendAllowance reduces the allowance by amount. The maximum uint64
// allowance is treated as unlimited and never decreases.
func (tx *Tx) SpendAllowance(owner, spender types.Address, amount uint64) error {
	cur, err := tx.Allowance(owner, spender)
	if err != nil {
		return err
	}
	if cur == ^uint64(0) {
		return nil
	}
	if cur < amount {
		return fmt.Errorf("%w: %s allows %s %d, needs %d", ErrInsufficientAllowance, owner, spender, cur, amount)
	}
	tx.SetAllowance(owner, spender, cur-amount)
	return nil
}

// Commit writes every staged change in one batch.
func (tx *Tx) Commit() error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	if len(tx.writes) == 0 {
		return nil
	}

	keys := make([]string, 0, len(tx.writes))
	for k := range tx.writes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	batch := storage.NewBatch(tx.db)
	for _, k := range keys {
		v := tx.writes[k]
		var err error
		if v == nil {
			err = batch.Delete([]byte(k))
		} else {
			err = batch.Put([]byte(k), v)
		}
		if err != nil {
			return fmt.Errorf("ledger commit: %w", err)
		}
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("ledger commit: %w", err)
	}
	log.Ledger.Trace().Int("keys", len(keys)).Msg("Batch committed")
	return nil
}

// Discard drops every staged change.
func (tx *Tx) Discard() {
	tx.done = true
	tx.writes = nil
}

// Pending returns the number of staged writes.
func (tx *Tx) Pending() int {
	return len(tx.writes)
}
