package token

import (
	"fmt"

	"github.com/Klingon-tech/feetoken/internal/events"
	"github.com/Klingon-tech/feetoken/internal/policy"
	"github.com/Klingon-tech/feetoken/pkg/types"
)

// Transfer moves amount from caller to `to`, less the transfer fee.
func (t *Token) Transfer(caller, to types.Address, amount uint64) (*Receipt, error) {
	return t.apply("transfer", func(op *operation) error {
		if caller.IsZero() {
			return fmt.Errorf("sender: %w", policy.ErrZeroAddress)
		}
		if to.IsZero() {
			return fmt.Errorf("recipient: %w", policy.ErrZeroAddress)
		}
		return op.move(policy.Request{Sender: caller, Recipient: to, Amount: amount})
	})
}

// Approve sets the amount spender may transfer on behalf of caller.
// Approvals are not gated by pause or blacklist.
func (t *Token) Approve(caller, spender types.Address, amount uint64) (*Receipt, error) {
	return t.apply("approve", func(op *operation) error {
		if caller.IsZero() {
			return fmt.Errorf("owner: %w", policy.ErrZeroAddress)
		}
		if spender.IsZero() {
			return fmt.Errorf("spender: %w", policy.ErrZeroAddress)
		}
		op.tx.SetAllowance(caller, spender, amount)
		op.emit(events.NewApproval(caller, spender, amount))
		return nil
	})
}

// TransferFrom moves amount from `from` to `to` on behalf of caller.
// The allowance is charged the gross amount, fee included.
func (t *Token) TransferFrom(caller, from, to types.Address, amount uint64) (*Receipt, error) {
	return t.apply("transfer_from", func(op *operation) error {
		if from.IsZero() {
			return fmt.Errorf("sender: %w", policy.ErrZeroAddress)
		}
		if to.IsZero() {
			return fmt.Errorf("recipient: %w", policy.ErrZeroAddress)
		}
		if err := op.tx.SpendAllowance(from, caller, amount); err != nil {
			return err
		}
		return op.move(policy.Request{Sender: from, Recipient: to, Amount: amount})
	})
}

// Burn destroys amount of caller's tokens. Burns pay no fee.
func (t *Token) Burn(caller types.Address, amount uint64) (*Receipt, error) {
	return t.apply("burn", func(op *operation) error {
		if caller.IsZero() {
			return fmt.Errorf("burner: %w", policy.ErrZeroAddress)
		}
		return op.move(policy.Request{Sender: caller, Amount: amount})
	})
}

// BurnFrom destroys amount of from's tokens, spending caller's allowance.
func (t *Token) BurnFrom(caller, from types.Address, amount uint64) (*Receipt, error) {
	return t.apply("burn_from", func(op *operation) error {
		if from.IsZero() {
			return fmt.Errorf("burner: %w", policy.ErrZeroAddress)
		}
		if err := op.tx.SpendAllowance(from, caller, amount); err != nil {
			return err
		}
		return op.move(policy.Request{Sender: from, Amount: amount})
	})
}
