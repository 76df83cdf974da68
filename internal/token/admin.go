package token

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/feetoken/internal/events"
	"github.com/Klingon-tech/feetoken/internal/policy"
	"github.com/Klingon-tech/feetoken/pkg/types"
)

// Pause state errors.
var (
	ErrAlreadyPaused = errors.New("token already paused")
	ErrNotPaused     = errors.New("token not paused")
)

// Owner-only operations. Each fails with policy.ErrUnauthorized for any
// caller other than the current owner.

// Mint creates amount new tokens for `to`, subject to the supply cap.
func (t *Token) Mint(caller, to types.Address, amount uint64) (*Receipt, error) {
	return t.apply("mint", func(op *operation) error {
		if err := op.requireOwner(caller); err != nil {
			return err
		}
		if to.IsZero() {
			return fmt.Errorf("mint recipient: %w", policy.ErrZeroAddress)
		}
		return op.mint(to, amount)
	})
}

// SetTransferFee sets the transfer fee in basis points (at most 2000).
func (t *Token) SetTransferFee(caller types.Address, bp uint64) (*Receipt, error) {
	return t.apply("set_transfer_fee", func(op *operation) error {
		if err := op.requireOwner(caller); err != nil {
			return err
		}
		if bp > policy.MaxTransferFeeBasisPoints {
			return fmt.Errorf("%w: %d bp > %d bp", policy.ErrFeeTooHigh, bp, policy.MaxTransferFeeBasisPoints)
		}
		old := op.cfg.TransferFeeBasisPoints
		op.cfg.TransferFeeBasisPoints = bp
		op.cfgDirty = true
		op.emit(events.NewUpdate(events.TransferFeeUpdated, old, bp))
		return nil
	})
}

// SetFeeRecipient sets the account that receives transfer fees.
func (t *Token) SetFeeRecipient(caller, recipient types.Address) (*Receipt, error) {
	return t.apply("set_fee_recipient", func(op *operation) error {
		if err := op.requireOwner(caller); err != nil {
			return err
		}
		if recipient.IsZero() {
			return fmt.Errorf("fee recipient: %w", policy.ErrZeroAddress)
		}
		old := op.cfg.FeeRecipient
		op.cfg.FeeRecipient = recipient
		op.cfgDirty = true
		op.emit(events.NewUpdate(events.FeeRecipientUpdated, old, recipient))
		return nil
	})
}

// SetMaxTxAmount sets the per-transfer cap. Zero disables it.
func (t *Token) SetMaxTxAmount(caller types.Address, amount uint64) (*Receipt, error) {
	return t.apply("set_max_tx_amount", func(op *operation) error {
		if err := op.requireOwner(caller); err != nil {
			return err
		}
		old := op.cfg.MaxTxAmount
		op.cfg.MaxTxAmount = amount
		op.cfgDirty = true
		op.emit(events.NewUpdate(events.MaxTxAmountUpdated, old, amount))
		return nil
	})
}

// SetMaxWalletBalance sets the per-wallet balance cap. Zero disables it.
// Existing balances above a new cap are not touched.
func (t *Token) SetMaxWalletBalance(caller types.Address, amount uint64) (*Receipt, error) {
	return t.apply("set_max_wallet_balance", func(op *operation) error {
		if err := op.requireOwner(caller); err != nil {
			return err
		}
		old := op.cfg.MaxWalletBalance
		op.cfg.MaxWalletBalance = amount
		op.cfgDirty = true
		op.emit(events.NewUpdate(events.MaxWalletBalanceUpdated, old, amount))
		return nil
	})
}

// SetSupplyCap sets the supply cap. Zero removes it; a nonzero cap below
// the current supply is rejected.
func (t *Token) SetSupplyCap(caller types.Address, capacity uint64) (*Receipt, error) {
	return t.apply("set_supply_cap", func(op *operation) error {
		if err := op.requireOwner(caller); err != nil {
			return err
		}
		supply, err := op.tx.TotalSupply()
		if err != nil {
			return err
		}
		if capacity != 0 && capacity < supply {
			return fmt.Errorf("%w: cap %d below supply %d", policy.ErrCapExceeded, capacity, supply)
		}
		old := op.cfg.SupplyCap
		op.cfg.SupplyCap = capacity
		op.cfgDirty = true
		op.emit(events.NewUpdate(events.SupplyCapUpdated, old, capacity))
		return nil
	})
}

// SetBlacklist adds account to, or removes it from, the blacklist.
func (t *Token) SetBlacklist(caller, account types.Address, listed bool) (*Receipt, error) {
	return t.apply("set_blacklist", func(op *operation) error {
		if err := op.requireOwner(caller); err != nil {
			return err
		}
		if account.IsZero() {
			return fmt.Errorf("blacklist account: %w", policy.ErrZeroAddress)
		}
		old, err := isBlacklisted(op.tx, account)
		if err != nil {
			return err
		}
		setBlacklisted(op.tx, account, listed)
		op.emit(events.NewAccountUpdate(events.BlacklistUpdated, account, old, listed))
		return nil
	})
}

// Pause halts every value movement, mints and burns included.
func (t *Token) Pause(caller types.Address) (*Receipt, error) {
	return t.apply("pause", func(op *operation) error {
		if err := op.requireOwner(caller); err != nil {
			return err
		}
		if op.cfg.Paused {
			return ErrAlreadyPaused
		}
		op.cfg.Paused = true
		op.cfgDirty = true
		op.emit(events.NewAccountUpdate(events.Paused, caller, false, true))
		return nil
	})
}

// Unpause resumes value movements.
func (t *Token) Unpause(caller types.Address) (*Receipt, error) {
	return t.apply("unpause", func(op *operation) error {
		if err := op.requireOwner(caller); err != nil {
			return err
		}
		if !op.cfg.Paused {
			return ErrNotPaused
		}
		op.cfg.Paused = false
		op.cfgDirty = true
		op.emit(events.NewAccountUpdate(events.Unpaused, caller, true, false))
		return nil
	})
}

// TransferOwnership hands every owner privilege to newOwner.
func (t *Token) TransferOwnership(caller, newOwner types.Address) (*Receipt, error) {
	return t.apply("transfer_ownership", func(op *operation) error {
		if err := op.requireOwner(caller); err != nil {
			return err
		}
		if newOwner.IsZero() {
			return fmt.Errorf("new owner: %w", policy.ErrZeroAddress)
		}
		op.emit(events.Event{
			Name: events.OwnershipTransferred,
			From: ptr(op.meta.Owner),
			To:   ptr(newOwner),
		})
		op.meta.Owner = newOwner
		op.metaDirty = true
		return nil
	})
}

// RenounceOwnership leaves the token without an owner. Every owner-only
// operation fails afterwards, and the configuration is frozen.
func (t *Token) RenounceOwnership(caller types.Address) (*Receipt, error) {
	return t.apply("renounce_ownership", func(op *operation) error {
		if err := op.requireOwner(caller); err != nil {
			return err
		}
		op.emit(events.Event{
			Name: events.OwnershipTransferred,
			From: ptr(op.meta.Owner),
			To:   ptr(types.ZeroAddress),
		})
		op.meta.Owner = types.ZeroAddress
		op.metaDirty = true
		return nil
	})
}

// RescueTokens moves tokens that were sent to the token's own address out
// to `to`. The movement goes through the gate like any other transfer.
func (t *Token) RescueTokens(caller, to types.Address, amount uint64) (*Receipt, error) {
	return t.apply("rescue_tokens", func(op *operation) error {
		if err := op.requireOwner(caller); err != nil {
			return err
		}
		if to.IsZero() {
			return fmt.Errorf("rescue recipient: %w", policy.ErrZeroAddress)
		}
		req := policy.Request{Sender: op.meta.Contract, Recipient: to, Amount: amount}
		if err := op.move(req); err != nil {
			return err
		}
		op.emit(events.Event{
			Name:    events.TokensRescued,
			Account: ptr(to),
			Amount:  amount,
		})
		return nil
	})
}
