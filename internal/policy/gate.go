// Package policy implements the transfer policy gate: the ordered
// pre-checks every value movement must pass and the fee split applied to
// ordinary transfers.
package policy

import (
	"fmt"

	"github.com/Klingon-tech/feetoken/internal/log"
	"github.com/Klingon-tech/feetoken/pkg/types"
)

// State is the read view the gate needs. It is usually a staged ledger
// transaction, so reads observe earlier legs of the same operation.
type State interface {
	BalanceOf(addr types.Address) (uint64, error)
	IsBlacklisted(addr types.Address) (bool, error)
}

// check is a single pre-check. It returns nil to let the request through.
type check struct {
	name string
	// kinds the check applies to; empty means all kinds
	kinds []Kind
	fn    func(req Request, cfg *Config, st State) error
}

func (c check) applies(k Kind) bool {
	if len(c.kinds) == 0 {
		return true
	}
	for _, kk := range c.kinds {
		if kk == k {
			return true
		}
	}
	return false
}

// Gate evaluates pre-checks in a fixed order; the first failure wins.
type Gate struct {
	checks []check
}

// NewGate returns a gate with the standard check order:
// paused, sender blacklist, recipient blacklist, max tx, max wallet.
func NewGate() *Gate {
	return &Gate{checks: []check{
		{name: "paused", fn: checkPaused},
		{name: "sender_blacklist", fn: checkSenderBlacklist},
		{name: "recipient_blacklist", fn: checkRecipientBlacklist},
		{name: "max_tx", kinds: []Kind{KindTransfer}, fn: checkMaxTx},
		{name: "max_wallet", kinds: []Kind{KindTransfer}, fn: checkMaxWallet},
	}}
}

// Authorize runs the pre-checks applicable to req without splitting.
func (g *Gate) Authorize(req Request, cfg *Config, st State) error {
	kind := req.Kind()
	for _, c := range g.checks {
		if !c.applies(kind) {
			continue
		}
		if err := c.fn(req, cfg, st); err != nil {
			log.Policy.Debug().
				Str("check", c.name).
				Str("kind", kind.String()).
				Str("sender", req.Sender.String()).
				Str("recipient", req.Recipient.String()).
				Uint64("amount", req.Amount).
				Err(err).
				Msg("Request rejected")
			return err
		}
	}
	return nil
}

// AuthorizeAndSplit runs the pre-checks and, on success, returns the legs
// the ledger must apply. Mints and burns are returned as a single leg.
func (g *Gate) AuthorizeAndSplit(req Request, cfg *Config, st State) (*Split, error) {
	if err := g.Authorize(req, cfg, st); err != nil {
		return nil, err
	}
	return split(req, cfg), nil
}

// AuthorizeMint checks the supply cap first and then pre-checks 1-3, so a
// mint over the cap fails with ErrCapExceeded even while paused. Landing
// exactly on the cap is allowed.
func (g *Gate) AuthorizeMint(req Request, cfg *Config, st State, totalSupply uint64) (*Split, error) {
	if req.Kind() != KindMint {
		return nil, fmt.Errorf("authorize mint: sender must be the zero address")
	}
	if req.Recipient.IsZero() {
		return nil, fmt.Errorf("mint recipient: %w", ErrZeroAddress)
	}
	if err := CheckCap(cfg.SupplyCap, totalSupply, req.Amount); err != nil {
		return nil, err
	}
	return g.AuthorizeAndSplit(req, cfg, st)
}

// CheckCap fails when a nonzero cap would be exceeded by minting amount.
func CheckCap(capacity, supply, amount uint64) error {
	if capacity == 0 {
		return nil
	}
	if supply > capacity || amount > capacity-supply {
		return fmt.Errorf("%w: supply %d + %d > cap %d", ErrCapExceeded, supply, amount, capacity)
	}
	return nil
}

func checkPaused(_ Request, cfg *Config, _ State) error {
	if cfg.Paused {
		return ErrPaused
	}
	return nil
}

func checkSenderBlacklist(req Request, _ *Config, st State) error {
	if req.Sender.IsZero() {
		return nil
	}
	bl, err := st.IsBlacklisted(req.Sender)
	if err != nil {
		return fmt.Errorf("read blacklist: %w", err)
	}
	if bl {
		return fmt.Errorf("%w: %s", ErrBlacklistedSender, req.Sender)
	}
	return nil
}

func checkRecipientBlacklist(req Request, _ *Config, st State) error {
	if req.Recipient.IsZero() {
		return nil
	}
	bl, err := st.IsBlacklisted(req.Recipient)
	if err != nil {
		return fmt.Errorf("read blacklist: %w", err)
	}
	if bl {
		return fmt.Errorf("%w: %s", ErrBlacklistedRecipient, req.Recipient)
	}
	return nil
}

func checkMaxTx(req Request, cfg *Config, _ State) error {
	if cfg.MaxTxAmount > 0 && req.Amount > cfg.MaxTxAmount {
		return fmt.Errorf("%w: %d > %d", ErrExceedsMaxTx, req.Amount, cfg.MaxTxAmount)
	}
	return nil
}

// checkMaxWallet uses the gross amount, before any fee deduction.
func checkMaxWallet(req Request, cfg *Config, st State) error {
	if cfg.MaxWalletBalance == 0 || req.Sender == req.Recipient {
		return nil
	}
	bal, err := st.BalanceOf(req.Recipient)
	if err != nil {
		return fmt.Errorf("read recipient balance: %w", err)
	}
	if bal > cfg.MaxWalletBalance || req.Amount > cfg.MaxWalletBalance-bal {
		return fmt.Errorf("%w: %d + %d > %d", ErrExceedsMaxWallet, bal, req.Amount, cfg.MaxWalletBalance)
	}
	return nil
}
