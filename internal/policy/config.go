package policy

import (
	"fmt"

	"github.com/Klingon-tech/feetoken/pkg/types"
)

// Fee bounds, in basis points (10000 = 100%).
const (
	BasisPointsDenominator = 10_000

	// MaxTransferFeeBasisPoints bounds the runtime fee setter (20%).
	MaxTransferFeeBasisPoints = 2_000

	// MaxInitialFeeBasisPoints bounds the fee at deployment (10%). It is
	// deliberately stricter than the runtime bound.
	MaxInitialFeeBasisPoints = 1_000
)

// Config is the mutable policy configuration held by the token.
// Zero values of the limit fields mean "unlimited".
type Config struct {
	TransferFeeBasisPoints uint64        `json:"transfer_fee_bp"`
	FeeRecipient           types.Address `json:"fee_recipient"`
	MaxTxAmount            uint64        `json:"max_tx_amount"`
	MaxWalletBalance       uint64        `json:"max_wallet_balance"`
	SupplyCap              uint64        `json:"supply_cap"`
	Paused                 bool          `json:"paused"`
}

// Validate checks the invariants that must hold at all times.
func (c *Config) Validate() error {
	if c.TransferFeeBasisPoints > MaxTransferFeeBasisPoints {
		return fmt.Errorf("%w: %d bp > %d bp", ErrFeeTooHigh, c.TransferFeeBasisPoints, MaxTransferFeeBasisPoints)
	}
	if c.FeeRecipient.IsZero() {
		return fmt.Errorf("fee recipient: %w", ErrZeroAddress)
	}
	return nil
}

// ValidateInitial checks the deployment-time invariants, which cap the fee
// at MaxInitialFeeBasisPoints.
func (c *Config) ValidateInitial() error {
	if c.TransferFeeBasisPoints > MaxInitialFeeBasisPoints {
		return fmt.Errorf("%w: initial fee %d bp > %d bp", ErrFeeTooHigh, c.TransferFeeBasisPoints, MaxInitialFeeBasisPoints)
	}
	return c.Validate()
}
