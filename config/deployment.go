package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Klingon-tech/feetoken/internal/token"
	"github.com/Klingon-tech/feetoken/pkg/types"
)

// Deployment is the on-disk description of a token deployment. It is only
// read when the node finds no deployed token in its database; afterwards
// the stored state is authoritative and policy changes go through the
// admin operations.
type Deployment struct {
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Decimals      uint8  `json:"decimals"`
	Owner         string `json:"owner"`
	InitialSupply uint64 `json:"initial_supply"`

	FeeRecipient           string `json:"fee_recipient"`
	TransferFeeBasisPoints uint64 `json:"transfer_fee_bp"`
	SupplyCap              uint64 `json:"supply_cap,omitempty"`         // 0 = uncapped
	MaxTxAmount            uint64 `json:"max_tx_amount,omitempty"`      // 0 = unlimited
	MaxWalletBalance       uint64 `json:"max_wallet_balance,omitempty"` // 0 = unlimited
}

// LoadDeployment reads a deployment file.
func LoadDeployment(path string) (*Deployment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deployment: %w", err)
	}
	var d Deployment
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse deployment %s: %w", path, err)
	}
	return &d, nil
}

// Save writes d as indented JSON.
func (d *Deployment) Save(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Params converts d into token deployment parameters. An empty fee
// recipient defaults to the owner.
func (d *Deployment) Params() (token.Params, error) {
	owner, err := types.ParseAddress(d.Owner)
	if err != nil {
		return token.Params{}, fmt.Errorf("owner: %w", err)
	}
	recipient := owner
	if d.FeeRecipient != "" {
		if recipient, err = types.ParseAddress(d.FeeRecipient); err != nil {
			return token.Params{}, fmt.Errorf("fee_recipient: %w", err)
		}
	}
	return token.Params{
		Name:                   d.Name,
		Symbol:                 d.Symbol,
		Decimals:               d.Decimals,
		Owner:                  owner,
		InitialSupply:          d.InitialSupply,
		FeeRecipient:           recipient,
		TransferFeeBasisPoints: d.TransferFeeBasisPoints,
		SupplyCap:              d.SupplyCap,
		MaxTxAmount:            d.MaxTxAmount,
		MaxWalletBalance:       d.MaxWalletBalance,
	}, nil
}

// Validate checks d against the token's deployment rules.
func (d *Deployment) Validate() error {
	p, err := d.Params()
	if err != nil {
		return err
	}
	return p.Validate()
}
