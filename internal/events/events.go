// Package events defines the token's observable event log and the sinks
// events are published to after a successful commit.
package events

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/Klingon-tech/feetoken/pkg/crypto"
	"github.com/Klingon-tech/feetoken/pkg/types"
)

// Event names.
const (
	Transfer                = "Transfer"
	Approval                = "Approval"
	TransferFeeUpdated      = "TransferFeeUpdated"
	FeeRecipientUpdated     = "FeeRecipientUpdated"
	MaxTxAmountUpdated      = "MaxTxAmountUpdated"
	MaxWalletBalanceUpdated = "MaxWalletBalanceUpdated"
	SupplyCapUpdated        = "SupplyCapUpdated"
	BlacklistUpdated        = "BlacklistUpdated"
	Paused                  = "Paused"
	Unpaused                = "Unpaused"
	OwnershipTransferred    = "OwnershipTransferred"
	TokensRescued           = "TokensRescued"
)

// Event is one entry of the token's event log.
//
// Transfer and Approval use From, To and Amount. Configuration events use
// OldValue and NewValue (decimal numbers, hex addresses or booleans) and
// set Account when the change concerns a single account.
type Event struct {
	Seq      uint64         `json:"seq"`
	ID       types.Hash     `json:"id"`
	Name     string         `json:"event"`
	From     *types.Address `json:"from,omitempty"`
	To       *types.Address `json:"to,omitempty"`
	Amount   uint64         `json:"amount"`
	Account  *types.Address `json:"account,omitempty"`
	OldValue string         `json:"old_value,omitempty"`
	NewValue string         `json:"new_value,omitempty"`
}

// NewTransfer returns a Transfer event. A zero from is a mint and a zero
// to is a burn.
func NewTransfer(from, to types.Address, amount uint64) Event {
	return Event{Name: Transfer, From: addrPtr(from), To: addrPtr(to), Amount: amount}
}

// NewApproval returns an Approval event.
func NewApproval(owner, spender types.Address, amount uint64) Event {
	return Event{Name: Approval, From: addrPtr(owner), To: addrPtr(spender), Amount: amount}
}

// NewUpdate returns a configuration change event.
func NewUpdate(name string, oldValue, newValue any) Event {
	return Event{Name: name, OldValue: fmt.Sprint(oldValue), NewValue: fmt.Sprint(newValue)}
}

// NewAccountUpdate returns a configuration change event about one account.
func NewAccountUpdate(name string, account types.Address, oldValue, newValue any) Event {
	ev := NewUpdate(name, oldValue, newValue)
	ev.Account = addrPtr(account)
	return ev
}

// Seal assigns the sequence number and the content-derived ID.
// The ID is BLAKE3(contract || seq || canonical JSON without the ID).
func (e *Event) Seal(contract types.Address, seq uint64) error {
	e.Seq = seq
	e.ID = types.Hash{}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("event marshal: %w", err)
	}
	var seqBuf [8]byte
	binary.BigEndian.PutUint64(seqBuf[:], seq)
	e.ID = crypto.HashParts(contract[:], seqBuf[:], payload)
	return nil
}

// Verify reports whether the event's ID matches its content. The ID is
// unkeyed, so this catches corruption only; gossip authenticity comes from
// the publisher signature.
func (e Event) Verify(contract types.Address) bool {
	want := e.ID
	if err := e.Seal(contract, e.Seq); err != nil {
		return false
	}
	return e.ID == want
}

// IsMint reports whether e is a Transfer from the zero address.
func (e Event) IsMint() bool {
	return e.Name == Transfer && e.From != nil && e.From.IsZero()
}

// IsBurn reports whether e is a Transfer to the zero address.
func (e Event) IsBurn() bool {
	return e.Name == Transfer && e.To != nil && e.To.IsZero()
}

func addrPtr(a types.Address) *types.Address {
	return &a
}
