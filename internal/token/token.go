// Package token implements a fee-on-transfer fungible token.
//
// Every value movement (transfer, mint, burn) passes through the policy
// gate. An operation's balance changes, configuration changes and events
// are staged in one ledger transaction and committed together; events
// reach the sink only after the commit succeeds.
package token

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/feetoken/internal/events"
	"github.com/Klingon-tech/feetoken/internal/ledger"
	"github.com/Klingon-tech/feetoken/internal/log"
	"github.com/Klingon-tech/feetoken/internal/policy"
	"github.com/Klingon-tech/feetoken/internal/storage"
	"github.com/Klingon-tech/feetoken/pkg/crypto"
	"github.com/Klingon-tech/feetoken/pkg/types"
)

// Deployment errors.
var (
	ErrAlreadyDeployed = errors.New("token already deployed in this database")
	ErrNotDeployed     = errors.New("no token deployed in this database")
	ErrInvalidParams   = errors.New("invalid token parameters")
)

// Metadata holds descriptive information about the token.
type Metadata struct {
	Name     string        `json:"name"`
	Symbol   string        `json:"symbol"`
	Decimals uint8         `json:"decimals"`
	Owner    types.Address `json:"owner"`
	Contract types.Address `json:"contract"`
}

// Params are the deployment-time parameters.
type Params struct {
	Name                   string
	Symbol                 string
	Decimals               uint8
	Owner                  types.Address
	InitialSupply          uint64
	FeeRecipient           types.Address
	TransferFeeBasisPoints uint64
	SupplyCap              uint64
	MaxTxAmount            uint64
	MaxWalletBalance       uint64
}

// Validate checks the deployment invariants.
func (p *Params) Validate() error {
	if p.Name == "" || p.Symbol == "" {
		return fmt.Errorf("%w: name and symbol are required", ErrInvalidParams)
	}
	if p.Owner.IsZero() {
		return fmt.Errorf("owner: %w", policy.ErrZeroAddress)
	}
	cfg := p.policy()
	if err := cfg.ValidateInitial(); err != nil {
		return err
	}
	if err := policy.CheckCap(p.SupplyCap, 0, p.InitialSupply); err != nil {
		return fmt.Errorf("initial supply: %w", err)
	}
	return nil
}

func (p *Params) policy() policy.Config {
	return policy.Config{
		TransferFeeBasisPoints: p.TransferFeeBasisPoints,
		FeeRecipient:           p.FeeRecipient,
		MaxTxAmount:            p.MaxTxAmount,
		MaxWalletBalance:       p.MaxWalletBalance,
		SupplyCap:              p.SupplyCap,
	}
}

// Observer receives operation outcomes, for instrumentation.
type Observer interface {
	// Applied is called once per committed value movement.
	Applied(op string, split *policy.Split)
	// Rejected is called when an operation fails.
	Rejected(op string, err error)
}

// Option configures a Token.
type Option func(*Token)

// WithObserver sets the operation observer.
func WithObserver(o Observer) Option {
	return func(t *Token) { t.observer = o }
}

// Token is the fee-on-transfer token. It is safe for concurrent use;
// mutating operations are serialized.
type Token struct {
	mu sync.RWMutex

	db     storage.DB
	store  *Store
	ledger *ledger.Ledger
	gate   *policy.Gate

	meta    Metadata
	cfg     policy.Config
	lastSeq uint64

	sink     events.Sink
	observer Observer
	logger   zerolog.Logger
}

func newToken(db storage.DB, sink events.Sink, opts []Option) *Token {
	if sink == nil {
		sink = events.Discard
	}
	t := &Token{
		db:     db,
		store:  NewStore(db),
		ledger: ledger.New(db),
		gate:   policy.NewGate(),
		sink:   sink,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// New deploys a token into db. The initial supply is minted to the owner.
func New(db storage.DB, p Params, sink events.Sink, opts ...Option) (*Token, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	t := newToken(db, sink, opts)

	deployed, err := t.store.Deployed()
	if err != nil {
		return nil, fmt.Errorf("check deployment: %w", err)
	}
	if deployed {
		return nil, ErrAlreadyDeployed
	}

	t.meta = Metadata{
		Name:     p.Name,
		Symbol:   p.Symbol,
		Decimals: p.Decimals,
		Owner:    p.Owner,
		Contract: crypto.ContractAddress(p.Name, p.Symbol, p.Owner),
	}
	t.cfg = p.policy()
	t.logger = log.WithContract("token", t.meta.Contract.String())

	_, err = t.apply("deploy", func(op *operation) error {
		op.metaDirty = true
		op.cfgDirty = true
		op.emit(events.Event{
			Name: events.OwnershipTransferred,
			From: ptr(types.ZeroAddress),
			To:   ptr(p.Owner),
		})
		if p.InitialSupply == 0 {
			return nil
		}
		return op.mint(p.Owner, p.InitialSupply)
	})
	if err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}

	t.logger.Info().
		Str("name", p.Name).
		Str("symbol", p.Symbol).
		Str("owner", p.Owner.String()).
		Uint64("initial_supply", p.InitialSupply).
		Uint64("fee_bp", p.TransferFeeBasisPoints).
		Msg("Token deployed")
	return t, nil
}

// Open loads a previously deployed token from db.
func Open(db storage.DB, sink events.Sink, opts ...Option) (*Token, error) {
	t := newToken(db, sink, opts)

	deployed, err := t.store.Deployed()
	if err != nil {
		return nil, fmt.Errorf("check deployment: %w", err)
	}
	if !deployed {
		return nil, ErrNotDeployed
	}
	meta, err := t.store.Metadata()
	if err != nil {
		return nil, err
	}
	cfg, err := t.store.Policy()
	if err != nil {
		return nil, err
	}
	seq, err := t.store.LastSeq()
	if err != nil {
		return nil, err
	}
	t.meta = *meta
	t.cfg = *cfg
	t.lastSeq = seq
	t.logger = log.WithContract("token", t.meta.Contract.String())

	t.logger.Info().
		Str("symbol", meta.Symbol).
		Uint64("last_event", seq).
		Msg("Token opened")
	return t, nil
}

// Name returns the token name.
func (t *Token) Name() string { return t.metadata().Name }

// Symbol returns the token symbol.
func (t *Token) Symbol() string { return t.metadata().Symbol }

// Decimals returns the number of display decimals.
func (t *Token) Decimals() uint8 { return t.metadata().Decimals }

// Owner returns the current owner. A zero owner means ownership was renounced.
func (t *Token) Owner() types.Address { return t.metadata().Owner }

// Address returns the token's own contract address.
func (t *Token) Address() types.Address { return t.metadata().Contract }

// Metadata returns a copy of the token metadata.
func (t *Token) Metadata() Metadata { return t.metadata() }

func (t *Token) metadata() Metadata {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.meta
}

// Policy returns a copy of the current policy configuration.
func (t *Token) Policy() policy.Config {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cfg
}

// BalanceOf returns the committed balance of addr.
func (t *Token) BalanceOf(addr types.Address) (uint64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ledger.BalanceOf(addr)
}

// TotalSupply returns the committed total supply.
func (t *Token) TotalSupply() (uint64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ledger.TotalSupply()
}

// Allowance returns how much spender may transfer on behalf of owner.
func (t *Token) Allowance(owner, spender types.Address) (uint64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ledger.Allowance(owner, spender)
}

// IsBlacklisted reports whether addr is blacklisted.
func (t *Token) IsBlacklisted(addr types.Address) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.store.IsBlacklisted(addr)
}

// Blacklist returns every blacklisted address.
func (t *Token) Blacklist() ([]types.Address, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.store.Blacklist()
}

// Holders returns every account with a non-zero balance.
func (t *Token) Holders() ([]ledger.Holder, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ledger.Holders()
}

// Events pages the event journal: up to limit events with seq >= from.
func (t *Token) Events(from uint64, limit int) ([]events.Event, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.store.Events(from, limit)
}

// LastEventSeq returns the sequence number of the newest event.
func (t *Token) LastEventSeq() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastSeq
}

// Preview runs the gate against committed state without applying anything.
func (t *Token) Preview(req policy.Request) (*policy.Split, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tx := t.ledger.Begin()
	defer tx.Discard()
	cfg := t.cfg
	st := &gateState{tx: tx}
	if req.Kind() == policy.KindMint {
		supply, err := tx.TotalSupply()
		if err != nil {
			return nil, err
		}
		return t.gate.AuthorizeMint(req, &cfg, st, supply)
	}
	return t.gate.AuthorizeAndSplit(req, &cfg, st)
}

func ptr(a types.Address) *types.Address {
	return &a
}
