package token

import (
	"errors"

	"github.com/Klingon-tech/feetoken/internal/events"
	"github.com/Klingon-tech/feetoken/internal/ledger"
	"github.com/Klingon-tech/feetoken/internal/log"
	"github.com/Klingon-tech/feetoken/internal/policy"
	"github.com/Klingon-tech/feetoken/pkg/types"
)

// Receipt describes a committed operation.
type Receipt struct {
	Op     string          `json:"op"`
	Splits []*policy.Split `json:"splits,omitempty"`
	Events []events.Event  `json:"events"`
}

// gateState exposes a staged ledger transaction to the policy gate.
type gateState struct {
	tx *ledger.Tx
}

func (s *gateState) BalanceOf(addr types.Address) (uint64, error) {
	return s.tx.BalanceOf(addr)
}

func (s *gateState) IsBlacklisted(addr types.Address) (bool, error) {
	return isBlacklisted(s.tx, addr)
}

// operation is the staging area for one token operation.
type operation struct {
	t  *Token
	tx *ledger.Tx

	meta      Metadata
	cfg       policy.Config
	metaDirty bool
	cfgDirty  bool

	splits []*policy.Split
	events []events.Event
}

func (op *operation) state() *gateState {
	return &gateState{tx: op.tx}
}

func (op *operation) emit(ev events.Event) {
	op.events = append(op.events, ev)
}

func (op *operation) requireOwner(caller types.Address) error {
	if op.meta.Owner.IsZero() || caller != op.meta.Owner {
		return policy.ErrUnauthorized
	}
	return nil
}

// move authorizes req through the gate and applies its legs.
func (op *operation) move(req policy.Request) error {
	split, err := op.t.gate.AuthorizeAndSplit(req, &op.cfg, op.state())
	if err != nil {
		return err
	}
	return op.applySplit(split)
}

// mint checks the supply cap and the mint pre-checks, then credits to.
func (op *operation) mint(to types.Address, amount uint64) error {
	supply, err := op.tx.TotalSupply()
	if err != nil {
		return err
	}
	req := policy.Request{Recipient: to, Amount: amount}
	split, err := op.t.gate.AuthorizeMint(req, &op.cfg, op.state(), supply)
	if err != nil {
		return err
	}
	return op.applySplit(split)
}

func (op *operation) applySplit(split *policy.Split) error {
	for _, leg := range split.Legs {
		if err := op.tx.Transfer(leg.From, leg.To, leg.Amount); err != nil {
			return err
		}
		op.emit(events.NewTransfer(leg.From, leg.To, leg.Amount))
	}
	op.splits = append(op.splits, split)
	return nil
}

// apply runs fn against a fresh staging area and commits everything it
// staged in one batch. On any error nothing is written and no event is
// published.
func (t *Token) apply(name string, fn func(op *operation) error) (*Receipt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	op := &operation{
		t:    t,
		tx:   t.ledger.Begin(),
		meta: t.meta,
		cfg:  t.cfg,
	}
	if err := fn(op); err != nil {
		op.tx.Discard()
		t.rejected(name, err)
		return nil, err
	}
	if err := t.commit(op); err != nil {
		t.rejected(name, err)
		return nil, err
	}

	if t.observer != nil {
		for _, s := range op.splits {
			t.observer.Applied(name, s)
		}
	}
	for _, ev := range op.events {
		t.sink.Publish(ev)
	}
	return &Receipt{Op: name, Splits: op.splits, Events: op.events}, nil
}

func (t *Token) commit(op *operation) error {
	defer log.Benchmark("token commit")()
	if op.metaDirty {
		if err := putMetadata(op.tx, &op.meta); err != nil {
			op.tx.Discard()
			return err
		}
	}
	if op.cfgDirty {
		if err := putPolicy(op.tx, &op.cfg); err != nil {
			op.tx.Discard()
			return err
		}
	}
	seq := t.lastSeq
	for i := range op.events {
		seq++
		if err := op.events[i].Seal(op.meta.Contract, seq); err != nil {
			op.tx.Discard()
			return err
		}
		if err := putEvent(op.tx, &op.events[i]); err != nil {
			op.tx.Discard()
			return err
		}
	}
	if err := op.tx.Commit(); err != nil {
		return err
	}

	t.meta = op.meta
	t.cfg = op.cfg
	t.lastSeq = seq
	return nil
}

func (t *Token) rejected(name string, err error) {
	if t.observer != nil {
		t.observer.Rejected(name, err)
	}
	ev := t.logger.Debug()
	if !policy.IsRejection(err) && !errors.Is(err, ledger.ErrInsufficientBalance) &&
		!errors.Is(err, ledger.ErrInsufficientAllowance) {
		ev = t.logger.Warn()
	}
	ev.Str("op", name).
		Str("reason", policy.Reason(err)).
		Err(err).
		Msg("Operation rejected")
}
