package policy

import (
	"math/bits"

	"github.com/Klingon-tech/feetoken/pkg/types"
)

// Kind classifies a request by its null endpoints.
type Kind int

const (
	KindTransfer Kind = iota
	KindMint
	KindBurn
)

func (k Kind) String() string {
	switch k {
	case KindMint:
		return "mint"
	case KindBurn:
		return "burn"
	default:
		return "transfer"
	}
}

// Request is a single logical value movement. A zero Sender is a mint and
// a zero Recipient is a burn.
type Request struct {
	Sender    types.Address `json:"sender"`
	Recipient types.Address `json:"recipient"`
	Amount    uint64        `json:"amount"`
}

// Kind returns whether the request is a transfer, mint or burn.
func (r Request) Kind() Kind {
	switch {
	case r.Sender.IsZero():
		return KindMint
	case r.Recipient.IsZero():
		return KindBurn
	default:
		return KindTransfer
	}
}

// Leg is one ledger sub-transfer.
type Leg struct {
	From   types.Address `json:"from"`
	To     types.Address `json:"to"`
	Amount uint64        `json:"amount"`
}

// Split is the gate's decision for an authorized request: the ordered
// legs the ledger must apply as one unit.
type Split struct {
	Request Request `json:"request"`
	Fee     uint64  `json:"fee"`
	Net     uint64  `json:"net"`
	Legs    []Leg   `json:"legs"`
}

// HasFee reports whether the split carries a fee leg.
func (s *Split) HasFee() bool {
	return len(s.Legs) == 2
}

// ComputeFee returns floor(amount * bp / 10000) and amount - fee. The
// product is computed in 128 bits, so it never overflows; truncation
// always favors net.
func ComputeFee(amount, bp uint64) (fee, net uint64) {
	if bp == 0 || amount == 0 {
		return 0, amount
	}
	if bp >= BasisPointsDenominator {
		return amount, 0
	}
	hi, lo := bits.Mul64(amount, bp)
	// hi < bp < denominator, so Div64 cannot overflow.
	fee, _ = bits.Div64(hi, lo, BasisPointsDenominator)
	return fee, amount - fee
}

// split computes the fee phase for a request that passed every pre-check.
func split(req Request, cfg *Config) *Split {
	full := &Split{
		Request: req,
		Net:     req.Amount,
		Legs:    []Leg{{From: req.Sender, To: req.Recipient, Amount: req.Amount}},
	}
	if req.Kind() != KindTransfer {
		return full
	}
	if cfg.TransferFeeBasisPoints == 0 ||
		req.Sender == cfg.FeeRecipient ||
		req.Recipient == cfg.FeeRecipient {
		return full
	}

	fee, net := ComputeFee(req.Amount, cfg.TransferFeeBasisPoints)
	if fee == 0 {
		// Small amounts floor to no fee; no zero-amount fee leg is emitted.
		return full
	}
	return &Split{
		Request: req,
		Fee:     fee,
		Net:     net,
		// Fee leg first: an underfunded sender fails on it.
		Legs: []Leg{
			{From: req.Sender, To: cfg.FeeRecipient, Amount: fee},
			{From: req.Sender, To: req.Recipient, Amount: net},
		},
	}
}
