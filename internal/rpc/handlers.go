package rpc

import (
	"time"

	"github.com/Klingon-tech/feetoken/internal/events"
	"github.com/Klingon-tech/feetoken/internal/p2p"
	"github.com/Klingon-tech/feetoken/internal/policy"
	"github.com/Klingon-tech/feetoken/pkg/types"
)

const (
	defaultEventsLimit = 100
	maxEventsLimit     = 1000
)

// ── token_* reads ───────────────────────────────────────────────────────

func (s *Server) handleGetInfo(_ *Request) (interface{}, *Error) {
	meta := s.token.Metadata()
	supply, err := s.token.TotalSupply()
	if err != nil {
		return nil, toRPCError(err)
	}
	return &InfoResult{
		Name:         meta.Name,
		Symbol:       meta.Symbol,
		Decimals:     meta.Decimals,
		Owner:        meta.Owner,
		Contract:     meta.Contract,
		TotalSupply:  supply,
		Policy:       s.token.Policy(),
		LastEventSeq: s.token.LastEventSeq(),
	}, nil
}

func (s *Server) handleBalanceOf(req *Request) (interface{}, *Error) {
	var p AddressParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	bal, err := s.token.BalanceOf(p.Address)
	if err != nil {
		return nil, toRPCError(err)
	}
	return &BalanceResult{Address: p.Address, Balance: bal}, nil
}

func (s *Server) handleAllowance(req *Request) (interface{}, *Error) {
	var p AllowanceParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	amt, err := s.token.Allowance(p.Owner, p.Spender)
	if err != nil {
		return nil, toRPCError(err)
	}
	return &AllowanceResult{Owner: p.Owner, Spender: p.Spender, Allowance: amt}, nil
}

func (s *Server) handleGetPolicy(_ *Request) (interface{}, *Error) {
	cfg := s.token.Policy()
	return &cfg, nil
}

func (s *Server) handleIsBlacklisted(req *Request) (interface{}, *Error) {
	var p AddressParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	listed, err := s.token.IsBlacklisted(p.Address)
	if err != nil {
		return nil, toRPCError(err)
	}
	return &BlacklistedResult{Address: p.Address, Blacklisted: listed}, nil
}

func (s *Server) handleGetBlacklist(_ *Request) (interface{}, *Error) {
	list, err := s.token.Blacklist()
	if err != nil {
		return nil, toRPCError(err)
	}
	res := &BlacklistResult{Accounts: list}
	if res.Accounts == nil {
		res.Accounts = []types.Address{}
	}
	return res, nil
}

func (s *Server) handleGetHolders(_ *Request) (interface{}, *Error) {
	holders, err := s.token.Holders()
	if err != nil {
		return nil, toRPCError(err)
	}
	out := make([]HolderEntry, 0, len(holders))
	for _, h := range holders {
		out = append(out, HolderEntry{Address: h.Address, Balance: h.Balance})
	}
	return out, nil
}

// handlePreviewTransfer runs the gate without touching state. A rejection
// is returned as the same error the real operation would produce.
func (s *Server) handlePreviewTransfer(req *Request) (interface{}, *Error) {
	var p PreviewParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	split, err := s.token.Preview(policy.Request{Sender: p.From, Recipient: p.To, Amount: p.Amount})
	if err != nil {
		return nil, toRPCError(err)
	}
	return split, nil
}

func (s *Server) handleGetEvents(req *Request) (interface{}, *Error) {
	var p EventsParam
	if len(req.Params) > 0 && string(req.Params) != "null" {
		if err := parseParams(req, &p); err != nil {
			return nil, err
		}
	}
	switch {
	case p.Limit <= 0:
		p.Limit = defaultEventsLimit
	case p.Limit > maxEventsLimit:
		p.Limit = maxEventsLimit
	}
	evs, err := s.token.Events(p.From, p.Limit)
	if err != nil {
		return nil, toRPCError(err)
	}
	res := &EventsResult{Events: evs, LastSeq: s.token.LastEventSeq()}
	if res.Events == nil {
		res.Events = []events.Event{}
	}
	return res, nil
}

// ── auth_* ──────────────────────────────────────────────────────────────

func (s *Server) handleGetNonce(req *Request) (interface{}, *Error) {
	var p AddressParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	last, err := s.auth.LastNonce(p.Address)
	if err != nil {
		return nil, toRPCError(err)
	}
	return &NonceResult{Address: p.Address, LastNonce: last, Next: last + 1}, nil
}

// ── net_* ───────────────────────────────────────────────────────────────

func (s *Server) handleNetGetPeerInfo(_ *Request) (interface{}, *Error) {
	if s.p2pNode == nil {
		return &PeerInfoResult{Count: 0, Peers: []PeerInfo{}}, nil
	}
	peers := s.p2pNode.PeerList()
	infos := make([]PeerInfo, len(peers))
	for i, p := range peers {
		infos[i] = peerInfo(p)
	}
	return &PeerInfoResult{Count: len(infos), Peers: infos}, nil
}

func peerInfo(p p2p.Peer) PeerInfo {
	return PeerInfo{
		ID:          p.ID.String(),
		ConnectedAt: p.ConnectedAt.UTC().Format(time.RFC3339),
		Source:      p.Source,
	}
}

func (s *Server) handleNetGetNodeInfo(_ *Request) (interface{}, *Error) {
	if s.p2pNode == nil {
		return nil, &Error{Code: CodeNotFound, Message: "p2p disabled"}
	}
	return &NodeInfoResult{
		ID:        s.p2pNode.ID().String(),
		Addrs:     s.p2pNode.Addrs(),
		Topic:     p2p.EventsTopic(s.token.Address()),
		Publisher: s.p2pNode.PublisherKey(),
	}, nil
}

func (s *Server) handleNetGetBanList(_ *Request) (interface{}, *Error) {
	if s.p2pNode == nil || s.p2pNode.Bans == nil {
		return &BanListResult{Count: 0, Bans: []BanEntry{}}, nil
	}
	recs := s.p2pNode.Bans.BanList()
	bans := make([]BanEntry, len(recs))
	for i, r := range recs {
		bans[i] = BanEntry{
			ID:        r.ID,
			Reason:    r.Reason,
			Score:     r.Score,
			BannedAt:  r.BannedAt,
			ExpiresAt: r.ExpiresAt,
		}
	}
	return &BanListResult{Count: len(bans), Bans: bans}, nil
}
