package rpc

import (
	"encoding/json"

	"github.com/Klingon-tech/feetoken/internal/events"
	"github.com/Klingon-tech/feetoken/internal/policy"
	"github.com/Klingon-tech/feetoken/pkg/types"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000

	// CodePolicyRejected marks a transfer policy rejection; data.reason
	// carries the stable reason code.
	CodePolicyRejected = -32010
	// CodeLedgerRejected marks a balance, allowance or state conflict.
	CodeLedgerRejected = -32011
	// CodeUnauthenticated marks a bad signature, key or nonce.
	CodeUnauthenticated = -32012
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// ErrorData is the data member of rejection errors.
type ErrorData struct {
	Reason string `json:"reason"`
}

// ── Read params ─────────────────────────────────────────────────────────

// AddressParam is used by endpoints that take a single address.
type AddressParam struct {
	Address types.Address `json:"address"`
}

// AllowanceParam identifies an allowance.
type AllowanceParam struct {
	Owner   types.Address `json:"owner"`
	Spender types.Address `json:"spender"`
}

// PreviewParam is a dry-run movement. A zero from is a mint and a zero to
// is a burn.
type PreviewParam struct {
	From   types.Address `json:"from"`
	To     types.Address `json:"to"`
	Amount uint64        `json:"amount"`
}

// EventsParam pages the event journal starting at sequence From.
type EventsParam struct {
	From  uint64 `json:"from"`
	Limit int    `json:"limit,omitempty"`
}

// ── Command params (carried inside a signed command) ────────────────────

// TransferParams is token_transfer.
type TransferParams struct {
	To     types.Address `json:"to"`
	Amount uint64        `json:"amount"`
}

// ApproveParams is token_approve.
type ApproveParams struct {
	Spender types.Address `json:"spender"`
	Amount  uint64        `json:"amount"`
}

// TransferFromParams is token_transferFrom.
type TransferFromParams struct {
	From   types.Address `json:"from"`
	To     types.Address `json:"to"`
	Amount uint64        `json:"amount"`
}

// BurnParams is token_burn. With From set the burn spends the caller's
// allowance over From's tokens.
type BurnParams struct {
	From   *types.Address `json:"from,omitempty"`
	Amount uint64         `json:"amount"`
}

// MintParams is token_mint and admin_rescueTokens.
type MintParams struct {
	To     types.Address `json:"to"`
	Amount uint64        `json:"amount"`
}

// FeeParams is admin_setTransferFee.
type FeeParams struct {
	BasisPoints uint64 `json:"basis_points"`
}

// AccountParams is admin_setFeeRecipient and admin_transferOwnership.
type AccountParams struct {
	Account types.Address `json:"account"`
}

// AmountParams is admin_setMaxTxAmount, admin_setMaxWalletBalance and
// admin_setSupplyCap.
type AmountParams struct {
	Amount uint64 `json:"amount"`
}

// BlacklistParams is admin_setBlacklist.
type BlacklistParams struct {
	Account types.Address `json:"account"`
	Listed  bool          `json:"listed"`
}

// ── Results ─────────────────────────────────────────────────────────────

// InfoResult is token_getInfo.
type InfoResult struct {
	Name         string        `json:"name"`
	Symbol       string        `json:"symbol"`
	Decimals     uint8         `json:"decimals"`
	Owner        types.Address `json:"owner"`
	Contract     types.Address `json:"contract"`
	TotalSupply  uint64        `json:"total_supply"`
	Policy       policy.Config `json:"policy"`
	LastEventSeq uint64        `json:"last_event_seq"`
}

// BalanceResult is token_balanceOf.
type BalanceResult struct {
	Address types.Address `json:"address"`
	Balance uint64        `json:"balance"`
}

// AllowanceResult is token_allowance.
type AllowanceResult struct {
	Owner     types.Address `json:"owner"`
	Spender   types.Address `json:"spender"`
	Allowance uint64        `json:"allowance"`
}

// BlacklistedResult is token_isBlacklisted.
type BlacklistedResult struct {
	Address     types.Address `json:"address"`
	Blacklisted bool          `json:"blacklisted"`
}

// BlacklistResult is token_getBlacklist.
type BlacklistResult struct {
	Accounts []types.Address `json:"accounts"`
}

// HolderEntry is one token_getHolders row.
type HolderEntry struct {
	Address types.Address `json:"address"`
	Balance uint64        `json:"balance"`
}

// EventsResult is token_getEvents.
type EventsResult struct {
	Events  []events.Event `json:"events"`
	LastSeq uint64         `json:"last_seq"`
}

// NonceResult is auth_getNonce.
type NonceResult struct {
	Address   types.Address `json:"address"`
	LastNonce uint64        `json:"last_nonce"`
	Next      uint64        `json:"next"`
}

// PeerInfo describes a connected peer.
type PeerInfo struct {
	ID          string `json:"id"`
	ConnectedAt string `json:"connected_at"`
	Source      string `json:"source,omitempty"`
}

// PeerInfoResult is net_getPeerInfo.
type PeerInfoResult struct {
	Count int        `json:"count"`
	Peers []PeerInfo `json:"peers"`
}

// NodeInfoResult is net_getNodeInfo.
type NodeInfoResult struct {
	ID        string   `json:"id"`
	Addrs     []string `json:"addrs"`
	Topic     string   `json:"topic,omitempty"`
	Publisher string   `json:"publisher,omitempty"` // hex key observers add to p2p.publishers
}

// BanEntry is one banned peer.
type BanEntry struct {
	ID        string `json:"id"`
	Reason    string `json:"reason"`
	Score     int    `json:"score"`
	BannedAt  int64  `json:"banned_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// BanListResult is net_getBanList.
type BanListResult struct {
	Count int        `json:"count"`
	Bans  []BanEntry `json:"bans"`
}
