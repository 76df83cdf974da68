// Package rpcclient provides a JSON-RPC 2.0 client for feetoken nodes.
package rpcclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/Klingon-tech/feetoken/internal/auth"
	"github.com/Klingon-tech/feetoken/internal/policy"
	"github.com/Klingon-tech/feetoken/internal/rpc"
	"github.com/Klingon-tech/feetoken/internal/token"
	"github.com/Klingon-tech/feetoken/pkg/crypto"
	"github.com/Klingon-tech/feetoken/pkg/types"
)

// Client is a JSON-RPC 2.0 HTTP client.
type Client struct {
	endpoint string
	http     *http.Client

	mu       sync.Mutex
	contract *types.Address // cached from token_getInfo
}

// New creates a new RPC client targeting the given endpoint URL.
func New(endpoint string) *Client {
	return NewWithTimeout(endpoint, 10*time.Second)
}

// NewWithTimeout creates a new RPC client with a custom HTTP timeout.
func NewWithTimeout(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// request is a JSON-RPC 2.0 request.
type request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      int         `json:"id"`
}

// response is a JSON-RPC 2.0 response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// rpcError is a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    *rpc.ErrorData `json:"data,omitempty"`
}

// RPCError is returned when the server responds with an error.
type RPCError struct {
	Code    int
	Message string
	Reason  string // set for policy and ledger rejections
}

func (e *RPCError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("rpc error %d (%s): %s", e.Code, e.Reason, e.Message)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Call invokes a JSON-RPC method and unmarshals the result into the provided pointer.
// If result is nil, the response result is discarded.
func (c *Client) Call(method string, params, result interface{}) error {
	req := request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.http.Post(c.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	var rpcResp response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if rpcResp.Error != nil {
		e := &RPCError{
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
		}
		if rpcResp.Error.Data != nil {
			e.Reason = rpcResp.Error.Data.Reason
		}
		return e
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}

	return nil
}

// ── Reads ───────────────────────────────────────────────────────────────

// Info returns token metadata, supply and policy.
func (c *Client) Info() (*rpc.InfoResult, error) {
	var res rpc.InfoResult
	if err := c.Call("token_getInfo", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// BalanceOf returns the balance of addr.
func (c *Client) BalanceOf(addr types.Address) (uint64, error) {
	var res rpc.BalanceResult
	if err := c.Call("token_balanceOf", rpc.AddressParam{Address: addr}, &res); err != nil {
		return 0, err
	}
	return res.Balance, nil
}

// Allowance returns what spender may still move from owner.
func (c *Client) Allowance(owner, spender types.Address) (uint64, error) {
	var res rpc.AllowanceResult
	if err := c.Call("token_allowance", rpc.AllowanceParam{Owner: owner, Spender: spender}, &res); err != nil {
		return 0, err
	}
	return res.Allowance, nil
}

// Policy returns the current transfer policy.
func (c *Client) Policy() (*policy.Config, error) {
	var cfg policy.Config
	if err := c.Call("token_getPolicy", nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Preview dry-runs a movement and returns its fee split.
func (c *Client) Preview(from, to types.Address, amount uint64) (*policy.Split, error) {
	var split policy.Split
	if err := c.Call("token_previewTransfer", rpc.PreviewParam{From: from, To: to, Amount: amount}, &split); err != nil {
		return nil, err
	}
	return &split, nil
}

// Events pages the event journal.
func (c *Client) Events(from uint64, limit int) (*rpc.EventsResult, error) {
	var res rpc.EventsResult
	if err := c.Call("token_getEvents", rpc.EventsParam{From: from, Limit: limit}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Holders returns every non-zero balance.
func (c *Client) Holders() ([]rpc.HolderEntry, error) {
	var res []rpc.HolderEntry
	if err := c.Call("token_getHolders", nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Blacklist returns all blacklisted accounts.
func (c *Client) Blacklist() ([]types.Address, error) {
	var res rpc.BlacklistResult
	if err := c.Call("token_getBlacklist", nil, &res); err != nil {
		return nil, err
	}
	return res.Accounts, nil
}

// NextNonce returns the nonce addr's next command must carry.
func (c *Client) NextNonce(addr types.Address) (uint64, error) {
	var res rpc.NonceResult
	if err := c.Call("auth_getNonce", rpc.AddressParam{Address: addr}, &res); err != nil {
		return 0, err
	}
	return res.Next, nil
}

// Contract returns the token's contract address, fetched once.
func (c *Client) Contract() (types.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.contract != nil {
		return *c.contract, nil
	}
	info, err := c.Info()
	if err != nil {
		return types.Address{}, err
	}
	c.contract = &info.Contract
	return info.Contract, nil
}

// ── Commands ────────────────────────────────────────────────────────────

// Send signs params for method with signer, using the signer's next nonce,
// and submits the command.
func (c *Client) Send(signer crypto.Signer, method string, params interface{}) (*token.Receipt, error) {
	contract, err := c.Contract()
	if err != nil {
		return nil, fmt.Errorf("contract address: %w", err)
	}
	nonce, err := c.NextNonce(crypto.AddressFromPubKey(signer.PublicKey()))
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	cmd, err := auth.Sign(signer, contract, method, params, nonce)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	var receipt token.Receipt
	if err := c.Call(method, cmd, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// Transfer sends amount to `to`.
func (c *Client) Transfer(signer crypto.Signer, to types.Address, amount uint64) (*token.Receipt, error) {
	return c.Send(signer, "token_transfer", rpc.TransferParams{To: to, Amount: amount})
}

// Approve sets spender's allowance.
func (c *Client) Approve(signer crypto.Signer, spender types.Address, amount uint64) (*token.Receipt, error) {
	return c.Send(signer, "token_approve", rpc.ApproveParams{Spender: spender, Amount: amount})
}

// TransferFrom moves amount from `from` to `to` against the signer's allowance.
func (c *Client) TransferFrom(signer crypto.Signer, from, to types.Address, amount uint64) (*token.Receipt, error) {
	return c.Send(signer, "token_transferFrom", rpc.TransferFromParams{From: from, To: to, Amount: amount})
}

// Burn destroys the signer's tokens, or from's tokens when from is non-nil.
func (c *Client) Burn(signer crypto.Signer, from *types.Address, amount uint64) (*token.Receipt, error) {
	return c.Send(signer, "token_burn", rpc.BurnParams{From: from, Amount: amount})
}

// Mint creates amount new tokens for `to`. Owner only.
func (c *Client) Mint(signer crypto.Signer, to types.Address, amount uint64) (*token.Receipt, error) {
	return c.Send(signer, "token_mint", rpc.MintParams{To: to, Amount: amount})
}
