package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Klingon-tech/feetoken/config"
	"github.com/Klingon-tech/feetoken/internal/auth"
	"github.com/Klingon-tech/feetoken/internal/events"
	klog "github.com/Klingon-tech/feetoken/internal/log"
	"github.com/Klingon-tech/feetoken/internal/metrics"
	"github.com/Klingon-tech/feetoken/internal/policy"
	"github.com/Klingon-tech/feetoken/internal/storage"
	"github.com/Klingon-tech/feetoken/internal/token"
	"github.com/Klingon-tech/feetoken/pkg/crypto"
	"github.com/Klingon-tech/feetoken/pkg/types"
)

// testEnv holds all components for an RPC test.
type testEnv struct {
	server   *Server
	token    *token.Token
	ownerKey *crypto.PrivateKey
	owner    types.Address
	feeSink  types.Address
	url      string
	nonces   map[types.Address]uint64
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	klog.Init("error", false, "")

	ownerKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	owner := ownerKey.Address()
	feeSink := testAddr(0xfe)

	db := storage.NewMemory()
	tok, err := token.New(db, token.Params{
		Name:                   "Fee Token",
		Symbol:                 "FEE",
		Decimals:               18,
		Owner:                  owner,
		InitialSupply:          1_000_000,
		FeeRecipient:           feeSink,
		TransferFeeBasisPoints: 100,
	}, events.Discard)
	if err != nil {
		t.Fatalf("deploy token: %v", err)
	}

	srv := New("127.0.0.1:0", tok, auth.NewAuthenticator(db, tok.Address()))
	if err := srv.Start(); err != nil {
		t.Fatalf("start rpc: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })

	return &testEnv{
		server:   srv,
		token:    tok,
		ownerKey: ownerKey,
		owner:    owner,
		feeSink:  feeSink,
		url:      fmt.Sprintf("http://%s/", srv.Addr()),
		nonces:   make(map[types.Address]uint64),
	}
}

func testAddr(b byte) types.Address {
	var a types.Address
	a[19] = b
	return a
}

func rpcCall(t *testing.T, url, method string, params interface{}) Response {
	t.Helper()
	req := Request{JSONRPC: "2.0", Method: method, ID: 1}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			t.Fatalf("marshal params: %v", err)
		}
		req.Params = raw
	}
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", method, err)
	}
	defer resp.Body.Close()

	var rpcResp Response
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rpcResp
}

// send signs params with key using the next nonce and calls method.
func (env *testEnv) send(t *testing.T, key *crypto.PrivateKey, method string, params interface{}) Response {
	t.Helper()
	addr := key.Address()
	env.nonces[addr]++
	cmd, err := auth.Sign(key, env.token.Address(), method, params, env.nonces[addr])
	if err != nil {
		t.Fatalf("sign %s: %v", method, err)
	}
	return rpcCall(t, env.url, method, cmd)
}

func decodeResult(t *testing.T, resp Response, v interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("unexpected error: %d %s", resp.Error.Code, resp.Error.Message)
	}
	data, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
}

func wantReason(t *testing.T, resp Response, code int, reason string) {
	t.Helper()
	if resp.Error == nil {
		t.Fatalf("expected error code %d, got success", code)
	}
	if resp.Error.Code != code {
		t.Fatalf("error code = %d, want %d (%s)", resp.Error.Code, code, resp.Error.Message)
	}
	if reason == "" {
		return
	}
	data, _ := json.Marshal(resp.Error.Data)
	var ed ErrorData
	json.Unmarshal(data, &ed)
	if ed.Reason != reason {
		t.Errorf("reason = %q, want %q", ed.Reason, reason)
	}
}

func (env *testEnv) balance(t *testing.T, a types.Address) uint64 {
	t.Helper()
	var res BalanceResult
	decodeResult(t, rpcCall(t, env.url, "token_balanceOf", AddressParam{Address: a}), &res)
	return res.Balance
}

// ── Reads ───────────────────────────────────────────────────────────────

func TestRPC_GetInfo(t *testing.T) {
	env := setupTestEnv(t)

	var res InfoResult
	decodeResult(t, rpcCall(t, env.url, "token_getInfo", nil), &res)

	if res.Name != "Fee Token" || res.Symbol != "FEE" || res.Decimals != 18 {
		t.Errorf("metadata = %q/%q/%d", res.Name, res.Symbol, res.Decimals)
	}
	if res.Owner != env.owner {
		t.Errorf("owner = %s, want %s", res.Owner, env.owner)
	}
	if res.Contract != env.token.Address() {
		t.Errorf("contract = %s, want %s", res.Contract, env.token.Address())
	}
	if res.TotalSupply != 1_000_000 {
		t.Errorf("total_supply = %d, want 1000000", res.TotalSupply)
	}
	if res.Policy.TransferFeeBasisPoints != 100 {
		t.Errorf("fee = %d, want 100", res.Policy.TransferFeeBasisPoints)
	}
}

func TestRPC_BalanceOf(t *testing.T) {
	env := setupTestEnv(t)

	if got := env.balance(t, env.owner); got != 1_000_000 {
		t.Errorf("owner balance = %d, want 1000000", got)
	}
	if got := env.balance(t, testAddr(0x01)); got != 0 {
		t.Errorf("unknown balance = %d, want 0", got)
	}
}

func TestRPC_BalanceOf_MissingParams(t *testing.T) {
	env := setupTestEnv(t)

	resp := rpcCall(t, env.url, "token_balanceOf", nil)
	wantReason(t, resp, CodeInvalidParams, "")
}

func TestRPC_GetPolicy(t *testing.T) {
	env := setupTestEnv(t)

	var cfg policy.Config
	decodeResult(t, rpcCall(t, env.url, "token_getPolicy", nil), &cfg)
	if cfg.FeeRecipient != env.feeSink {
		t.Errorf("fee_recipient = %s, want %s", cfg.FeeRecipient, env.feeSink)
	}
	if cfg.Paused {
		t.Error("paused = true")
	}
}

func TestRPC_PreviewTransfer(t *testing.T) {
	env := setupTestEnv(t)
	alice := testAddr(0x01)

	var split policy.Split
	decodeResult(t, rpcCall(t, env.url, "token_previewTransfer",
		PreviewParam{From: env.owner, To: alice, Amount: 1000}), &split)

	if split.Fee != 10 || split.Net != 990 {
		t.Errorf("fee/net = %d/%d, want 10/990", split.Fee, split.Net)
	}
	if len(split.Legs) != 2 {
		t.Fatalf("legs = %d, want 2", len(split.Legs))
	}
	if split.Legs[0].To != env.feeSink {
		t.Errorf("first leg to = %s, want fee recipient", split.Legs[0].To)
	}
	// Preview must not move tokens.
	if got := env.balance(t, alice); got != 0 {
		t.Errorf("alice balance after preview = %d, want 0", got)
	}
}

func TestRPC_GetEvents(t *testing.T) {
	env := setupTestEnv(t)
	alice := testAddr(0x01)
	env.send(t, env.ownerKey, "token_transfer", TransferParams{To: alice, Amount: 1000})

	var res EventsResult
	decodeResult(t, rpcCall(t, env.url, "token_getEvents", EventsParam{From: 0}), &res)
	if len(res.Events) == 0 {
		t.Fatal("no events")
	}
	if res.LastSeq != res.Events[len(res.Events)-1].Seq {
		t.Errorf("last_seq = %d, want %d", res.LastSeq, res.Events[len(res.Events)-1].Seq)
	}
	for _, ev := range res.Events {
		if !ev.Verify(env.token.Address()) {
			t.Errorf("event %d does not verify", ev.Seq)
		}
	}

	var page EventsResult
	decodeResult(t, rpcCall(t, env.url, "token_getEvents", EventsParam{From: 0, Limit: 1}), &page)
	if len(page.Events) != 1 {
		t.Errorf("limited page = %d events, want 1", len(page.Events))
	}
}

func TestRPC_GetNonce(t *testing.T) {
	env := setupTestEnv(t)

	var res NonceResult
	decodeResult(t, rpcCall(t, env.url, "auth_getNonce", AddressParam{Address: env.owner}), &res)
	if res.LastNonce != 0 || res.Next != 1 {
		t.Errorf("nonce = %d/%d, want 0/1", res.LastNonce, res.Next)
	}

	env.send(t, env.ownerKey, "admin_pause", nil)
	decodeResult(t, rpcCall(t, env.url, "auth_getNonce", AddressParam{Address: env.owner}), &res)
	if res.LastNonce != 1 || res.Next != 2 {
		t.Errorf("nonce after command = %d/%d, want 1/2", res.LastNonce, res.Next)
	}
}

func TestRPC_Blacklist(t *testing.T) {
	env := setupTestEnv(t)
	mallory := testAddr(0x66)

	var r token.Receipt
	decodeResult(t, env.send(t, env.ownerKey, "admin_setBlacklist", BlacklistParams{Account: mallory, Listed: true}), &r)

	var bl BlacklistedResult
	decodeResult(t, rpcCall(t, env.url, "token_isBlacklisted", AddressParam{Address: mallory}), &bl)
	if !bl.Blacklisted {
		t.Error("mallory not blacklisted")
	}
	var list BlacklistResult
	decodeResult(t, rpcCall(t, env.url, "token_getBlacklist", nil), &list)
	if len(list.Accounts) != 1 || list.Accounts[0] != mallory {
		t.Errorf("blacklist = %v, want [%s]", list.Accounts, mallory)
	}

	resp := env.send(t, env.ownerKey, "token_transfer", TransferParams{To: mallory, Amount: 10})
	wantReason(t, resp, CodePolicyRejected, policy.ReasonBlacklistedRecipient)
}

func TestRPC_GetHolders(t *testing.T) {
	env := setupTestEnv(t)
	env.send(t, env.ownerKey, "token_transfer", TransferParams{To: testAddr(0x01), Amount: 1000})

	var holders []HolderEntry
	decodeResult(t, rpcCall(t, env.url, "token_getHolders", nil), &holders)
	if len(holders) != 3 {
		t.Fatalf("holders = %d, want 3 (owner, alice, fee recipient)", len(holders))
	}
	var sum uint64
	for _, h := range holders {
		sum += h.Balance
	}
	if sum != 1_000_000 {
		t.Errorf("sum of balances = %d, want 1000000", sum)
	}
}

// ── Commands ────────────────────────────────────────────────────────────

func TestRPC_Transfer(t *testing.T) {
	env := setupTestEnv(t)
	alice := testAddr(0x01)

	var r token.Receipt
	decodeResult(t, env.send(t, env.ownerKey, "token_transfer", TransferParams{To: alice, Amount: 1000}), &r)

	if r.Op != "transfer" {
		t.Errorf("op = %q, want transfer", r.Op)
	}
	if len(r.Events) != 2 {
		t.Errorf("events = %d, want 2", len(r.Events))
	}
	if got := env.balance(t, alice); got != 990 {
		t.Errorf("alice = %d, want 990", got)
	}
	if got := env.balance(t, env.feeSink); got != 10 {
		t.Errorf("fee recipient = %d, want 10", got)
	}
	if got := env.balance(t, env.owner); got != 999_000 {
		t.Errorf("owner = %d, want 999000", got)
	}
}

func TestRPC_ApproveTransferFrom(t *testing.T) {
	env := setupTestEnv(t)
	spenderKey, _ := crypto.GenerateKey()
	spender := spenderKey.Address()
	bob := testAddr(0x02)

	if resp := env.send(t, env.ownerKey, "token_approve", ApproveParams{Spender: spender, Amount: 500}); resp.Error != nil {
		t.Fatalf("approve: %s", resp.Error.Message)
	}
	var al AllowanceResult
	decodeResult(t, rpcCall(t, env.url, "token_allowance", AllowanceParam{Owner: env.owner, Spender: spender}), &al)
	if al.Allowance != 500 {
		t.Fatalf("allowance = %d, want 500", al.Allowance)
	}

	resp := env.send(t, spenderKey, "token_transferFrom", TransferFromParams{From: env.owner, To: bob, Amount: 200})
	if resp.Error != nil {
		t.Fatalf("transferFrom: %s", resp.Error.Message)
	}
	if got := env.balance(t, bob); got != 198 {
		t.Errorf("bob = %d, want 198", got)
	}
	decodeResult(t, rpcCall(t, env.url, "token_allowance", AllowanceParam{Owner: env.owner, Spender: spender}), &al)
	if al.Allowance != 300 {
		t.Errorf("allowance = %d, want 300", al.Allowance)
	}

	resp = env.send(t, spenderKey, "token_transferFrom", TransferFromParams{From: env.owner, To: bob, Amount: 301})
	wantReason(t, resp, CodeLedgerRejected, "INSUFFICIENT_ALLOWANCE")
}

func TestRPC_Burn(t *testing.T) {
	env := setupTestEnv(t)

	if resp := env.send(t, env.ownerKey, "token_burn", BurnParams{Amount: 1000}); resp.Error != nil {
		t.Fatalf("burn: %s", resp.Error.Message)
	}
	var info InfoResult
	decodeResult(t, rpcCall(t, env.url, "token_getInfo", nil), &info)
	if info.TotalSupply != 999_000 {
		t.Errorf("total_supply = %d, want 999000", info.TotalSupply)
	}
}

func TestRPC_Mint_Unauthorized(t *testing.T) {
	env := setupTestEnv(t)
	strangerKey, _ := crypto.GenerateKey()

	resp := env.send(t, strangerKey, "token_mint", MintParams{To: strangerKey.Address(), Amount: 1})
	wantReason(t, resp, CodePolicyRejected, policy.ReasonUnauthorized)
}

func TestRPC_Transfer_InsufficientBalance(t *testing.T) {
	env := setupTestEnv(t)
	poorKey, _ := crypto.GenerateKey()

	resp := env.send(t, poorKey, "token_transfer", TransferParams{To: env.owner, Amount: 1})
	wantReason(t, resp, CodeLedgerRejected, "INSUFFICIENT_BALANCE")
}

func TestRPC_PauseBlocksTransfers(t *testing.T) {
	env := setupTestEnv(t)
	alice := testAddr(0x01)

	if resp := env.send(t, env.ownerKey, "admin_pause", nil); resp.Error != nil {
		t.Fatalf("pause: %s", resp.Error.Message)
	}
	resp := env.send(t, env.ownerKey, "token_transfer", TransferParams{To: alice, Amount: 10})
	wantReason(t, resp, CodePolicyRejected, policy.ReasonPaused)

	resp = env.send(t, env.ownerKey, "admin_pause", nil)
	wantReason(t, resp, CodeLedgerRejected, "ALREADY_PAUSED")

	if resp := env.send(t, env.ownerKey, "admin_unpause", nil); resp.Error != nil {
		t.Fatalf("unpause: %s", resp.Error.Message)
	}
	if resp := env.send(t, env.ownerKey, "token_transfer", TransferParams{To: alice, Amount: 10}); resp.Error != nil {
		t.Fatalf("transfer after unpause: %s", resp.Error.Message)
	}
}

func TestRPC_AdminSetters(t *testing.T) {
	env := setupTestEnv(t)
	newSink := testAddr(0x77)

	cases := []struct {
		method string
		params interface{}
	}{
		{"admin_setTransferFee", FeeParams{BasisPoints: 250}},
		{"admin_setFeeRecipient", AccountParams{Account: newSink}},
		{"admin_setMaxTxAmount", AmountParams{Amount: 5000}},
		{"admin_setMaxWalletBalance", AmountParams{Amount: 20000}},
		{"admin_setSupplyCap", AmountParams{Amount: 2_000_000}},
	}
	for _, tc := range cases {
		if resp := env.send(t, env.ownerKey, tc.method, tc.params); resp.Error != nil {
			t.Fatalf("%s: %s", tc.method, resp.Error.Message)
		}
	}

	cfg := env.token.Policy()
	if cfg.TransferFeeBasisPoints != 250 || cfg.FeeRecipient != newSink ||
		cfg.MaxTxAmount != 5000 || cfg.MaxWalletBalance != 20000 || cfg.SupplyCap != 2_000_000 {
		t.Errorf("policy = %+v", cfg)
	}

	resp := env.send(t, env.ownerKey, "admin_setTransferFee", FeeParams{BasisPoints: 2001})
	wantReason(t, resp, CodePolicyRejected, policy.ReasonFeeTooHigh)

	resp = env.send(t, env.ownerKey, "token_transfer", TransferParams{To: testAddr(0x01), Amount: 5001})
	wantReason(t, resp, CodePolicyRejected, policy.ReasonExceedsMaxTx)
}

func TestRPC_TransferOwnership(t *testing.T) {
	env := setupTestEnv(t)
	nextKey, _ := crypto.GenerateKey()

	if resp := env.send(t, env.ownerKey, "admin_transferOwnership", AccountParams{Account: nextKey.Address()}); resp.Error != nil {
		t.Fatalf("transferOwnership: %s", resp.Error.Message)
	}
	resp := env.send(t, env.ownerKey, "admin_pause", nil)
	wantReason(t, resp, CodePolicyRejected, policy.ReasonUnauthorized)

	if resp := env.send(t, nextKey, "admin_pause", nil); resp.Error != nil {
		t.Fatalf("pause by new owner: %s", resp.Error.Message)
	}
}

// ── Authentication ──────────────────────────────────────────────────────

func TestRPC_ReplayRejected(t *testing.T) {
	env := setupTestEnv(t)
	cmd, err := auth.Sign(env.ownerKey, env.token.Address(), "token_transfer",
		TransferParams{To: testAddr(0x01), Amount: 100}, 1)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if resp := rpcCall(t, env.url, "token_transfer", cmd); resp.Error != nil {
		t.Fatalf("first send: %s", resp.Error.Message)
	}
	resp := rpcCall(t, env.url, "token_transfer", cmd)
	wantReason(t, resp, CodeUnauthenticated, "")

	if got := env.balance(t, testAddr(0x01)); got != 99 {
		t.Errorf("alice = %d, want 99 (single transfer)", got)
	}
}

func TestRPC_WrongMethodSignature(t *testing.T) {
	env := setupTestEnv(t)
	// Signed for approve, submitted as transfer.
	cmd, err := auth.Sign(env.ownerKey, env.token.Address(), "token_approve",
		TransferParams{To: testAddr(0x01), Amount: 100}, 1)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	resp := rpcCall(t, env.url, "token_transfer", cmd)
	wantReason(t, resp, CodeUnauthenticated, "")
}

func TestRPC_TamperedParams(t *testing.T) {
	env := setupTestEnv(t)
	cmd, err := auth.Sign(env.ownerKey, env.token.Address(), "token_transfer",
		TransferParams{To: testAddr(0x01), Amount: 100}, 1)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	cmd.Params, _ = json.Marshal(TransferParams{To: testAddr(0x01), Amount: 100_000})

	resp := rpcCall(t, env.url, "token_transfer", cmd)
	wantReason(t, resp, CodeUnauthenticated, "")
}

func TestRPC_ForeignContractSignature(t *testing.T) {
	env := setupTestEnv(t)
	cmd, err := auth.Sign(env.ownerKey, testAddr(0x99), "admin_pause", nil, 1)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	resp := rpcCall(t, env.url, "admin_pause", cmd)
	wantReason(t, resp, CodeUnauthenticated, "")
	if env.token.Policy().Paused {
		t.Error("token paused by a command signed for another contract")
	}
}

// ── Transport ───────────────────────────────────────────────────────────

func TestRPC_MethodNotFound(t *testing.T) {
	env := setupTestEnv(t)

	resp := rpcCall(t, env.url, "chain_getInfo", nil)
	wantReason(t, resp, CodeMethodNotFound, "")
}

func TestRPC_InvalidJSON(t *testing.T) {
	env := setupTestEnv(t)

	resp, err := http.Post(env.url, "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var rpcResp Response
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	wantReason(t, rpcResp, CodeParseError, "")
}

func TestRPC_WrongVersion(t *testing.T) {
	env := setupTestEnv(t)

	body := `{"jsonrpc":"1.0","method":"token_getInfo","id":1}`
	resp, err := http.Post(env.url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var rpcResp Response
	json.NewDecoder(resp.Body).Decode(&rpcResp)
	wantReason(t, rpcResp, CodeInvalidRequest, "")
}

func TestRPC_GetNotAllowed(t *testing.T) {
	env := setupTestEnv(t)

	resp, err := http.Get(env.url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var rpcResp Response
	json.NewDecoder(resp.Body).Decode(&rpcResp)
	wantReason(t, rpcResp, CodeInvalidRequest, "")
}

func TestRPC_BodyTooLarge(t *testing.T) {
	env := setupTestEnv(t)

	big := bytes.Repeat([]byte("a"), maxBodySize+10)
	resp, err := http.Post(env.url, "application/json", bytes.NewReader(big))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var rpcResp Response
	json.NewDecoder(resp.Body).Decode(&rpcResp)
	wantReason(t, rpcResp, CodeInvalidRequest, "")
}

func TestRPC_NetWithoutNode(t *testing.T) {
	env := setupTestEnv(t)

	var peers PeerInfoResult
	decodeResult(t, rpcCall(t, env.url, "net_getPeerInfo", nil), &peers)
	if peers.Count != 0 {
		t.Errorf("peer count = %d, want 0", peers.Count)
	}
	var bans BanListResult
	decodeResult(t, rpcCall(t, env.url, "net_getBanList", nil), &bans)
	if bans.Count != 0 {
		t.Errorf("ban count = %d, want 0", bans.Count)
	}
	resp := rpcCall(t, env.url, "net_getNodeInfo", nil)
	wantReason(t, resp, CodeNotFound, "")
}

func newHandlerServer(t *testing.T, cfg config.RPCConfig) *Server {
	t.Helper()
	db := storage.NewMemory()
	tok, err := token.New(db, token.Params{
		Name: "Fee Token", Symbol: "FEE", Owner: testAddr(0x0a), FeeRecipient: testAddr(0xfe),
	}, events.Discard)
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}
	return New("127.0.0.1:0", tok, auth.NewAuthenticator(db, tok.Address()), cfg)
}

func postRecorder(h http.Handler, remote, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"jsonrpc":"2.0","method":"token_getInfo","id":1}`))
	req.RemoteAddr = remote
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRPC_AllowedIPs(t *testing.T) {
	srv := newHandlerServer(t, config.RPCConfig{AllowedIPs: []string{"10.0.0.0/8", "192.168.1.5"}})

	tests := []struct {
		remote string
		want   int
	}{
		{"10.1.2.3:5000", http.StatusOK},
		{"192.168.1.5:5000", http.StatusOK},
		{"192.168.1.6:5000", http.StatusForbidden},
		{"127.0.0.1:5000", http.StatusForbidden},
		{"garbage", http.StatusForbidden},
	}
	for _, tt := range tests {
		rec := postRecorder(srv.Handler(), tt.remote, "")
		if rec.Code != tt.want {
			t.Errorf("remote %s: status = %d, want %d", tt.remote, rec.Code, tt.want)
		}
	}
}

func TestRPC_CORS(t *testing.T) {
	srv := newHandlerServer(t, config.RPCConfig{CORSOrigins: []string{"https://app.example"}})

	rec := postRecorder(srv.Handler(), "127.0.0.1:1", "https://app.example")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("allow-origin = %q, want https://app.example", got)
	}
	rec = postRecorder(srv.Handler(), "127.0.0.1:1", "https://evil.example")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("allow-origin for foreign origin = %q, want empty", got)
	}

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example")
	pre := httptest.NewRecorder()
	srv.Handler().ServeHTTP(pre, req)
	if pre.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", pre.Code)
	}
}

func TestRPC_Metrics(t *testing.T) {
	srv := newHandlerServer(t, config.RPCConfig{})
	srv.SetMetrics(metrics.New(), "/metrics")

	if rec := postRecorder(srv.Handler(), "127.0.0.1:1", ""); rec.Code != http.StatusOK {
		t.Fatalf("rpc status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !bytes.Contains(body, []byte("rpc_duration_seconds")) {
		t.Error("metrics output missing rpc_duration_seconds")
	}
	if !bytes.Contains(body, []byte(`method="token_getInfo"`)) {
		t.Error("metrics output missing token_getInfo label")
	}
}
