// Package rpc implements the JSON-RPC 2.0 API server.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/feetoken/config"
	"github.com/Klingon-tech/feetoken/internal/auth"
	klog "github.com/Klingon-tech/feetoken/internal/log"
	"github.com/Klingon-tech/feetoken/internal/metrics"
	"github.com/Klingon-tech/feetoken/internal/p2p"
	"github.com/Klingon-tech/feetoken/internal/token"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

type handlerFunc func(req *Request) (interface{}, *Error)

// Server is the JSON-RPC 2.0 HTTP server.
type Server struct {
	addr        string
	token       *token.Token
	auth        *auth.Authenticator
	p2pNode     *p2p.Node        // nil disables net_* data
	metrics     *metrics.Metrics // nil disables latency tracking
	methods     map[string]handlerFunc
	mux         *http.ServeMux
	server      *http.Server
	logger      zerolog.Logger
	ln          net.Listener
	allowedNets []*net.IPNet // Empty = allow all.
	corsOrigins []string     // Empty = no CORS headers.
}

// New creates an RPC server for tok. Mutating methods authenticate through
// authn. A zero-value RPCConfig allows all IPs and disables CORS.
func New(addr string, tok *token.Token, authn *auth.Authenticator, rpcCfg ...config.RPCConfig) *Server {
	s := &Server{
		addr:   addr,
		token:  tok,
		auth:   authn,
		logger: klog.RPC,
		mux:    http.NewServeMux(),
	}
	if len(rpcCfg) > 0 {
		s.allowedNets = parseAllowedIPs(rpcCfg[0].AllowedIPs)
		s.corsOrigins = rpcCfg[0].CORSOrigins
	}
	s.registerMethods()

	s.mux.HandleFunc("/", s.handleRequest)
	s.server = &http.Server{
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) registerMethods() {
	s.methods = map[string]handlerFunc{
		"token_getInfo":         s.handleGetInfo,
		"token_balanceOf":       s.handleBalanceOf,
		"token_allowance":       s.handleAllowance,
		"token_getPolicy":       s.handleGetPolicy,
		"token_isBlacklisted":   s.handleIsBlacklisted,
		"token_getBlacklist":    s.handleGetBlacklist,
		"token_getHolders":      s.handleGetHolders,
		"token_previewTransfer": s.handlePreviewTransfer,
		"token_getEvents":       s.handleGetEvents,
		"auth_getNonce":         s.handleGetNonce,
		"net_getPeerInfo":       s.handleNetGetPeerInfo,
		"net_getNodeInfo":       s.handleNetGetNodeInfo,
		"net_getBanList":        s.handleNetGetBanList,

		"token_transfer":     s.handleTransfer,
		"token_approve":      s.handleApprove,
		"token_transferFrom": s.handleTransferFrom,
		"token_burn":         s.handleBurn,
		"token_mint":         s.handleMint,

		"admin_setTransferFee":      s.handleSetTransferFee,
		"admin_setFeeRecipient":     s.handleSetFeeRecipient,
		"admin_setMaxTxAmount":      s.handleSetMaxTxAmount,
		"admin_setMaxWalletBalance": s.handleSetMaxWalletBalance,
		"admin_setSupplyCap":        s.handleSetSupplyCap,
		"admin_setBlacklist":        s.handleSetBlacklist,
		"admin_pause":               s.handlePause,
		"admin_unpause":             s.handleUnpause,
		"admin_transferOwnership":   s.handleTransferOwnership,
		"admin_renounceOwnership":   s.handleRenounceOwnership,
		"admin_rescueTokens":        s.handleRescueTokens,
	}
}

// SetP2PNode sets the gossip node for net_* endpoints.
func (s *Server) SetP2PNode(n *p2p.Node) {
	s.p2pNode = n
}

// SetMetrics enables request latency tracking and serves m on path.
func (s *Server) SetMetrics(m *metrics.Metrics, path string) {
	s.metrics = m
	if path != "" {
		s.mux.Handle(path, s.filtered(m.Handler()))
	}
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// parseAllowedIPs converts string IP/CIDR entries into net.IPNet.
func parseAllowedIPs(entries []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, entry := range entries {
		if _, ipNet, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, ipNet)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			continue
		}
		bits := 32
		if ip.To4() == nil {
			bits = 128
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets
}

// Start begins listening and serving in a background goroutine.
// It returns once the listener is bound.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("rpc listen: %w", err)
	}
	s.ln = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("RPC server error")
		}
	}()
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("RPC server listening")
	return nil
}

// Addr returns the listener address (useful when bound to :0).
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// filtered wraps h with the IP allow-list.
func (s *Server) filtered(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.remoteAllowed(r) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func (s *Server) remoteAllowed(r *http.Request) bool {
	if len(s.allowedNets) == 0 {
		return true
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return false
	}
	ip := net.ParseIP(host)
	return ip != nil && s.isIPAllowed(ip)
}

// handleRequest is the main HTTP handler for JSON-RPC requests.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	if !s.remoteAllowed(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	s.setCORSHeaders(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, nil, CodeInvalidRequest, "only POST method is allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		writeError(w, nil, CodeParseError, "failed to read request body")
		return
	}
	if len(body) > maxBodySize {
		writeError(w, nil, CodeInvalidRequest, "request body too large")
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, nil, CodeParseError, "invalid JSON")
		return
	}
	if req.JSONRPC != "2.0" {
		writeError(w, req.ID, CodeInvalidRequest, "jsonrpc must be \"2.0\"")
		return
	}

	result, rpcErr := s.dispatch(&req)
	if rpcErr != nil {
		writeJSON(w, Response{JSONRPC: "2.0", Error: rpcErr, ID: req.ID})
		return
	}
	writeJSON(w, Response{JSONRPC: "2.0", Result: result, ID: req.ID})
}

// dispatch routes a request to its handler and records its latency.
func (s *Server) dispatch(req *Request) (interface{}, *Error) {
	h, ok := s.methods[req.Method]
	if !ok {
		s.metrics.ObserveRPC("unknown", 0)
		return nil, &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("method %q not found", req.Method)}
	}
	start := time.Now()
	result, rpcErr := h(req)
	s.metrics.ObserveRPC(req.Method, time.Since(start))
	if rpcErr != nil && rpcErr.Code == CodeInternalError {
		s.logger.Error().Str("method", req.Method).Str("err", rpcErr.Message).Msg("RPC internal error")
	}
	return result, rpcErr
}

// writeJSON writes a JSON-RPC response.
func writeJSON(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// writeError writes a JSON-RPC error response.
func writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	writeJSON(w, Response{
		JSONRPC: "2.0",
		Error:   &Error{Code: code, Message: message},
		ID:      id,
	})
}

// isIPAllowed checks if the IP is in the allowed networks list.
func (s *Server) isIPAllowed(ip net.IP) bool {
	for _, n := range s.allowedNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// setCORSHeaders adds CORS headers based on the configured origins.
func (s *Server) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	if len(s.corsOrigins) == 0 {
		return
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}

	allowed := false
	for _, o := range s.corsOrigins {
		if o == "*" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			allowed = true
			break
		}
		if o == origin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			allowed = true
			break
		}
	}
	if allowed {
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	}
}

// parseParams unmarshals the request params into target.
func parseParams(req *Request, target interface{}) *Error {
	if len(req.Params) == 0 || string(req.Params) == "null" {
		return &Error{Code: CodeInvalidParams, Message: "params required"}
	}
	if err := json.Unmarshal(req.Params, target); err != nil {
		return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
	}
	return nil
}
