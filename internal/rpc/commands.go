package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/Klingon-tech/feetoken/internal/auth"
	"github.com/Klingon-tech/feetoken/internal/token"
	"github.com/Klingon-tech/feetoken/pkg/types"
)

// runCommand authenticates a signed command for req.Method, decodes its
// inner params into target and runs fn as the recovered caller. The nonce
// is consumed by authentication, so a command that is later rejected by
// the token cannot be replayed.
func (s *Server) runCommand(req *Request, target interface{}, fn func(caller types.Address) (*token.Receipt, error)) (interface{}, *Error) {
	var cmd auth.Command
	if err := parseParams(req, &cmd); err != nil {
		return nil, err
	}
	if target != nil {
		if len(cmd.Params) == 0 {
			return nil, &Error{Code: CodeInvalidParams, Message: "command params required"}
		}
		if err := json.Unmarshal(cmd.Params, target); err != nil {
			return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid command params: %v", err)}
		}
	}
	caller, err := s.auth.Authenticate(req.Method, &cmd)
	if err != nil {
		return nil, toRPCError(err)
	}
	receipt, err := fn(caller)
	if err != nil {
		s.logger.Debug().Str("method", req.Method).Str("caller", caller.String()).Err(err).Msg("Command rejected")
		return nil, toRPCError(err)
	}
	return receipt, nil
}

// ── token_* commands ────────────────────────────────────────────────────

func (s *Server) handleTransfer(req *Request) (interface{}, *Error) {
	var p TransferParams
	return s.runCommand(req, &p, func(caller types.Address) (*token.Receipt, error) {
		return s.token.Transfer(caller, p.To, p.Amount)
	})
}

func (s *Server) handleApprove(req *Request) (interface{}, *Error) {
	var p ApproveParams
	return s.runCommand(req, &p, func(caller types.Address) (*token.Receipt, error) {
		return s.token.Approve(caller, p.Spender, p.Amount)
	})
}

func (s *Server) handleTransferFrom(req *Request) (interface{}, *Error) {
	var p TransferFromParams
	return s.runCommand(req, &p, func(caller types.Address) (*token.Receipt, error) {
		return s.token.TransferFrom(caller, p.From, p.To, p.Amount)
	})
}

func (s *Server) handleBurn(req *Request) (interface{}, *Error) {
	var p BurnParams
	return s.runCommand(req, &p, func(caller types.Address) (*token.Receipt, error) {
		if p.From != nil {
			return s.token.BurnFrom(caller, *p.From, p.Amount)
		}
		return s.token.Burn(caller, p.Amount)
	})
}

func (s *Server) handleMint(req *Request) (interface{}, *Error) {
	var p MintParams
	return s.runCommand(req, &p, func(caller types.Address) (*token.Receipt, error) {
		return s.token.Mint(caller, p.To, p.Amount)
	})
}

// ── admin_* commands ────────────────────────────────────────────────────

func (s *Server) handleSetTransferFee(req *Request) (interface{}, *Error) {
	var p FeeParams
	return s.runCommand(req, &p, func(caller types.Address) (*token.Receipt, error) {
		return s.token.SetTransferFee(caller, p.BasisPoints)
	})
}

func (s *Server) handleSetFeeRecipient(req *Request) (interface{}, *Error) {
	var p AccountParams
	return s.runCommand(req, &p, func(caller types.Address) (*token.Receipt, error) {
		return s.token.SetFeeRecipient(caller, p.Account)
	})
}

func (s *Server) handleSetMaxTxAmount(req *Request) (interface{}, *Error) {
	var p AmountParams
	return s.runCommand(req, &p, func(caller types.Address) (*token.Receipt, error) {
		return s.token.SetMaxTxAmount(caller, p.Amount)
	})
}

func (s *Server) handleSetMaxWalletBalance(req *Request) (interface{}, *Error) {
	var p AmountParams
	return s.runCommand(req, &p, func(caller types.Address) (*token.Receipt, error) {
		return s.token.SetMaxWalletBalance(caller, p.Amount)
	})
}

func (s *Server) handleSetSupplyCap(req *Request) (interface{}, *Error) {
	var p AmountParams
	return s.runCommand(req, &p, func(caller types.Address) (*token.Receipt, error) {
		return s.token.SetSupplyCap(caller, p.Amount)
	})
}

func (s *Server) handleSetBlacklist(req *Request) (interface{}, *Error) {
	var p BlacklistParams
	return s.runCommand(req, &p, func(caller types.Address) (*token.Receipt, error) {
		return s.token.SetBlacklist(caller, p.Account, p.Listed)
	})
}

func (s *Server) handlePause(req *Request) (interface{}, *Error) {
	return s.runCommand(req, nil, s.token.Pause)
}

func (s *Server) handleUnpause(req *Request) (interface{}, *Error) {
	return s.runCommand(req, nil, s.token.Unpause)
}

func (s *Server) handleTransferOwnership(req *Request) (interface{}, *Error) {
	var p AccountParams
	return s.runCommand(req, &p, func(caller types.Address) (*token.Receipt, error) {
		return s.token.TransferOwnership(caller, p.Account)
	})
}

func (s *Server) handleRenounceOwnership(req *Request) (interface{}, *Error) {
	return s.runCommand(req, nil, s.token.RenounceOwnership)
}

func (s *Server) handleRescueTokens(req *Request) (interface{}, *Error) {
	var p MintParams
	return s.runCommand(req, &p, func(caller types.Address) (*token.Receipt, error) {
		return s.token.RescueTokens(caller, p.To, p.Amount)
	})
}
