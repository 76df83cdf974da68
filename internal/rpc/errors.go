package rpc

import (
	"errors"

	"github.com/Klingon-tech/feetoken/internal/auth"
	"github.com/Klingon-tech/feetoken/internal/ledger"
	"github.com/Klingon-tech/feetoken/internal/policy"
	"github.com/Klingon-tech/feetoken/internal/token"
)

var ledgerReasons = []struct {
	err    error
	reason string
}{
	{ledger.ErrInsufficientBalance, "INSUFFICIENT_BALANCE"},
	{ledger.ErrInsufficientAllowance, "INSUFFICIENT_ALLOWANCE"},
	{ledger.ErrOverflow, "OVERFLOW"},
	{token.ErrAlreadyPaused, "ALREADY_PAUSED"},
	{token.ErrNotPaused, "NOT_PAUSED"},
}

// toRPCError maps a token, ledger or auth error onto a JSON-RPC error.
// Rejections carry their reason code in data.reason.
func toRPCError(err error) *Error {
	if err == nil {
		return nil
	}
	if policy.IsRejection(err) {
		return &Error{
			Code:    CodePolicyRejected,
			Message: err.Error(),
			Data:    ErrorData{Reason: policy.Reason(err)},
		}
	}
	for _, r := range ledgerReasons {
		if errors.Is(err, r.err) {
			return &Error{
				Code:    CodeLedgerRejected,
				Message: err.Error(),
				Data:    ErrorData{Reason: r.reason},
			}
		}
	}
	if errors.Is(err, auth.ErrBadSignature) || errors.Is(err, auth.ErrBadNonce) || errors.Is(err, auth.ErrBadPubKey) {
		return &Error{Code: CodeUnauthenticated, Message: err.Error()}
	}
	return &Error{Code: CodeInternalError, Message: err.Error()}
}
