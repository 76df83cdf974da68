package policy

import "errors"

// Policy rejections. Each aborts the whole operation with no partial effect.
var (
	ErrPaused               = errors.New("token is paused")
	ErrBlacklistedSender    = errors.New("sender is blacklisted")
	ErrBlacklistedRecipient = errors.New("recipient is blacklisted")
	ErrExceedsMaxTx         = errors.New("amount exceeds max transaction amount")
	ErrExceedsMaxWallet     = errors.New("recipient balance would exceed max wallet balance")
	ErrCapExceeded          = errors.New("supply cap exceeded")
	ErrUnauthorized         = errors.New("caller is not the owner")
	ErrZeroAddress          = errors.New("zero address not allowed")
	ErrFeeTooHigh           = errors.New("transfer fee too high")
)

// Stable reason codes surfaced to RPC clients and metrics labels.
const (
	ReasonPaused               = "PAUSED"
	ReasonBlacklistedSender    = "BLACKLISTED_SENDER"
	ReasonBlacklistedRecipient = "BLACKLISTED_RECIPIENT"
	ReasonExceedsMaxTx         = "EXCEEDS_MAX_TX"
	ReasonExceedsMaxWallet     = "EXCEEDS_MAX_WALLET"
	ReasonCapExceeded          = "CAP_EXCEEDED"
	ReasonUnauthorized         = "UNAUTHORIZED"
	ReasonZeroAddress          = "ZERO_ADDRESS"
	ReasonFeeTooHigh           = "FEE_TOO_HIGH"
)

var reasons = []struct {
	err  error
	code string
}{
	{ErrPaused, ReasonPaused},
	{ErrBlacklistedSender, ReasonBlacklistedSender},
	{ErrBlacklistedRecipient, ReasonBlacklistedRecipient},
	{ErrExceedsMaxTx, ReasonExceedsMaxTx},
	{ErrExceedsMaxWallet, ReasonExceedsMaxWallet},
	{ErrCapExceeded, ReasonCapExceeded},
	{ErrUnauthorized, ReasonUnauthorized},
	{ErrZeroAddress, ReasonZeroAddress},
	{ErrFeeTooHigh, ReasonFeeTooHigh},
}

// Reason returns the stable reason code for a policy error, or "" if err
// does not wrap one of the policy sentinels.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.code
		}
	}
	return ""
}

// IsRejection reports whether err is a policy rejection.
func IsRejection(err error) bool {
	return Reason(err) != ""
}
