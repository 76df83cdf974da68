package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/Klingon-tech/feetoken/internal/token"
	"github.com/Klingon-tech/feetoken/pkg/types"
)

// maxDecimals bounds the scale so 10^decimals fits in a uint64.
const maxDecimals = 19

// formatAmount renders raw units as a decimal string with the token's
// decimals.
func formatAmount(units uint64, decimals uint8) string {
	if decimals == 0 {
		return strconv.FormatUint(units, 10)
	}
	s := strconv.FormatUint(units, 10)
	d := int(decimals)
	if len(s) <= d {
		s = strings.Repeat("0", d-len(s)+1) + s
	}
	whole, frac := s[:len(s)-d], strings.TrimRight(s[len(s)-d:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

// parseAmount converts a decimal string to raw units.
func parseAmount(s string, decimals uint8) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative amount")
	}
	if decimals > maxDecimals {
		return 0, fmt.Errorf("unsupported decimals %d", decimals)
	}

	parts := strings.SplitN(s, ".", 2)

	whole, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid whole part: %w", err)
	}

	var frac uint64
	if len(parts) == 2 {
		fracStr := parts[1]
		if len(fracStr) > int(decimals) {
			return 0, fmt.Errorf("too many decimal places (max %d)", decimals)
		}
		// Pad to decimals digits.
		fracStr = fracStr + strings.Repeat("0", int(decimals)-len(fracStr))
		if fracStr != "" {
			frac, err = strconv.ParseUint(fracStr, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid fractional part: %w", err)
			}
		}
	}

	unit := uint64(1)
	for i := uint8(0); i < decimals; i++ {
		unit *= 10
	}
	if whole > math.MaxUint64/unit {
		return 0, fmt.Errorf("amount too large")
	}
	result := whole * unit
	if result > math.MaxUint64-frac {
		return 0, fmt.Errorf("amount too large")
	}
	return result + frac, nil
}

// parseAddr parses a required address flag.
func parseAddr(name, s string) types.Address {
	addr, err := types.ParseAddress(s)
	if err != nil {
		fatal("invalid %s address: %v", name, err)
	}
	return addr
}

// amount parses s using the connected token's decimals.
func (e *cliEnv) amount(s string) uint64 {
	v, err := parseAmount(s, e.tokenDecimals())
	if err != nil {
		fatal("invalid amount: %v", err)
	}
	return v
}

func (e *cliEnv) format(units uint64) string {
	return formatAmount(units, e.tokenDecimals())
}

func (e *cliEnv) tokenDecimals() uint8 {
	if e.decimals == nil {
		info, err := e.client.Info()
		if err != nil {
			fatal("token_getInfo: %v", err)
		}
		e.decimals = &info.Decimals
	}
	return *e.decimals
}

// printReceipt prints the events a command produced.
func (e *cliEnv) printReceipt(r *token.Receipt) {
	fmt.Printf("Applied: %s\n", r.Op)
	for _, s := range r.Splits {
		if s.Fee > 0 {
			fmt.Printf("  Fee:  %s\n", e.format(s.Fee))
		}
		fmt.Printf("  Net:  %s\n", e.format(s.Net))
	}
	for _, ev := range r.Events {
		fmt.Printf("  #%d %s", ev.Seq, ev.Name)
		if ev.From != nil && ev.To != nil {
			fmt.Printf(" %s -> %s %s", ev.From, ev.To, e.format(ev.Amount))
		}
		if ev.Account != nil {
			fmt.Printf(" %s", ev.Account)
		}
		if ev.OldValue != "" || ev.NewValue != "" {
			fmt.Printf(" %s -> %s", ev.OldValue, ev.NewValue)
		}
		fmt.Println()
	}
}

// ── Password helper ─────────────────────────────────────────────────────

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}
