package main

import (
	"flag"

	"github.com/Klingon-tech/feetoken/internal/rpc"
)

// adminUsage lists the admin subcommands.
const adminUsage = "Usage: feetoken-cli admin <set-fee|set-fee-recipient|set-max-tx|set-max-wallet|set-supply-cap|blacklist|unblacklist|pause|unpause|transfer-ownership|renounce-ownership|rescue> --wallet <w> [flags]"

func cmdAdmin(env *cliEnv, args []string) {
	if len(args) == 0 {
		fatal("%s", adminUsage)
	}
	sub := args[0]
	fs := flag.NewFlagSet("admin "+sub, flag.ExitOnError)
	sf := addSignerFlags(fs)

	var (
		method string
		params interface{}
	)
	switch sub {
	case "set-fee":
		bp := fs.Uint64("bp", 0, "Transfer fee in basis points")
		fs.Parse(args[1:])
		if !isFlagSet(fs, "bp") {
			fatal("Usage: feetoken-cli admin set-fee --wallet <w> --bp <basis points>")
		}
		method, params = "admin_setTransferFee", rpc.FeeParams{BasisPoints: *bp}

	case "set-fee-recipient", "transfer-ownership", "blacklist", "unblacklist":
		account := fs.String("account", "", "Account address")
		fs.Parse(args[1:])
		if *account == "" {
			fatal("Usage: feetoken-cli admin %s --wallet <w> --account <addr>", sub)
		}
		addr := parseAddr("account", *account)
		switch sub {
		case "set-fee-recipient":
			method, params = "admin_setFeeRecipient", rpc.AccountParams{Account: addr}
		case "transfer-ownership":
			method, params = "admin_transferOwnership", rpc.AccountParams{Account: addr}
		default:
			method = "admin_setBlacklist"
			params = rpc.BlacklistParams{Account: addr, Listed: sub == "blacklist"}
		}

	case "set-max-tx", "set-max-wallet", "set-supply-cap":
		amountStr := fs.String("amount", "", "Limit (0 disables it)")
		fs.Parse(args[1:])
		if *amountStr == "" {
			fatal("Usage: feetoken-cli admin %s --wallet <w> --amount <n>", sub)
		}
		p := rpc.AmountParams{Amount: env.amount(*amountStr)}
		switch sub {
		case "set-max-tx":
			method = "admin_setMaxTxAmount"
		case "set-max-wallet":
			method = "admin_setMaxWalletBalance"
		default:
			method = "admin_setSupplyCap"
		}
		params = p

	case "pause", "unpause", "renounce-ownership":
		fs.Parse(args[1:])
		method = map[string]string{
			"pause":              "admin_pause",
			"unpause":            "admin_unpause",
			"renounce-ownership": "admin_renounceOwnership",
		}[sub]

	case "rescue":
		to := fs.String("to", "", "Recipient of the rescued tokens")
		amountStr := fs.String("amount", "", "Amount")
		fs.Parse(args[1:])
		if *to == "" || *amountStr == "" {
			fatal("Usage: feetoken-cli admin rescue --wallet <w> --to <addr> --amount <n>")
		}
		method = "admin_rescueTokens"
		params = rpc.MintParams{To: parseAddr("recipient", *to), Amount: env.amount(*amountStr)}

	default:
		fatal("unknown admin command: %s\n%s", sub, adminUsage)
	}

	env.send(sf.signer(env), method, params)
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
