package main

import (
	"flag"

	"github.com/Klingon-tech/feetoken/internal/rpc"
	"github.com/Klingon-tech/feetoken/pkg/crypto"
)

// send submits a signed command and prints its receipt.
func (e *cliEnv) send(key *crypto.PrivateKey, method string, params interface{}) {
	defer key.Zero()
	r, err := e.client.Send(key, method, params)
	if err != nil {
		fatal("%s: %v", method, err)
	}
	e.printReceipt(r)
}

func cmdTransfer(env *cliEnv, args []string) {
	fs := flag.NewFlagSet("transfer", flag.ExitOnError)
	sf := addSignerFlags(fs)
	to := fs.String("to", "", "Recipient address")
	amountStr := fs.String("amount", "", "Amount (e.g. 1.5)")
	fs.Parse(args)

	if *to == "" || *amountStr == "" {
		fatal("Usage: feetoken-cli transfer --wallet <w> --to <addr> --amount <n>")
	}
	params := rpc.TransferParams{To: parseAddr("recipient", *to), Amount: env.amount(*amountStr)}
	env.send(sf.signer(env), "token_transfer", params)
}

func cmdApprove(env *cliEnv, args []string) {
	fs := flag.NewFlagSet("approve", flag.ExitOnError)
	sf := addSignerFlags(fs)
	spender := fs.String("spender", "", "Spender address")
	amountStr := fs.String("amount", "", "Allowance")
	fs.Parse(args)

	if *spender == "" || *amountStr == "" {
		fatal("Usage: feetoken-cli approve --wallet <w> --spender <addr> --amount <n>")
	}
	params := rpc.ApproveParams{Spender: parseAddr("spender", *spender), Amount: env.amount(*amountStr)}
	env.send(sf.signer(env), "token_approve", params)
}

func cmdTransferFrom(env *cliEnv, args []string) {
	fs := flag.NewFlagSet("transfer-from", flag.ExitOnError)
	sf := addSignerFlags(fs)
	from := fs.String("from", "", "Token owner address")
	to := fs.String("to", "", "Recipient address")
	amountStr := fs.String("amount", "", "Amount")
	fs.Parse(args)

	if *from == "" || *to == "" || *amountStr == "" {
		fatal("Usage: feetoken-cli transfer-from --wallet <w> --from <addr> --to <addr> --amount <n>")
	}
	params := rpc.TransferFromParams{
		From:   parseAddr("owner", *from),
		To:     parseAddr("recipient", *to),
		Amount: env.amount(*amountStr),
	}
	env.send(sf.signer(env), "token_transferFrom", params)
}

func cmdBurn(env *cliEnv, args []string) {
	fs := flag.NewFlagSet("burn", flag.ExitOnError)
	sf := addSignerFlags(fs)
	from := fs.String("from", "", "Burn from this address using your allowance")
	amountStr := fs.String("amount", "", "Amount")
	fs.Parse(args)

	if *amountStr == "" {
		fatal("Usage: feetoken-cli burn --wallet <w> --amount <n> [--from <addr>]")
	}
	params := rpc.BurnParams{Amount: env.amount(*amountStr)}
	if *from != "" {
		addr := parseAddr("owner", *from)
		params.From = &addr
	}
	env.send(sf.signer(env), "token_burn", params)
}

func cmdMint(env *cliEnv, args []string) {
	fs := flag.NewFlagSet("mint", flag.ExitOnError)
	sf := addSignerFlags(fs)
	to := fs.String("to", "", "Recipient address")
	amountStr := fs.String("amount", "", "Amount")
	fs.Parse(args)

	if *to == "" || *amountStr == "" {
		fatal("Usage: feetoken-cli mint --wallet <w> --to <addr> --amount <n>")
	}
	params := rpc.MintParams{To: parseAddr("recipient", *to), Amount: env.amount(*amountStr)}
	env.send(sf.signer(env), "token_mint", params)
}

