package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/Klingon-tech/feetoken/internal/rpc"
)

// ── status / info ───────────────────────────────────────────────────────

func cmdStatus(env *cliEnv) {
	info, err := env.client.Info()
	if err != nil {
		fatal("token_getInfo: %v", err)
	}
	env.decimals = &info.Decimals
	fmt.Printf("Token:       %s (%s)\n", info.Name, info.Symbol)
	fmt.Printf("Contract:    %s\n", info.Contract)
	fmt.Printf("Supply:      %s\n", env.format(info.TotalSupply))
	fmt.Printf("Paused:      %v\n", info.Policy.Paused)
	fmt.Printf("Last event:  %d\n", info.LastEventSeq)

	var peers rpc.PeerInfoResult
	if err := env.client.Call("net_getPeerInfo", nil, &peers); err == nil {
		fmt.Printf("Peers:       %d\n", peers.Count)
	}
	var node rpc.NodeInfoResult
	if err := env.client.Call("net_getNodeInfo", nil, &node); err == nil {
		fmt.Printf("Node ID:     %s\n", node.ID)
		fmt.Printf("Topic:       %s\n", node.Topic)
		if node.Publisher != "" {
			fmt.Printf("Publisher:   %s\n", node.Publisher)
		}
	}
}

func cmdInfo(env *cliEnv) {
	info, err := env.client.Info()
	if err != nil {
		fatal("token_getInfo: %v", err)
	}
	env.decimals = &info.Decimals
	fmt.Printf("Name:        %s\n", info.Name)
	fmt.Printf("Symbol:      %s\n", info.Symbol)
	fmt.Printf("Decimals:    %d\n", info.Decimals)
	fmt.Printf("Owner:       %s\n", ownerString(info))
	fmt.Printf("Contract:    %s\n", info.Contract)
	fmt.Printf("Supply:      %s\n", env.format(info.TotalSupply))
}

func ownerString(info *rpc.InfoResult) string {
	if info.Owner.IsZero() {
		return "(renounced)"
	}
	return info.Owner.String()
}

// ── balances ────────────────────────────────────────────────────────────

func cmdBalance(env *cliEnv, args []string) {
	if len(args) < 1 {
		fatal("Usage: feetoken-cli balance <address>")
	}
	addr := parseAddr("account", args[0])
	bal, err := env.client.BalanceOf(addr)
	if err != nil {
		fatal("token_balanceOf: %v", err)
	}
	fmt.Printf("%s\n", env.format(bal))
}

func cmdAllowance(env *cliEnv, args []string) {
	if len(args) < 2 {
		fatal("Usage: feetoken-cli allowance <owner> <spender>")
	}
	amt, err := env.client.Allowance(parseAddr("owner", args[0]), parseAddr("spender", args[1]))
	if err != nil {
		fatal("token_allowance: %v", err)
	}
	fmt.Printf("%s\n", env.format(amt))
}

func cmdHolders(env *cliEnv) {
	holders, err := env.client.Holders()
	if err != nil {
		fatal("token_getHolders: %v", err)
	}
	if len(holders) == 0 {
		fmt.Println("No holders.")
		return
	}
	for _, h := range holders {
		fmt.Printf("  %s  %s\n", h.Address, env.format(h.Balance))
	}
}

// ── policy ──────────────────────────────────────────────────────────────

func cmdPolicy(env *cliEnv) {
	cfg, err := env.client.Policy()
	if err != nil {
		fatal("token_getPolicy: %v", err)
	}
	fmt.Printf("Transfer fee:   %d bp (%.2f%%)\n", cfg.TransferFeeBasisPoints, float64(cfg.TransferFeeBasisPoints)/100)
	fmt.Printf("Fee recipient:  %s\n", cfg.FeeRecipient)
	fmt.Printf("Max tx:         %s\n", env.limit(cfg.MaxTxAmount, "unlimited"))
	fmt.Printf("Max wallet:     %s\n", env.limit(cfg.MaxWalletBalance, "unlimited"))
	fmt.Printf("Supply cap:     %s\n", env.limit(cfg.SupplyCap, "uncapped"))
	fmt.Printf("Paused:         %v\n", cfg.Paused)
}

func (e *cliEnv) limit(v uint64, zero string) string {
	if v == 0 {
		return zero
	}
	return e.format(v)
}

func cmdPreview(env *cliEnv, args []string) {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	from := fs.String("from", "", "Sender address (empty for mint)")
	to := fs.String("to", "", "Recipient address (empty for burn)")
	amountStr := fs.String("amount", "", "Amount")
	fs.Parse(args)

	if *amountStr == "" || (*from == "" && *to == "") {
		fatal("Usage: feetoken-cli preview --from <addr> --to <addr> --amount <n>")
	}
	var p rpc.PreviewParam
	if *from != "" {
		p.From = parseAddr("sender", *from)
	}
	if *to != "" {
		p.To = parseAddr("recipient", *to)
	}
	split, err := env.client.Preview(p.From, p.To, env.amount(*amountStr))
	if err != nil {
		fatal("rejected: %v", err)
	}
	fmt.Printf("Fee:  %s\n", env.format(split.Fee))
	fmt.Printf("Net:  %s\n", env.format(split.Net))
	for _, leg := range split.Legs {
		fmt.Printf("  %s -> %s  %s\n", leg.From, leg.To, env.format(leg.Amount))
	}
}

// ── events ──────────────────────────────────────────────────────────────

func cmdEvents(env *cliEnv, args []string) {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	from := fs.Uint64("from", 0, "First sequence number")
	limit := fs.Int("limit", 50, "Maximum events to show")
	fs.Parse(args)

	res, err := env.client.Events(*from, *limit)
	if err != nil {
		fatal("token_getEvents: %v", err)
	}
	if len(res.Events) == 0 {
		fmt.Println("No events.")
		return
	}
	for _, ev := range res.Events {
		fmt.Printf("#%-6d %-22s", ev.Seq, ev.Name)
		switch {
		case ev.From != nil && ev.To != nil:
			fmt.Printf(" %s -> %s %s", ev.From, ev.To, env.format(ev.Amount))
		case ev.Account != nil:
			fmt.Printf(" %s %s -> %s", ev.Account, ev.OldValue, ev.NewValue)
		default:
			fmt.Printf(" %s -> %s", ev.OldValue, ev.NewValue)
		}
		fmt.Println()
	}
	fmt.Printf("Last seq: %d\n", res.LastSeq)
}

// ── blacklist ───────────────────────────────────────────────────────────

func cmdBlacklist(env *cliEnv) {
	list, err := env.client.Blacklist()
	if err != nil {
		fatal("token_getBlacklist: %v", err)
	}
	if len(list) == 0 {
		fmt.Println("Blacklist is empty.")
		return
	}
	for _, a := range list {
		fmt.Printf("  %s\n", a)
	}
}

// ── network ─────────────────────────────────────────────────────────────

func cmdPeers(env *cliEnv) {
	var res rpc.PeerInfoResult
	if err := env.client.Call("net_getPeerInfo", nil, &res); err != nil {
		fatal("net_getPeerInfo: %v", err)
	}
	fmt.Printf("Peers: %d\n", res.Count)
	for _, p := range res.Peers {
		fmt.Printf("  %s  %s  %s\n", p.ID, p.ConnectedAt, p.Source)
	}
}

func cmdBans(env *cliEnv) {
	var res rpc.BanListResult
	if err := env.client.Call("net_getBanList", nil, &res); err != nil {
		fatal("net_getBanList: %v", err)
	}
	fmt.Printf("Bans: %d\n", res.Count)
	for _, b := range res.Bans {
		expires := "permanent"
		if b.ExpiresAt > 0 {
			expires = time.Unix(b.ExpiresAt, 0).UTC().Format(time.RFC3339)
		}
		fmt.Printf("  %s  score=%d  until=%s  %s\n", b.ID, b.Score, expires, b.Reason)
	}
}
