// feetoken-cli is a command-line client for interacting with a feetokend node.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Klingon-tech/feetoken/config"
	"github.com/Klingon-tech/feetoken/internal/rpcclient"
)

// keystoreDir returns the keystore path matching feetokend's layout:
// <datadir>/<network>/keystore
func keystoreDir(dataDir, network string) string {
	return filepath.Join(dataDir, network, "keystore")
}

// defaultRPCURL returns the local RPC endpoint for network.
func defaultRPCURL(network string) string {
	cfg := config.Default(config.NetworkType(network))
	return fmt.Sprintf("http://%s:%d", cfg.RPC.Addr, cfg.RPC.Port)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	rpcURL := ""
	dataDir := config.DefaultDataDir()
	network := string(config.Mainnet)

	// Scan for --rpc, --datadir and --network before the subcommand.
	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--rpc" && len(args) > 1:
			rpcURL = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--rpc="):
			rpcURL = args[0][len("--rpc="):]
			args = args[1:]
		case args[0] == "--datadir" && len(args) > 1:
			dataDir = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--datadir="):
			dataDir = args[0][len("--datadir="):]
			args = args[1:]
		case args[0] == "--network" && len(args) > 1:
			network = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--network="):
			network = args[0][len("--network="):]
			args = args[1:]
		case args[0] == "--testnet":
			network = string(config.Testnet)
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	if network != string(config.Mainnet) && network != string(config.Testnet) {
		fatal("unknown network %q (want mainnet or testnet)", network)
	}
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}
	if rpcURL == "" {
		rpcURL = defaultRPCURL(network)
	}

	env := &cliEnv{
		client: rpcclient.New(rpcURL),
		ksDir:  keystoreDir(dataDir, network),
	}
	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "status":
		cmdStatus(env)
	case "info":
		cmdInfo(env)
	case "balance":
		cmdBalance(env, cmdArgs)
	case "allowance":
		cmdAllowance(env, cmdArgs)
	case "policy":
		cmdPolicy(env)
	case "preview":
		cmdPreview(env, cmdArgs)
	case "events":
		cmdEvents(env, cmdArgs)
	case "holders":
		cmdHolders(env)
	case "blacklist":
		cmdBlacklist(env)
	case "peers":
		cmdPeers(env)
	case "bans":
		cmdBans(env)
	case "wallet":
		cmdWallet(env, cmdArgs)
	case "transfer":
		cmdTransfer(env, cmdArgs)
	case "approve":
		cmdApprove(env, cmdArgs)
	case "transfer-from":
		cmdTransferFrom(env, cmdArgs)
	case "burn":
		cmdBurn(env, cmdArgs)
	case "mint":
		cmdMint(env, cmdArgs)
	case "admin":
		cmdAdmin(env, cmdArgs)
	case "version", "--version":
		fmt.Printf("feetoken-cli %s\n", config.Version)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

// cliEnv carries the state shared by all subcommands.
type cliEnv struct {
	client *rpcclient.Client
	ksDir  string

	decimals *uint8 // cached from token_getInfo
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: feetoken-cli [global flags] <command> [flags]

Global flags:
  --rpc <url>         RPC endpoint (default: local node for the network)
  --datadir <path>    Data directory (default: ~/.feetoken)
  --network <net>     mainnet (default) or testnet
  --testnet           Shorthand for --network testnet

Queries:
  status                          Show token and node status
  info                            Show token metadata and supply
  balance <address>               Show balance
  allowance <owner> <spender>     Show allowance
  policy                          Show the transfer policy
  preview --from <a> --to <a> --amount <n>
                                  Dry-run a movement and show the fee split
  events [--from <seq>] [--limit <n>]
                                  Show the event journal
  holders                         List non-zero balances
  blacklist                       List blacklisted accounts
  peers                           Show connected peers
  bans                            Show banned peers

Wallet:
  wallet create --name <n>        Create a new wallet
  wallet import --name <n> --mnemonic "..."
                                  Import wallet from mnemonic
  wallet list                     List wallets
  wallet address --wallet <w>     List wallet accounts
  wallet new-address --wallet <w> --label <l>
                                  Derive a new account

Commands (signed with --wallet <w> [--account <name|index>]):
  transfer --to <addr> --amount <n>
  approve --spender <addr> --amount <n>
  transfer-from --from <addr> --to <addr> --amount <n>
  burn --amount <n> [--from <addr>]
  mint --to <addr> --amount <n>

Admin (owner only, same signing flags):
  admin set-fee --bp <basis points>
  admin set-fee-recipient --account <addr>
  admin set-max-tx --amount <n>          (0 = unlimited)
  admin set-max-wallet --amount <n>      (0 = unlimited)
  admin set-supply-cap --amount <n>      (0 = uncapped)
  admin blacklist --account <addr>
  admin unblacklist --account <addr>
  admin pause
  admin unpause
  admin transfer-ownership --account <addr>
  admin renounce-ownership
  admin rescue --to <addr> --amount <n>

Amounts are decimal token units (e.g. 1.5) scaled by the token's decimals.
`)
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
