package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Klingon-tech/feetoken/internal/wallet"
	"github.com/Klingon-tech/feetoken/pkg/crypto"
)

func cmdWallet(env *cliEnv, args []string) {
	if len(args) == 0 {
		fatal("Usage: feetoken-cli wallet <create|import|list|address|new-address>")
	}
	switch args[0] {
	case "create":
		cmdWalletCreate(env, args[1:])
	case "import":
		cmdWalletImport(env, args[1:])
	case "list":
		cmdWalletList(env)
	case "address":
		cmdWalletAddress(env, args[1:])
	case "new-address":
		cmdWalletNewAddress(env, args[1:])
	default:
		fatal("unknown wallet command: %s", args[0])
	}
}

func cmdWalletCreate(env *cliEnv, args []string) {
	fs := flag.NewFlagSet("wallet create", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: feetoken-cli wallet create --name <name>")
	}

	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		fatal("generate mnemonic: %v", err)
	}

	fmt.Println("Mnemonic (write this down!):")
	fmt.Printf("  %s\n\n", mnemonic)

	createWallet(env, *name, mnemonic)
}

func cmdWalletImport(env *cliEnv, args []string) {
	fs := flag.NewFlagSet("wallet import", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	mnemonic := fs.String("mnemonic", "", "BIP-39 mnemonic (24 words)")
	fs.Parse(args)

	if *name == "" || *mnemonic == "" {
		fatal("Usage: feetoken-cli wallet import --name <name> --mnemonic \"...\"")
	}
	words := strings.Join(strings.Fields(*mnemonic), " ")
	if !wallet.ValidateMnemonic(words) {
		fatal("invalid mnemonic")
	}
	createWallet(env, *name, words)
}

// createWallet prompts for a password and stores the seed of mnemonic.
func createWallet(env *cliEnv, name, mnemonic string) {
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}

	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		fatal("derive seed: %v", err)
	}
	defer func() {
		for i := range seed {
			seed[i] = 0
		}
	}()

	ks, err := wallet.NewKeystore(env.ksDir)
	if err != nil {
		fatal("open keystore: %v", err)
	}
	acct, err := ks.Create(name, seed, password, wallet.DefaultParams())
	if err != nil {
		fatal("create wallet: %v", err)
	}

	fmt.Printf("\nWallet created: %s\n", name)
	fmt.Printf("Address: %s\n", acct.Address)
}

func cmdWalletList(env *cliEnv) {
	ks, err := wallet.NewKeystore(env.ksDir)
	if err != nil {
		fatal("open keystore: %v", err)
	}
	names, err := ks.List()
	if err != nil {
		fatal("list wallets: %v", err)
	}
	if len(names) == 0 {
		fmt.Println("No wallets.")
		return
	}
	for _, n := range names {
		fmt.Println(n)
	}
}

func cmdWalletAddress(env *cliEnv, args []string) {
	fs := flag.NewFlagSet("wallet address", flag.ExitOnError)
	name := fs.String("wallet", "", "Wallet name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: feetoken-cli wallet address --wallet <name>")
	}
	ks, err := wallet.NewKeystore(env.ksDir)
	if err != nil {
		fatal("open keystore: %v", err)
	}
	accounts, err := ks.Accounts(*name)
	if err != nil {
		fatal("read wallet: %v", err)
	}
	for _, a := range accounts {
		fmt.Printf("  %3d  %-12s %s\n", a.Index, a.Name, a.Address)
	}
}

func cmdWalletNewAddress(env *cliEnv, args []string) {
	fs := flag.NewFlagSet("wallet new-address", flag.ExitOnError)
	name := fs.String("wallet", "", "Wallet name")
	label := fs.String("label", "", "Account label")
	fs.Parse(args)

	if *name == "" || *label == "" {
		fatal("Usage: feetoken-cli wallet new-address --wallet <name> --label <label>")
	}
	w := openWallet(env, *name)
	acct, err := w.NewAccount(*label)
	if err != nil {
		fatal("derive account: %v", err)
	}
	fmt.Printf("Account %d (%s): %s\n", acct.Index, acct.Name, acct.Address)
}

func openWallet(env *cliEnv, name string) *wallet.Wallet {
	ks, err := wallet.NewKeystore(env.ksDir)
	if err != nil {
		fatal("open keystore: %v", err)
	}
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	w, err := ks.Open(name, password)
	if err != nil {
		fatal("open wallet: %v", err)
	}
	return w
}

// signerFlags registers --wallet and --account on fs.
type signerFlags struct {
	wallet  *string
	account *string
}

func addSignerFlags(fs *flag.FlagSet) signerFlags {
	return signerFlags{
		wallet:  fs.String("wallet", "", "Wallet name"),
		account: fs.String("account", "default", "Account name or index"),
	}
}

// signer unlocks the selected wallet account.
func (f signerFlags) signer(env *cliEnv) *crypto.PrivateKey {
	if *f.wallet == "" {
		fatal("--wallet is required")
	}
	w := openWallet(env, *f.wallet)
	acct, err := w.Account(*f.account)
	if err != nil {
		fatal("%v", err)
	}
	key, err := w.Signer(acct.Index)
	if err != nil {
		fatal("derive key: %v", err)
	}
	fmt.Fprintf(os.Stderr, "Signing as %s\n", acct.Address)
	return key
}
