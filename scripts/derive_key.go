// derive_key.go prints the pubkey and address for a hex-encoded private key
// file. Given a token name and symbol it also prints the contract address a
// deployment owned by that key would get.
//
// Usage: go run scripts/derive_key.go <keyfile> [name symbol]
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/Klingon-tech/feetoken/pkg/crypto"
)

func main() {
	if len(os.Args) != 2 && len(os.Args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: derive_key <keyfile> [name symbol]")
		os.Exit(1)
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	keyBytes, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	key, err := crypto.PrivateKeyFromBytes(keyBytes)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer key.Zero()

	owner := key.Address()
	fmt.Printf("pubkey=%s\n", hex.EncodeToString(key.PublicKey()))
	fmt.Printf("address=%s\n", owner)
	if len(os.Args) == 4 {
		fmt.Printf("contract=%s\n", crypto.ContractAddress(os.Args[2], os.Args[3], owner))
	}
}
