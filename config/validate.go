package config

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/multiformats/go-multiaddr"

	"github.com/Klingon-tech/feetoken/pkg/crypto"
)

// Validate checks runtime node config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("datadir must be set")
	}
	if cfg.P2P.Port < 0 || cfg.P2P.Port > 65535 {
		return fmt.Errorf("p2p.port must be in range [0, 65535]")
	}
	if cfg.P2P.MaxPeers < 0 {
		return fmt.Errorf("p2p.maxpeers must not be negative")
	}
	for i, seed := range cfg.P2P.Seeds {
		if _, err := multiaddr.NewMultiaddr(seed); err != nil {
			return fmt.Errorf("p2p.seeds[%d]: %w", i, err)
		}
	}
	for i, key := range cfg.P2P.Publishers {
		raw, err := hex.DecodeString(strings.TrimPrefix(key, "0x"))
		if err != nil || !crypto.ValidPublicKey(raw) {
			return fmt.Errorf("p2p.publishers[%d]: not a compressed secp256k1 public key", i)
		}
	}
	if cfg.RPC.Port < 0 || cfg.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port must be in range [0, 65535]")
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "", "trace", "debug", "info", "warn", "error", "off", "disabled":
	default:
		return fmt.Errorf("log.level %q is not a valid level", cfg.Log.Level)
	}
	return nil
}
