package node

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Klingon-tech/feetoken/pkg/crypto"
)

const publisherKeyFile = "publisher.key"

// expandHome resolves "~" and "~/..." against the user's home directory.
// "~user" forms are left alone.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// loadPublisherKey reads the secp256k1 key this node signs gossiped events
// with, creating it on first start.
func loadPublisherKey(dir string) (*crypto.PrivateKey, error) {
	path := filepath.Join(dir, publisherKeyFile)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		raw, err := hex.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return crypto.PrivateKeyFromBytes(raw)
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(key.Serialize())), 0o600); err != nil {
		return nil, fmt.Errorf("save publisher key: %w", err)
	}
	return key, nil
}

// decodePublishers parses hex compressed public keys.
func decodePublishers(keys []string) ([][]byte, error) {
	out := make([][]byte, 0, len(keys))
	for i, k := range keys {
		raw, err := hex.DecodeString(strings.TrimPrefix(k, "0x"))
		if err != nil || !crypto.ValidPublicKey(raw) {
			return nil, fmt.Errorf("p2p.publishers[%d]: invalid public key", i)
		}
		out = append(out, raw)
	}
	return out, nil
}
