package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/Klingon-tech/feetoken/pkg/crypto"
)

func TestDefaults(t *testing.T) {
	main := Default(Mainnet)
	test := Default(Testnet)
	if main.Network != Mainnet || test.Network != Testnet {
		t.Fatal("wrong network in defaults")
	}
	if main.RPC.Port == test.RPC.Port || main.P2P.Port == test.P2P.Port {
		t.Error("mainnet and testnet should not share ports")
	}
	if err := Validate(main); err != nil {
		t.Errorf("mainnet defaults invalid: %v", err)
	}
	if err := Validate(test); err != nil {
		t.Errorf("testnet defaults invalid: %v", err)
	}
}

func TestConfig_Paths(t *testing.T) {
	cfg := &Config{Network: Testnet, DataDir: "/data"}
	if got := cfg.DBDir(); got != filepath.Join("/data", "testnet", "db") {
		t.Errorf("DBDir = %s", got)
	}
	if got := cfg.DeploymentFile(); got != filepath.Join("/data", "testnet", "deployment.json") {
		t.Errorf("DeploymentFile = %s", got)
	}
	cfg.Deployment = "/etc/token.json"
	if got := cfg.DeploymentFile(); got != "/etc/token.json" {
		t.Errorf("DeploymentFile override = %s", got)
	}
}

func TestPublishers(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	pub := hex.EncodeToString(key.PublicKey())

	cfg := DefaultMainnet()
	if err := ApplyFileConfig(cfg, map[string]string{"p2p.publishers": pub + ", 0x" + pub}); err != nil {
		t.Fatalf("ApplyFileConfig: %v", err)
	}
	if len(cfg.P2P.Publishers) != 2 {
		t.Fatalf("publishers = %v", cfg.P2P.Publishers)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("valid publishers rejected: %v", err)
	}

	f, err := ParseFlags([]string{"--publishers", pub})
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	cfg = DefaultMainnet()
	ApplyFlags(cfg, f)
	if len(cfg.P2P.Publishers) != 1 || cfg.P2P.Publishers[0] != pub {
		t.Errorf("publishers from flag = %v", cfg.P2P.Publishers)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feetoken.conf")
	content := `# comment
network = testnet
rpc.port = 9000
rpc.allowed = 127.0.0.1, 10.0.0.0/8
log.level = "debug"

p2p.nodiscover = yes
metrics = off
unknown.key = ignored
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	values, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	cfg := DefaultMainnet()
	if err := ApplyFileConfig(cfg, values); err != nil {
		t.Fatalf("ApplyFileConfig: %v", err)
	}
	if cfg.Network != Testnet {
		t.Errorf("network = %s", cfg.Network)
	}
	if cfg.RPC.Port != 9000 {
		t.Errorf("rpc.port = %d", cfg.RPC.Port)
	}
	if len(cfg.RPC.AllowedIPs) != 2 || cfg.RPC.AllowedIPs[1] != "10.0.0.0/8" {
		t.Errorf("rpc.allowed = %v", cfg.RPC.AllowedIPs)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want quotes stripped", cfg.Log.Level)
	}
	if !cfg.P2P.NoDiscover {
		t.Error("p2p.nodiscover should be true")
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics should be disabled")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	values, err := LoadFile(filepath.Join(t.TempDir(), "nope.conf"))
	if err != nil || len(values) != 0 {
		t.Errorf("missing file: values=%v err=%v", values, err)
	}
}

func TestLoadFile_BadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.conf")
	os.WriteFile(path, []byte("just words\n"), 0o600)
	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for line without =")
	}
}

func TestApplyFileConfig_BadPort(t *testing.T) {
	cfg := DefaultMainnet()
	if err := ApplyFileConfig(cfg, map[string]string{"rpc.port": "abc"}); err == nil {
		t.Error("expected error for non-numeric port")
	}
}

func TestParseFlags(t *testing.T) {
	f, err := ParseFlags([]string{"--testnet", "--rpc=false", "--rpc-port", "9100", "--seeds", "/ip4/1.2.3.4/tcp/1/p2p/x, ", "--log-json"})
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	cfg := DefaultMainnet()
	ApplyFlags(cfg, f)

	if cfg.Network != Testnet {
		t.Errorf("network = %s", cfg.Network)
	}
	if cfg.RPC.Enabled {
		t.Error("--rpc=false should disable RPC")
	}
	if cfg.RPC.Port != 9100 {
		t.Errorf("rpc port = %d", cfg.RPC.Port)
	}
	if len(cfg.P2P.Seeds) != 1 {
		t.Errorf("seeds = %v", cfg.P2P.Seeds)
	}
	if !cfg.Log.JSON {
		t.Error("--log-json should enable JSON logs")
	}
	if !cfg.P2P.Enabled {
		t.Error("unset --p2p should keep the default")
	}
}

func TestParseFlags_PositionalStopsParsing(t *testing.T) {
	if _, err := ParseFlags([]string{"--rpc", "extra", "--p2p=false"}); err == nil {
		t.Error("expected error for flag after positional argument")
	}
}

func TestParseFlags_Unknown(t *testing.T) {
	if _, err := ParseFlags([]string{"--mine"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad network", func(c *Config) { c.Network = "devnet" }},
		{"empty datadir", func(c *Config) { c.DataDir = "" }},
		{"p2p port", func(c *Config) { c.P2P.Port = 70000 }},
		{"rpc port", func(c *Config) { c.RPC.Port = -1 }},
		{"negative maxpeers", func(c *Config) { c.P2P.MaxPeers = -1 }},
		{"bad seed", func(c *Config) { c.P2P.Seeds = []string{"not-a-multiaddr"} }},
		{"metrics path", func(c *Config) { c.Metrics.Path = "metrics" }},
		{"bad publisher", func(c *Config) { c.P2P.Publishers = []string{"02abcd"} }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMainnet()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
	if err := Validate(nil); err == nil {
		t.Error("nil config should fail")
	}
}

func TestLoad_CreatesLayout(t *testing.T) {
	dir := t.TempDir()
	cfg, _, err := Load([]string{"--datadir", dir, "--testnet", "--rpc-port", "9200"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RPC.Port != 9200 || cfg.Network != Testnet {
		t.Errorf("cfg = %+v", cfg)
	}
	for _, p := range []string{cfg.ConfigFile(), cfg.DBDir(), cfg.KeystoreDir()} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s not created: %v", p, err)
		}
	}

	// The generated config file parses and validates.
	values, err := LoadFile(cfg.ConfigFile())
	if err != nil {
		t.Fatalf("LoadFile(default): %v", err)
	}
	fresh := DefaultTestnet()
	fresh.DataDir = dir
	if err := ApplyFileConfig(fresh, values); err != nil {
		t.Fatalf("apply default file: %v", err)
	}
	if err := Validate(fresh); err != nil {
		t.Errorf("default file invalid: %v", err)
	}
}

func TestLoad_HelpShortCircuits(t *testing.T) {
	cfg, f, err := Load([]string{"--help"})
	if err != nil || cfg != nil || !f.Help {
		t.Errorf("Load(--help) = %v, %+v, %v", cfg, f, err)
	}
}
