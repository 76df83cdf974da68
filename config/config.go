// Package config handles node configuration.
//
// Configuration is split into two categories:
//   - Deployment parameters: the token's identity and initial policy, read
//     once from deployment.json when the token is first deployed
//   - Node settings: runtime configuration, can vary per node
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Config holds node-specific runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Deployment file used on first start (default <datadir>/<network>/deployment.json).
	Deployment string `conf:"deployment"`

	P2P     P2PConfig
	RPC     RPCConfig
	Metrics MetricsConfig
	Log     LogConfig
}

// P2PConfig holds event gossip settings.
type P2PConfig struct {
	Enabled    bool     `conf:"p2p.enabled"`
	ListenAddr string   `conf:"p2p.listen"`
	Port       int      `conf:"p2p.port"`
	Seeds      []string `conf:"p2p.seeds"`
	MaxPeers   int      `conf:"p2p.maxpeers"`
	NoDiscover bool     `conf:"p2p.nodiscover"`
	DHTServer  bool     `conf:"p2p.dhtserver"`
	// Hex public keys whose signed events are accepted from gossip. The
	// node's own publisher key is always accepted.
	Publishers []string `conf:"p2p.publishers"`
}

// RPCConfig holds RPC server settings.
type RPCConfig struct {
	Enabled     bool     `conf:"rpc.enabled"`
	Addr        string   `conf:"rpc.addr"`
	Port        int      `conf:"rpc.port"`
	AllowedIPs  []string `conf:"rpc.allowed"`
	CORSOrigins []string `conf:"rpc.cors"` // "*" allows any origin.
}

// MetricsConfig controls the Prometheus endpoint served next to the RPC API.
type MetricsConfig struct {
	Enabled bool   `conf:"metrics.enabled"`
	Path    string `conf:"metrics.path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.feetoken
//	macOS:   ~/Library/Application Support/FeeToken
//	Windows: %APPDATA%\FeeToken
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".feetoken"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "FeeToken")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "FeeToken")
		}
		return filepath.Join(home, "AppData", "Roaming", "FeeToken")
	default:
		return filepath.Join(home, ".feetoken")
	}
}

// NetworkDir returns the network-specific data directory.
func (c *Config) NetworkDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// DBDir returns the Badger database directory.
func (c *Config) DBDir() string {
	return filepath.Join(c.NetworkDir(), "db")
}

// KeystoreDir returns the keystore directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.NetworkDir(), "keystore")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "feetoken.conf")
}

// DeploymentFile returns the deployment file path.
func (c *Config) DeploymentFile() string {
	if c.Deployment != "" {
		return c.Deployment
	}
	return filepath.Join(c.NetworkDir(), "deployment.json")
}
