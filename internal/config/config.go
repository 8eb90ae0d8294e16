// Package config provides the YAML configuration for the btcsend daemon.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Klingon-tech/btcsend/internal/backend"
	"github.com/Klingon-tech/btcsend/internal/chain"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// WalletType selects the signing path taken after a transaction preview.
type WalletType string

const (
	WalletSoftware WalletType = "software"
	WalletLedger   WalletType = "ledger"
)

// Config holds all configuration for the daemon.
type Config struct {
	// Network is the network the wallet starts on.
	Network chain.Network `yaml:"network"`

	Wallet WalletConfig `yaml:"wallet"`

	Send SendConfig `yaml:"send"`

	// Backends holds blockchain API configurations per network.
	// If not specified, defaults to public APIs (mempool.space).
	Backends map[chain.Network]*backend.Config `yaml:"backends,omitempty"`

	// Names holds BNS API base URLs per network.
	Names map[chain.Network]string `yaml:"names,omitempty"`

	RPC RPCConfig `yaml:"rpc"`

	Storage StorageConfig `yaml:"storage"`

	Logging LoggingConfig `yaml:"logging"`
}

// WalletConfig describes the account the send form spends from.
type WalletConfig struct {
	// Type is software or ledger.
	Type WalletType `yaml:"type"`

	// AccountXPubs maps a network to the BIP84 account extended public key
	// (m/84'/coin'/0'). Only public material is ever configured.
	AccountXPubs map[chain.Network]string `yaml:"account_xpubs"`
}

// SendConfig holds send form thresholds.
type SendConfig struct {
	// HighFeeThreshold is the fee in satoshis above which the form asks for
	// confirmation.
	HighFeeThreshold uint64 `yaml:"high_fee_threshold"`

	// MinimumSpend is the smallest amount in satoshis the form accepts.
	MinimumSpend uint64 `yaml:"minimum_spend"`

	// FeeTarget picks the fee estimate bucket (fastest, half_hour, hour, economy).
	FeeTarget backend.FeeTarget `yaml:"fee_target"`
}

// RPCConfig holds API server settings.
type RPCConfig struct {
	Listen string `yaml:"listen"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	// DataDir is the directory for all data files.
	DataDir string `yaml:"data_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `yaml:"level"`

	// Format is text, json or logfmt.
	Format string `yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Network: chain.Mainnet,
		Wallet: WalletConfig{
			Type:         WalletSoftware,
			AccountXPubs: map[chain.Network]string{},
		},
		Send: SendConfig{
			HighFeeThreshold: HighFeeAmountSats,
			MinimumSpend:     BtcP2WPKHDustAmount,
			FeeTarget:        backend.FeeTargetHalfHour,
		},
		Names: map[chain.Network]string{
			chain.Mainnet: "https://api.hiro.so",
			chain.Testnet: "https://api.testnet.hiro.so",
		},
		RPC: RPCConfig{
			Listen: "127.0.0.1:8089",
		},
		Storage: StorageConfig{
			DataDir: "~/.btcsend",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks values that would otherwise fail deep inside the daemon.
func (c *Config) Validate() error {
	if _, ok := chain.Get(c.Network); !ok {
		return fmt.Errorf("%w: unknown network %q", ErrInvalidConfig, c.Network)
	}
	switch c.Wallet.Type {
	case WalletSoftware, WalletLedger:
	default:
		return fmt.Errorf("%w: unknown wallet type %q", ErrInvalidConfig, c.Wallet.Type)
	}
	if c.Send.HighFeeThreshold == 0 {
		return fmt.Errorf("%w: send.high_fee_threshold must be positive", ErrInvalidConfig)
	}
	if c.RPC.Listen == "" {
		return fmt.Errorf("%w: rpc.listen is required", ErrInvalidConfig)
	}
	return nil
}

// NamesURL returns the BNS API URL for a network, empty when unset.
func (c *Config) NamesURL(network chain.Network) string {
	return c.Names[network]
}

// ConfigFileName is the default config file name.
const ConfigFileName = "config.yaml"

// Load loads configuration from a YAML file in dataDir.
// If the file doesn't exist, it creates one with default values.
func Load(dataDir string) (*Config, error) {
	configPath := ConfigPath(dataDir)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.Storage.DataDir = dataDir

		if err := cfg.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	return LoadFile(configPath)
}

// LoadFile reads a config file, filling unset fields with defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	path = ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# btcsend daemon configuration\n# Generated automatically on first run\n\n")
	data = append(header, data...)

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ConfigPath returns the full path to the config file for the given data directory.
func ConfigPath(dataDir string) string {
	return filepath.Join(ExpandPath(dataDir), ConfigFileName)
}

// ExpandPath expands ~ to home directory.
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}
