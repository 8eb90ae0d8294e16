package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Klingon-tech/btcsend/internal/backend"
	"github.com/Klingon-tech/btcsend/internal/chain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Network != chain.Mainnet {
		t.Errorf("expected mainnet, got %s", cfg.Network)
	}
	if cfg.Wallet.Type != WalletSoftware {
		t.Errorf("expected software wallet, got %s", cfg.Wallet.Type)
	}
	if cfg.Send.HighFeeThreshold != HighFeeAmountSats {
		t.Errorf("expected high fee threshold %d, got %d", HighFeeAmountSats, cfg.Send.HighFeeThreshold)
	}
	if cfg.Send.MinimumSpend != BtcP2WPKHDustAmount {
		t.Errorf("expected minimum spend %d, got %d", BtcP2WPKHDustAmount, cfg.Send.MinimumSpend)
	}
	if cfg.Send.FeeTarget != backend.FeeTargetHalfHour {
		t.Errorf("expected half_hour fee target, got %s", cfg.Send.FeeTarget)
	}
	if cfg.NamesURL(chain.Mainnet) == "" {
		t.Error("expected a default mainnet names API")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown network", func(c *Config) { c.Network = "dogenet" }},
		{"unknown wallet", func(c *Config) { c.Wallet.Type = "trezor" }},
		{"zero threshold", func(c *Config) { c.Send.HighFeeThreshold = 0 }},
		{"no listen address", func(c *Config) { c.RPC.Listen = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadCreatesDefault(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.DataDir != dir {
		t.Errorf("DataDir = %s, want %s", cfg.Storage.DataDir, dir)
	}

	if _, err := os.Stat(filepath.Join(dir, ConfigFileName)); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	again, err := Load(dir)
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if again.Send.HighFeeThreshold != cfg.Send.HighFeeThreshold {
		t.Error("reloaded config differs from the generated one")
	}
}

func TestLoadFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	yamlData := `
network: testnet
wallet:
  type: ledger
  account_xpubs:
    testnet: tpubExample
send:
  high_fee_threshold: 250000
backends:
  testnet:
    type: esplora
    url: http://localhost:3002
logging:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(yamlData), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Network != chain.Testnet {
		t.Errorf("Network = %s, want testnet", cfg.Network)
	}
	if cfg.Wallet.Type != WalletLedger {
		t.Errorf("Wallet.Type = %s, want ledger", cfg.Wallet.Type)
	}
	if cfg.Wallet.AccountXPubs[chain.Testnet] != "tpubExample" {
		t.Errorf("AccountXPubs = %v", cfg.Wallet.AccountXPubs)
	}
	if cfg.Send.HighFeeThreshold != 250000 {
		t.Errorf("HighFeeThreshold = %d, want 250000", cfg.Send.HighFeeThreshold)
	}
	// Unset fields keep their defaults
	if cfg.Send.MinimumSpend != BtcP2WPKHDustAmount {
		t.Errorf("MinimumSpend = %d, want default", cfg.Send.MinimumSpend)
	}
	if b := cfg.Backends[chain.Testnet]; b == nil || b.Type != backend.TypeEsplora {
		t.Errorf("Backends[testnet] = %+v", b)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %s, want json", cfg.Logging.Format)
	}
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("network: dogenet\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFile(path); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("LoadFile() error = %v, want ErrInvalidConfig", err)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()
	if got := ExpandPath("~/.test"); got != filepath.Join(home, ".test") {
		t.Errorf("ExpandPath(~/.test) = %s", got)
	}
	if got := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandPath(/abs/path) = %s", got)
	}
}
