// Package backend provides read-only blockchain API clients used by the send flow
// for balances, unspent outputs and fee rates. Nothing here touches private keys
// and nothing here broadcasts.
package backend

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Klingon-tech/btcsend/internal/chain"
)

// Common errors
var (
	ErrNotConnected       = errors.New("backend not connected")
	ErrAddressNotFound    = errors.New("address not found")
	ErrRateLimited        = errors.New("rate limited")
	ErrUnsupportedBackend = errors.New("unsupported backend type")
	ErrNoBackend          = errors.New("no backend for network")
)

// Type represents the backend type.
type Type string

const (
	TypeMempool Type = "mempool" // mempool.space API
	TypeEsplora Type = "esplora" // blockstream.info API
)

// UTXO represents an unspent transaction output.
type UTXO struct {
	TxID          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Amount        uint64 `json:"value"` // satoshis
	Confirmations int64  `json:"confirmations"`
	BlockHeight   int64  `json:"block_height,omitempty"`
}

// AddressInfo contains address balance info.
type AddressInfo struct {
	Address        string `json:"address"`
	TxCount        int64  `json:"tx_count"`
	FundedSum      uint64 `json:"funded_txo_sum"`
	SpentSum       uint64 `json:"spent_txo_sum"`
	Balance        uint64 `json:"balance"`         // confirmed
	MempoolBalance int64  `json:"mempool_balance"` // unconfirmed delta
}

// FeeEstimate contains fee estimation for different confirmation targets.
type FeeEstimate struct {
	FastestFee  uint64 `json:"fastest_fee"`   // sat/vB for next block
	HalfHourFee uint64 `json:"half_hour_fee"` // sat/vB for ~30 min
	HourFee     uint64 `json:"hour_fee"`      // sat/vB for ~1 hour
	EconomyFee  uint64 `json:"economy_fee"`   // sat/vB for low priority
	MinimumFee  uint64 `json:"minimum_fee"`   // sat/vB minimum relay fee
}

// FeeTarget names one of the FeeEstimate buckets.
type FeeTarget string

const (
	FeeTargetFastest  FeeTarget = "fastest"
	FeeTargetHalfHour FeeTarget = "half_hour"
	FeeTargetHour     FeeTarget = "hour"
	FeeTargetEconomy  FeeTarget = "economy"
)

// Rate returns the sat/vB rate for a target, never less than the minimum fee
// and never zero.
func (f *FeeEstimate) Rate(target FeeTarget) uint64 {
	var rate uint64
	switch target {
	case FeeTargetFastest:
		rate = f.FastestFee
	case FeeTargetHour:
		rate = f.HourFee
	case FeeTargetEconomy:
		rate = f.EconomyFee
	default:
		rate = f.HalfHourFee
	}
	if rate < f.MinimumFee {
		rate = f.MinimumFee
	}
	if rate == 0 {
		rate = 1
	}
	return rate
}

// Backend defines the interface for blockchain data providers.
type Backend interface {
	// Type returns the backend type (mempool, esplora).
	Type() Type

	// Connect checks that the API is reachable.
	Connect(ctx context.Context) error

	// Close releases the backend.
	Close() error

	// IsConnected returns true if connected.
	IsConnected() bool

	GetAddressInfo(ctx context.Context, address string) (*AddressInfo, error)
	GetAddressUTXOs(ctx context.Context, address string) ([]UTXO, error)
	GetBlockHeight(ctx context.Context) (int64, error)
	GetFeeEstimates(ctx context.Context) (*FeeEstimate, error)
}

// Config contains backend configuration.
type Config struct {
	Type Type   `yaml:"type"`
	URL  string `yaml:"url"`

	// Timeout in seconds, default 30
	Timeout int `yaml:"timeout,omitempty"`
}

// DefaultConfigs returns default backend configurations per network.
func DefaultConfigs() map[chain.Network]*Config {
	return map[chain.Network]*Config{
		chain.Mainnet: {Type: TypeMempool, URL: "https://mempool.space/api"},
		chain.Testnet: {Type: TypeMempool, URL: "https://mempool.space/testnet/api"},
		chain.Signet:  {Type: TypeMempool, URL: "https://mempool.space/signet/api"},
		chain.Regtest: {Type: TypeEsplora, URL: "http://127.0.0.1:3002"},
	}
}

// New creates a backend from its configuration.
func New(cfg *Config) (Backend, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("%w: missing url", ErrUnsupportedBackend)
	}
	switch cfg.Type {
	case TypeMempool, "":
		b := NewMempoolBackend(cfg.URL)
		b.setTimeout(cfg.Timeout)
		return b, nil
	case TypeEsplora:
		b := NewEsploraBackend(cfg.URL)
		b.setTimeout(cfg.Timeout)
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, cfg.Type)
	}
}

// Registry holds backend instances by network.
type Registry struct {
	backends map[chain.Network]Backend
}

// NewRegistry creates a new backend registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[chain.Network]Backend),
	}
}

// NewRegistryFromConfigs builds a registry, falling back to DefaultConfigs for
// networks missing from configs.
func NewRegistryFromConfigs(configs map[chain.Network]*Config) (*Registry, error) {
	r := NewRegistry()
	merged := DefaultConfigs()
	for network, cfg := range configs {
		merged[network] = cfg
	}

	for network, cfg := range merged {
		b, err := New(cfg)
		if err != nil {
			return nil, fmt.Errorf("backend for %s: %w", network, err)
		}
		r.Register(network, b)
	}
	return r, nil
}

// Register adds a backend to the registry.
func (r *Registry) Register(network chain.Network, backend Backend) {
	r.backends[network] = backend
}

// Get returns a backend by network.
func (r *Registry) Get(network chain.Network) (Backend, bool) {
	b, ok := r.backends[network]
	return b, ok
}

// Backend returns the backend for network or ErrNoBackend.
func (r *Registry) Backend(network chain.Network) (Backend, error) {
	b, ok := r.backends[network]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoBackend, network)
	}
	return b, nil
}

// List returns all registered networks.
func (r *Registry) List() []chain.Network {
	networks := make([]chain.Network, 0, len(r.backends))
	for n := range r.backends {
		networks = append(networks, n)
	}
	sort.Slice(networks, func(i, j int) bool { return networks[i] < networks[j] })
	return networks
}

// CloseAll closes all registered backends.
func (r *Registry) CloseAll() {
	for _, b := range r.backends {
		b.Close()
	}
}
