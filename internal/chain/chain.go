// Package chain defines Bitcoin network parameters and derivation paths.
// All network-specific values are hardcoded here - no external configuration needed.
package chain

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/btcsuite/btcd/chaincfg"
)

// ErrUnknownNetwork is returned for network names that are not registered.
var ErrUnknownNetwork = errors.New("unknown network")

// Network identifies a Bitcoin network.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
	Signet  Network = "signet"
	Regtest Network = "regtest"
)

// AddressType represents the address encoding format.
type AddressType string

const (
	AddressP2PKH  AddressType = "p2pkh"  // Legacy (1...)
	AddressP2SH   AddressType = "p2sh"   // Script hash (3...)
	AddressP2WPKH AddressType = "p2wpkh" // Native SegWit (bc1q...)
	AddressP2WSH  AddressType = "p2wsh"  // SegWit script (bc1q..., 32-byte program)
	AddressP2TR   AddressType = "p2tr"   // Taproot (bc1p...)
)

// Params contains all parameters for one Bitcoin network.
type Params struct {
	Network  Network
	Name     string // Bitcoin, Bitcoin Testnet, ...
	Symbol   string // always BTC
	Decimals uint8

	// BIP44 coin type (0 for mainnet, 1 for every test network)
	CoinType uint32
	// BIP84 native SegWit purpose
	DefaultPurpose uint32

	// Net is the btcd parameter set used for address encoding and decoding.
	Net *chaincfg.Params

	DefaultAddressType AddressType
}

// Bech32HRP returns the SegWit human-readable prefix (bc, tb, bcrt).
func (p *Params) Bech32HRP() string {
	return p.Net.Bech32HRPSegwit
}

// DerivationPath returns the BIP84 derivation path for this network.
// Format: m/purpose'/coin'/account'/change/index
func (p *Params) DerivationPath(account, change, index uint32) []uint32 {
	return []uint32{
		p.DefaultPurpose + 0x80000000, // purpose' (hardened)
		p.CoinType + 0x80000000,       // coin_type' (hardened)
		account + 0x80000000,          // account' (hardened)
		change,                        // change (0=external, 1=internal)
		index,                         // address_index
	}
}

// DerivationPathString returns the derivation path as a string.
func (p *Params) DerivationPathString(account, change, index uint32) string {
	return fmt.Sprintf("m/%d'/%d'/%d'/%d/%d", p.DefaultPurpose, p.CoinType, account, change, index)
}

var registry = make(map[Network]*Params)

// Register adds network params to the registry.
func Register(params *Params) {
	registry[params.Network] = params
}

// Get returns params for a network.
func Get(network Network) (*Params, bool) {
	params, ok := registry[network]
	return params, ok
}

// List returns all registered networks in a stable order.
func List() []Network {
	networks := make([]Network, 0, len(registry))
	for n := range registry {
		networks = append(networks, n)
	}
	sort.Slice(networks, func(i, j int) bool { return networks[i] < networks[j] })
	return networks
}

// Selector tracks the network the wallet is currently pointed at.
// It is the network-context provider of the send form.
type Selector struct {
	mu        sync.RWMutex
	current   *Params
	listeners []func(*Params)
}

// NewSelector creates a selector starting on the given network.
func NewSelector(network Network) (*Selector, error) {
	params, ok := Get(network)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNetwork, network)
	}
	return &Selector{current: params}, nil
}

// Current returns the active network params.
func (s *Selector) Current() *Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Switch changes the active network and notifies listeners.
func (s *Selector) Switch(network Network) (*Params, error) {
	params, ok := Get(network)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNetwork, network)
	}

	s.mu.Lock()
	s.current = params
	listeners := append([]func(*Params){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(params)
	}
	return params, nil
}

// OnSwitch registers a callback invoked after every Switch.
func (s *Selector) OnSwitch(fn func(*Params)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}
