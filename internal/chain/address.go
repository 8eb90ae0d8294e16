package chain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
)

// ErrInvalidAddress is returned when a string is not a Bitcoin address on any
// registered network.
var ErrInvalidAddress = errors.New("invalid bitcoin address")

// ParseAddress decodes an address and checks that it belongs to params' network.
func ParseAddress(address string, params *Params) (btcutil.Address, AddressType, error) {
	decoded, err := btcutil.DecodeAddress(strings.TrimSpace(address), params.Net)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if !decoded.IsForNet(params.Net) {
		return nil, "", fmt.Errorf("%w: not a %s address", ErrInvalidAddress, params.Network)
	}
	return decoded, ClassifyAddress(decoded), nil
}

// ClassifyAddress maps a decoded address onto its AddressType.
func ClassifyAddress(addr btcutil.Address) AddressType {
	switch addr.(type) {
	case *btcutil.AddressPubKeyHash, *btcutil.AddressPubKey:
		return AddressP2PKH
	case *btcutil.AddressScriptHash:
		return AddressP2SH
	case *btcutil.AddressWitnessPubKeyHash:
		return AddressP2WPKH
	case *btcutil.AddressWitnessScriptHash:
		return AddressP2WSH
	case *btcutil.AddressTaproot:
		return AddressP2TR
	default:
		return "unknown"
	}
}

// AddressNetworks returns every registered network the address is valid on.
// Testnet, signet and regtest share base58 prefixes, so a legacy test address
// matches all three.
func AddressNetworks(address string) []Network {
	var networks []Network
	for _, network := range List() {
		params, _ := Get(network)
		if _, _, err := ParseAddress(address, params); err == nil {
			networks = append(networks, network)
		}
	}
	return networks
}

// IsValidAddress reports whether address is valid on any registered network.
func IsValidAddress(address string) bool {
	return len(AddressNetworks(address)) > 0
}

// IsAddressForNetwork reports whether address is valid on network.
func IsAddressForNetwork(address string, network Network) bool {
	params, ok := Get(network)
	if !ok {
		return false
	}
	_, _, err := ParseAddress(address, params)
	return err == nil
}
