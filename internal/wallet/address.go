// Package wallet provides the read-only account side of the send flow: the
// current receive address, balance, max spend and unsigned transaction building.
package wallet

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/Klingon-tech/btcsend/internal/chain"
)

// Account errors
var (
	ErrNoAccount      = errors.New("no account configured for network")
	ErrInvalidAccount = errors.New("invalid account key")
	ErrPrivateKey     = errors.New("account key must be public")
)

// SLIP-132 version bytes for BIP84 account keys.
var (
	zpubVersion = []byte{0x04, 0xb2, 0x47, 0x46}
	vpubVersion = []byte{0x04, 0x5f, 0x1c, 0xf6}
)

// ParseAccountKey parses a BIP84 account extended public key
// (m/84'/coin'/account') for params. xpub/tpub and zpub/vpub encodings are
// accepted; private keys are rejected.
func ParseAccountKey(encoded string, params *chain.Params) (*hdkeychain.ExtendedKey, error) {
	key, err := hdkeychain.NewKeyFromString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccount, err)
	}
	if key.IsPrivate() {
		return nil, ErrPrivateKey
	}
	if key.IsForNet(params.Net) {
		return key, nil
	}

	slip132 := zpubVersion
	if params.Network != chain.Mainnet {
		slip132 = vpubVersion
	}
	if !bytes.Equal(key.Version(), slip132) {
		return nil, fmt.Errorf("%w: key is not for %s", ErrInvalidAccount, params.Network)
	}
	return key.CloneWithVersion(params.Net.HDPublicKeyID[:])
}

// DeriveReceiveAddress derives the external-chain address at index from an
// account key, using params' default address type.
func DeriveReceiveAddress(account *hdkeychain.ExtendedKey, index uint32, params *chain.Params) (string, error) {
	external, err := account.Derive(0)
	if err != nil {
		return "", fmt.Errorf("failed to derive external chain: %w", err)
	}
	child, err := external.Derive(index)
	if err != nil {
		return "", fmt.Errorf("failed to derive index %d: %w", index, err)
	}
	return DeriveAddressFromKey(child, params)
}

// DeriveAddressFromKey derives the appropriate address type from an HD key.
func DeriveAddressFromKey(key *hdkeychain.ExtendedKey, params *chain.Params) (string, error) {
	pubKey, err := key.ECPubKey()
	if err != nil {
		return "", fmt.Errorf("failed to get public key: %w", err)
	}

	switch params.DefaultAddressType {
	case chain.AddressP2PKH:
		return deriveP2PKH(pubKey, params.Net)
	case chain.AddressP2TR:
		return deriveP2TR(pubKey, params.Net)
	default:
		return deriveP2WPKH(pubKey, params.Net)
	}
}

// deriveP2PKH derives a legacy P2PKH address (1...)
func deriveP2PKH(pubKey *btcec.PublicKey, params *chaincfg.Params) (string, error) {
	pubKeyHash := btcutil.Hash160(pubKey.SerializeCompressed())
	addr, err := btcutil.NewAddressPubKeyHash(pubKeyHash, params)
	if err != nil {
		return "", fmt.Errorf("failed to create P2PKH address: %w", err)
	}
	return addr.EncodeAddress(), nil
}

// deriveP2WPKH derives a native SegWit address (bc1q...)
func deriveP2WPKH(pubKey *btcec.PublicKey, params *chaincfg.Params) (string, error) {
	pubKeyHash := btcutil.Hash160(pubKey.SerializeCompressed())
	addr, err := btcutil.NewAddressWitnessPubKeyHash(pubKeyHash, params)
	if err != nil {
		return "", fmt.Errorf("failed to create P2WPKH address: %w", err)
	}
	return addr.EncodeAddress(), nil
}

// deriveP2TR derives a Taproot address (bc1p...)
func deriveP2TR(pubKey *btcec.PublicKey, params *chaincfg.Params) (string, error) {
	taprootKey := txscript.ComputeTaprootKeyNoScript(pubKey)
	addr, err := btcutil.NewAddressTaproot(taprootKey.SerializeCompressed()[1:], params)
	if err != nil {
		return "", fmt.Errorf("failed to create Taproot address: %w", err)
	}
	return addr.EncodeAddress(), nil
}

// AccountService resolves the native segwit account address at index zero
// for each network, caching results.
type AccountService struct {
	xpubs map[chain.Network]string

	mu    sync.RWMutex
	cache map[chain.Network]string
}

// NewAccountService creates an account service from per-network account keys.
func NewAccountService(xpubs map[chain.Network]string) *AccountService {
	keys := make(map[chain.Network]string, len(xpubs))
	for n, k := range xpubs {
		keys[n] = k
	}
	return &AccountService{
		xpubs: keys,
		cache: make(map[chain.Network]string),
	}
}

// AddressIndexZero returns the first receive address of the account on params' network.
func (s *AccountService) AddressIndexZero(params *chain.Params) (string, error) {
	s.mu.RLock()
	addr, ok := s.cache[params.Network]
	s.mu.RUnlock()
	if ok {
		return addr, nil
	}

	encoded, ok := s.xpubs[params.Network]
	if !ok || encoded == "" {
		return "", fmt.Errorf("%w: %s", ErrNoAccount, params.Network)
	}

	account, err := ParseAccountKey(encoded, params)
	if err != nil {
		return "", err
	}
	addr, err = DeriveReceiveAddress(account, 0, params)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.cache[params.Network] = addr
	s.mu.Unlock()
	return addr, nil
}
