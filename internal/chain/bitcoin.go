package chain

import "github.com/btcsuite/btcd/chaincfg"

func init() {
	Register(&Params{
		Network:  Mainnet,
		Name:     "Bitcoin",
		Symbol:   "BTC",
		Decimals: 8,

		// BIP44 coin type 0, BIP84 for native SegWit
		CoinType:       0,
		DefaultPurpose: 84,

		Net:                &chaincfg.MainNetParams,
		DefaultAddressType: AddressP2WPKH,
	})

	// Testnet uses coin type 1 for all coins
	Register(&Params{
		Network:            Testnet,
		Name:               "Bitcoin Testnet",
		Symbol:             "BTC",
		Decimals:           8,
		CoinType:           1,
		DefaultPurpose:     84,
		Net:                &chaincfg.TestNet3Params,
		DefaultAddressType: AddressP2WPKH,
	})

	Register(&Params{
		Network:            Signet,
		Name:               "Bitcoin Signet",
		Symbol:             "BTC",
		Decimals:           8,
		CoinType:           1,
		DefaultPurpose:     84,
		Net:                &chaincfg.SigNetParams,
		DefaultAddressType: AddressP2WPKH,
	})

	Register(&Params{
		Network:            Regtest,
		Name:               "Bitcoin Regtest",
		Symbol:             "BTC",
		Decimals:           8,
		CoinType:           1,
		DefaultPurpose:     84,
		Net:                &chaincfg.RegressionNetParams,
		DefaultAddressType: AddressP2WPKH,
	})
}
