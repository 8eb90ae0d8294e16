package wallet

import (
	"github.com/Klingon-tech/btcsend/internal/backend"
	"github.com/Klingon-tech/btcsend/internal/chain"
)

// Virtual sizes used for fee estimation.
const (
	txOverheadVSize = 10
	p2wpkhInputSize = 68
	changeOutSize   = 31 // change goes back to the P2WPKH account address
)

// MaxSpend is the result of a max spend calculation.
type MaxSpend struct {
	// Amount is the spendable amount in satoshis (total inputs minus fee).
	Amount uint64 `json:"amount"`
	// Fee is the fee in satoshis for spending every input to a single output.
	Fee uint64 `json:"fee"`
	// FeeRate is the sat/vB rate the fee was computed with.
	FeeRate uint64 `json:"fee_rate"`
	// Total is the sum of all inputs.
	Total uint64 `json:"total"`
}

// OutputSize returns the vsize of an output paying to address. Addresses that
// don't decode on params' network are assumed to be P2WPKH.
func OutputSize(address string, params *chain.Params) int64 {
	_, addrType, err := chain.ParseAddress(address, params)
	if err != nil {
		return 31
	}
	switch addrType {
	case chain.AddressP2TR, chain.AddressP2WSH:
		return 43
	case chain.AddressP2PKH:
		return 34
	case chain.AddressP2SH:
		return 32
	default:
		return 31
	}
}

// EstimateVSize estimates the vsize of a transaction spending inputs P2WPKH
// inputs to recipient, plus a change output when withChange is set.
func EstimateVSize(inputs int, recipient string, withChange bool, params *chain.Params) int64 {
	vsize := int64(txOverheadVSize) + int64(inputs)*p2wpkhInputSize + OutputSize(recipient, params)
	if withChange {
		vsize += changeOutSize
	}
	return vsize
}

// CalculateMaxSpend returns the largest amount that can be sent to recipient
// by spending every UTXO with no change output. An empty UTXO set, or one
// whose value does not cover the fee, yields a zero amount.
func CalculateMaxSpend(utxos []backend.UTXO, recipient string, feeRate uint64, params *chain.Params) MaxSpend {
	var total uint64
	for _, u := range utxos {
		total += u.Amount
	}

	result := MaxSpend{FeeRate: feeRate, Total: total}
	if len(utxos) == 0 {
		return result
	}

	result.Fee = uint64(EstimateVSize(len(utxos), recipient, false, params)) * feeRate
	if total > result.Fee {
		result.Amount = total - result.Fee
	}
	return result
}
