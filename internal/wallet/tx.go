package wallet

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/Klingon-tech/btcsend/internal/backend"
	"github.com/Klingon-tech/btcsend/internal/chain"
	"github.com/Klingon-tech/btcsend/internal/config"
	"github.com/Klingon-tech/btcsend/pkg/logging"
)

// Transaction building errors
var (
	ErrNoUTXOs           = errors.New("no UTXOs available")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrZeroAmount        = errors.New("amount must be positive")
)

// Signer signs every input of tx in place. Implementations own the keys;
// nothing in this package ever sees private key material.
type Signer interface {
	SignTx(ctx context.Context, tx *wire.MsgTx, prevOuts txscript.PrevOutputFetcher) error
}

// TxRequest describes a payment to build.
type TxRequest struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`   // satoshis
	FeeRate   uint64 `json:"fee_rate"` // sat/vB, 0 uses the backend estimate
}

// GeneratedTx is a serialized transaction and the fee it pays.
type GeneratedTx struct {
	Hex    string `json:"hex"`
	Fee    uint64 `json:"fee"`
	VSize  int64  `json:"vsize"`
	Signed bool   `json:"signed"`
}

// UnsignedTx is a built transaction with everything a signer needs.
type UnsignedTx struct {
	Tx       *wire.MsgTx
	Fee      uint64
	VSize    int64
	Change   uint64
	PrevOuts *txscript.MultiPrevOutFetcher
}

// BuildUnsignedTx selects UTXOs and builds a transaction paying req.Amount to
// req.Recipient with change back to changeAddress. Change at or below the
// dust threshold is left to the fee.
func BuildUnsignedTx(utxos []backend.UTXO, req TxRequest, changeAddress string, params *chain.Params) (*UnsignedTx, error) {
	if req.Amount == 0 {
		return nil, ErrZeroAmount
	}
	if len(utxos) == 0 {
		return nil, ErrNoUTXOs
	}

	destAddr, _, err := chain.ParseAddress(req.Recipient, params)
	if err != nil {
		return nil, fmt.Errorf("invalid destination address: %w", err)
	}
	destScript, err := txscript.PayToAddrScript(destAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to build destination script: %w", err)
	}

	changeAddr, _, err := chain.ParseAddress(changeAddress, params)
	if err != nil {
		return nil, fmt.Errorf("invalid change address: %w", err)
	}
	senderScript, err := txscript.PayToAddrScript(changeAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to build change script: %w", err)
	}

	selected, totalInput, err := selectUTXOsForAmount(utxos, req, params)
	if err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	prevOuts := txscript.NewMultiPrevOutFetcher(make(map[wire.OutPoint]*wire.TxOut))
	for _, utxo := range selected {
		txHash, err := chainhash.NewHashFromStr(utxo.TxID)
		if err != nil {
			return nil, fmt.Errorf("invalid txid %s: %w", utxo.TxID, err)
		}
		outpoint := wire.NewOutPoint(txHash, utxo.Vout)
		txIn := wire.NewTxIn(outpoint, nil, nil)
		txIn.Sequence = wire.MaxTxInSequenceNum - 2 // Enable RBF
		tx.AddTxIn(txIn)
		prevOuts.AddPrevOut(*outpoint, wire.NewTxOut(int64(utxo.Amount), senderScript))
	}

	tx.AddTxOut(wire.NewTxOut(int64(req.Amount), destScript))

	vsize := EstimateVSize(len(selected), req.Recipient, true, params)
	fee := uint64(vsize) * req.FeeRate
	var change uint64
	if totalInput > req.Amount+fee {
		change = totalInput - req.Amount - fee
	}

	if change > config.ChangeDustThreshold {
		tx.AddTxOut(wire.NewTxOut(int64(change), senderScript))
	} else {
		vsize = EstimateVSize(len(selected), req.Recipient, false, params)
		fee = totalInput - req.Amount
		change = 0
	}

	return &UnsignedTx{
		Tx:       tx,
		Fee:      fee,
		VSize:    vsize,
		Change:   change,
		PrevOuts: prevOuts,
	}, nil
}

// selectUTXOsForAmount selects UTXOs, largest first, until they cover the
// amount plus the fee of a transaction without change. Spending the whole
// wallet down to CalculateMaxSpend must stay buildable.
func selectUTXOsForAmount(utxos []backend.UTXO, req TxRequest, params *chain.Params) ([]backend.UTXO, uint64, error) {
	sorted := make([]backend.UTXO, len(utxos))
	copy(sorted, utxos)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Amount > sorted[j].Amount })

	var selected []backend.UTXO
	var totalSelected, need uint64

	for _, utxo := range sorted {
		selected = append(selected, utxo)
		totalSelected += utxo.Amount

		fee := uint64(EstimateVSize(len(selected), req.Recipient, false, params)) * req.FeeRate
		need = req.Amount + fee
		if totalSelected >= need {
			return selected, totalSelected, nil
		}
	}

	return nil, 0, fmt.Errorf("%w: need %d, have %d", ErrInsufficientFunds, need, totalSelected)
}

// Serialize encodes tx as hex.
func Serialize(tx *wire.MsgTx) (string, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", fmt.Errorf("failed to serialize: %w", err)
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

// Generator builds transactions from the current account and hands them to
// a Signer.
type Generator struct {
	service *Service
	signer  Signer
	log     *logging.Logger
}

// NewGenerator creates a generator. A nil signer yields unsigned transactions.
func NewGenerator(service *Service, signer Signer) *Generator {
	return &Generator{
		service: service,
		signer:  signer,
		log:     logging.GetDefault().Component("txgen"),
	}
}

// GenerateTx builds and, when a signer is configured, signs a transaction.
func (g *Generator) GenerateTx(ctx context.Context, req TxRequest) (*GeneratedTx, error) {
	params := g.service.Network()

	sender, err := g.service.CurrentAddress(ctx)
	if err != nil {
		return nil, err
	}
	utxos, err := g.service.UTXOs(ctx)
	if err != nil {
		return nil, err
	}
	if req.FeeRate == 0 {
		if req.FeeRate, err = g.service.FeeRate(ctx); err != nil {
			return nil, err
		}
	}

	unsigned, err := BuildUnsignedTx(utxos, req, sender, params)
	if err != nil {
		return nil, err
	}

	signed := false
	if g.signer != nil {
		if err := g.signer.SignTx(ctx, unsigned.Tx, unsigned.PrevOuts); err != nil {
			return nil, fmt.Errorf("failed to sign: %w", err)
		}
		signed = true
	}

	rawHex, err := Serialize(unsigned.Tx)
	if err != nil {
		return nil, err
	}

	g.log.Debug("Generated transaction",
		"network", params.Network,
		"inputs", len(unsigned.Tx.TxIn),
		"outputs", len(unsigned.Tx.TxOut),
		"fee", unsigned.Fee,
		"signed", signed)

	return &GeneratedTx{
		Hex:    rawHex,
		Fee:    unsigned.Fee,
		VSize:  unsigned.VSize,
		Signed: signed,
	}, nil
}
