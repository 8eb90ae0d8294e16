package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/Klingon-tech/btcsend/internal/backend"
	"github.com/Klingon-tech/btcsend/internal/chain"
	"github.com/Klingon-tech/btcsend/pkg/helpers"
	"github.com/Klingon-tech/btcsend/pkg/logging"
)

// Service answers account queries for whichever network the selector points at.
type Service struct {
	selector  *chain.Selector
	accounts  *AccountService
	feeTarget backend.FeeTarget
	log       *logging.Logger

	mu       sync.RWMutex
	backends *backend.Registry
}

// ServiceConfig holds configuration for the wallet service.
type ServiceConfig struct {
	Selector  *chain.Selector
	Accounts  *AccountService
	Backends  *backend.Registry
	FeeTarget backend.FeeTarget
}

// NewService creates a new wallet service.
func NewService(cfg *ServiceConfig) *Service {
	if cfg == nil {
		cfg = &ServiceConfig{}
	}

	selector := cfg.Selector
	if selector == nil {
		selector, _ = chain.NewSelector(chain.Mainnet)
	}
	accounts := cfg.Accounts
	if accounts == nil {
		accounts = NewAccountService(nil)
	}
	target := cfg.FeeTarget
	if target == "" {
		target = backend.FeeTargetHalfHour
	}

	return &Service{
		selector:  selector,
		accounts:  accounts,
		backends:  cfg.Backends,
		feeTarget: target,
		log:       logging.GetDefault().Component("wallet"),
	}
}

// Network returns the params of the current network.
func (s *Service) Network() *chain.Params {
	return s.selector.Current()
}

// SetBackends replaces the backend registry.
func (s *Service) SetBackends(backends *backend.Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backends = backends
}

func (s *Service) backend() (backend.Backend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.backends == nil {
		return nil, fmt.Errorf("no backends configured")
	}
	return s.backends.Backend(s.Network().Network)
}

// CurrentAddress returns the native segwit address at index zero.
func (s *Service) CurrentAddress(_ context.Context) (string, error) {
	return s.accounts.AddressIndexZero(s.Network())
}

// Balance returns the balance of the current address, including unconfirmed
// mempool activity.
func (s *Service) Balance(ctx context.Context) (helpers.Money, error) {
	params := s.Network()
	money := helpers.Money{Symbol: params.Symbol, Decimals: params.Decimals}

	address, err := s.CurrentAddress(ctx)
	if err != nil {
		return money, err
	}
	b, err := s.backend()
	if err != nil {
		return money, err
	}

	info, err := b.GetAddressInfo(ctx, address)
	if err != nil {
		return money, fmt.Errorf("failed to get balance: %w", err)
	}

	total := int64(info.Balance) + info.MempoolBalance
	if total > 0 {
		money.Amount = uint64(total)
	}
	return money, nil
}

// UTXOs returns the unspent outputs of the current address.
func (s *Service) UTXOs(ctx context.Context) ([]backend.UTXO, error) {
	address, err := s.CurrentAddress(ctx)
	if err != nil {
		return nil, err
	}
	b, err := s.backend()
	if err != nil {
		return nil, err
	}
	utxos, err := b.GetAddressUTXOs(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get UTXOs: %w", err)
	}
	return utxos, nil
}

// FeeRate returns the sat/vB rate for the configured fee target.
func (s *Service) FeeRate(ctx context.Context) (uint64, error) {
	b, err := s.backend()
	if err != nil {
		return 0, err
	}
	estimates, err := b.GetFeeEstimates(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get fee estimates: %w", err)
	}
	return estimates.Rate(s.feeTarget), nil
}

// MaxSpend returns the max spend to recipient at the current fee rate.
func (s *Service) MaxSpend(ctx context.Context, recipient string) (*MaxSpend, error) {
	utxos, err := s.UTXOs(ctx)
	if err != nil {
		return nil, err
	}
	rate, err := s.FeeRate(ctx)
	if err != nil {
		return nil, err
	}
	result := CalculateMaxSpend(utxos, recipient, rate, s.Network())
	return &result, nil
}

// MaxSpendAmount is MaxSpend reduced to the spendable amount.
func (s *Service) MaxSpendAmount(ctx context.Context, recipient string) (uint64, error) {
	result, err := s.MaxSpend(ctx, recipient)
	if err != nil {
		return 0, err
	}
	return result.Amount, nil
}

// FeeQuote is the fee a payment would pay.
type FeeQuote struct {
	Fee     uint64 `json:"fee"`
	FeeRate uint64 `json:"fee_rate"`
	VSize   int64  `json:"vsize"`
}

// EstimateFee builds the payment without signing it and reports its fee.
// A zero feeRate uses the backend estimate.
func (s *Service) EstimateFee(ctx context.Context, recipient string, amount, feeRate uint64) (*FeeQuote, error) {
	sender, err := s.CurrentAddress(ctx)
	if err != nil {
		return nil, err
	}
	utxos, err := s.UTXOs(ctx)
	if err != nil {
		return nil, err
	}
	if feeRate == 0 {
		if feeRate, err = s.FeeRate(ctx); err != nil {
			return nil, err
		}
	}

	unsigned, err := BuildUnsignedTx(utxos, TxRequest{
		Recipient: recipient,
		Amount:    amount,
		FeeRate:   feeRate,
	}, sender, s.Network())
	if err != nil {
		return nil, err
	}

	s.log.Debug("Estimated fee", "amount", amount, "fee", unsigned.Fee, "rate", feeRate)
	return &FeeQuote{Fee: unsigned.Fee, FeeRate: feeRate, VSize: unsigned.VSize}, nil
}
