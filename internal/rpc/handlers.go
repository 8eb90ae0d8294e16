package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Klingon-tech/btcsend/internal/chain"
	"github.com/Klingon-tech/btcsend/internal/sendform"
	"github.com/Klingon-tech/btcsend/internal/storage"
	"github.com/Klingon-tech/btcsend/internal/validation"
	"github.com/Klingon-tech/btcsend/pkg/helpers"
)

// Version of the daemon
const Version = "0.1.0-dev"

// SettingNetwork is the storage key of the last selected network.
const SettingNetwork = "network"

// ========================================
// Send form handlers
// ========================================

func (s *Server) sendformState(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if s.controller == nil {
		return nil, fmt.Errorf("send form not initialized")
	}
	state := s.controller.State()
	return &state, nil
}

// SendformValidateResult is the response for sendform_validate.
type SendformValidateResult struct {
	Valid  bool              `json:"valid"`
	Errors validation.Errors `json:"errors,omitempty"`
}

func (s *Server) sendformValidate(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if s.controller == nil {
		return nil, fmt.Errorf("send form not initialized")
	}

	var values sendform.Values
	if err := decodeParams(params, &values); err != nil {
		return nil, err
	}

	errs := s.controller.Validate(ctx, values)
	return &SendformValidateResult{
		Valid:  errs.IsEmpty(),
		Errors: errs,
	}, nil
}

// SendformResolveRecipientParams is the parameters for sendform_resolveRecipient.
type SendformResolveRecipientParams struct {
	Input string `json:"input"`
}

// SendformResolveRecipientResult is the response for sendform_resolveRecipient.
type SendformResolveRecipientResult struct {
	Input   string `json:"input"`
	Address string `json:"address"`
}

func (s *Server) sendformResolveRecipient(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if s.controller == nil {
		return nil, fmt.Errorf("send form not initialized")
	}

	var p SendformResolveRecipientParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Input) == "" {
		return nil, fmt.Errorf("%w: input is required", errInvalidParams)
	}

	address, err := s.controller.ResolveRecipient(ctx, p.Input)
	if err != nil {
		return nil, err
	}
	return &SendformResolveRecipientResult{Input: p.Input, Address: address}, nil
}

func (s *Server) sendformPreview(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if s.controller == nil {
		return nil, fmt.Errorf("send form not initialized")
	}

	var values sendform.Values
	if err := decodeParams(params, &values); err != nil {
		return nil, err
	}

	values = s.completeValues(ctx, values)
	result := s.controller.PreviewTransaction(ctx, values)
	return &result, nil
}

// completeValues fills the recipient from the raw input and the fee from the
// backend estimate when the caller left them empty. Anything it cannot fill
// is left for validation to report.
func (s *Server) completeValues(ctx context.Context, values sendform.Values) sendform.Values {
	if values.Recipient == "" && values.RecipientAddressOrBnsName != "" {
		if address, err := s.controller.ResolveRecipient(ctx, values.RecipientAddressOrBnsName); err == nil {
			values.Recipient = address
		}
	}
	if values.RecipientAddressOrBnsName == "" {
		values.RecipientAddressOrBnsName = values.Recipient
	}

	if values.Fee != 0 || s.wallet == nil {
		return values
	}
	amount, err := helpers.BTCToSatoshis(values.Amount)
	if err != nil || amount == 0 || values.Recipient == "" {
		return values
	}
	quote, err := s.wallet.EstimateFee(ctx, values.Recipient, amount, values.FeeRate)
	if err != nil {
		s.log.Debug("Fee estimate unavailable", "error", err)
		return values
	}
	values.Fee = quote.Fee
	values.FeeRate = quote.FeeRate
	return values
}

// SendformSaveStateResult is the response for sendform_saveState.
type SendformSaveStateResult struct {
	Saved bool `json:"saved"`
}

func (s *Server) sendformSaveState(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if s.controller == nil {
		return nil, fmt.Errorf("send form not initialized")
	}

	var values sendform.Values
	if err := decodeParams(params, &values); err != nil {
		return nil, err
	}
	if err := s.controller.OnFormStateChange(values); err != nil {
		return nil, err
	}
	return &SendformSaveStateResult{Saved: true}, nil
}

// SendformRestoreStateResult is the response for sendform_restoreState.
type SendformRestoreStateResult struct {
	Found   bool             `json:"found"`
	Values  *sendform.Values `json:"values,omitempty"`
	SavedAt int64            `json:"saved_at,omitempty"`
}

func (s *Server) sendformRestoreState(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if s.controller == nil {
		return nil, fmt.Errorf("send form not initialized")
	}

	values, savedAt, ok, err := s.controller.RestoreFormState()
	if err != nil {
		return nil, err
	}
	if !ok {
		return &SendformRestoreStateResult{Found: false}, nil
	}
	return &SendformRestoreStateResult{
		Found:   true,
		Values:  &values,
		SavedAt: savedAt.Unix(),
	}, nil
}

// SendformPreviewsParams is the parameters for sendform_previews.
type SendformPreviewsParams struct {
	Limit int `json:"limit"`
}

// SendformPreviewsResult is the response for sendform_previews.
type SendformPreviewsResult struct {
	Previews []*storage.PreviewRecord `json:"previews"`
	Count    int                      `json:"count"`
}

func (s *Server) sendformPreviews(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if s.store == nil {
		return nil, fmt.Errorf("storage not initialized")
	}

	p := SendformPreviewsParams{Limit: 20}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	previews, err := s.store.ListPreviews(p.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list previews: %w", err)
	}
	if previews == nil {
		previews = []*storage.PreviewRecord{}
	}
	return &SendformPreviewsResult{Previews: previews, Count: len(previews)}, nil
}

// ========================================
// Drawer handlers
// ========================================

// DrawersSetHighFeeConfirmationParams is the parameters for
// drawers_setHighFeeConfirmation.
type DrawersSetHighFeeConfirmationParams struct {
	Showing bool `json:"showing"`
}

// DrawersStateResult reports drawer visibility.
type DrawersStateResult struct {
	HighFeeConfirmation bool `json:"high_fee_confirmation"`
}

func (s *Server) drawersSetHighFeeConfirmation(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if s.drawers == nil {
		return nil, fmt.Errorf("drawers not initialized")
	}

	var p DrawersSetHighFeeConfirmationParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	s.drawers.SetIsShowingHighFeeConfirmation(p.Showing)
	return &DrawersStateResult{HighFeeConfirmation: s.drawers.IsShowingHighFeeConfirmation()}, nil
}

// ========================================
// Wallet handlers
// ========================================

// WalletCurrentAddressResult is the response for wallet_currentAddress.
type WalletCurrentAddressResult struct {
	Address string        `json:"address"`
	Network chain.Network `json:"network"`
	Path    string        `json:"path"`
}

func (s *Server) walletCurrentAddress(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if s.wallet == nil {
		return nil, fmt.Errorf("wallet service not initialized")
	}

	address, err := s.wallet.CurrentAddress(ctx)
	if err != nil {
		return nil, err
	}
	p := s.wallet.Network()
	return &WalletCurrentAddressResult{
		Address: address,
		Network: p.Network,
		Path:    p.DerivationPathString(0, 0, 0),
	}, nil
}

// WalletBalanceResult is the response for wallet_balance.
type WalletBalanceResult struct {
	Address   string        `json:"address"`
	Balance   helpers.Money `json:"balance"`
	Formatted string        `json:"formatted"`
}

func (s *Server) walletBalance(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if s.wallet == nil {
		return nil, fmt.Errorf("wallet service not initialized")
	}

	address, err := s.wallet.CurrentAddress(ctx)
	if err != nil {
		return nil, err
	}
	balance, err := s.wallet.Balance(ctx)
	if err != nil {
		return nil, err
	}
	return &WalletBalanceResult{
		Address:   address,
		Balance:   balance,
		Formatted: balance.String(),
	}, nil
}

// WalletMaxSpendParams is the parameters for wallet_maxSpend.
type WalletMaxSpendParams struct {
	Recipient string `json:"recipient"`
}

// WalletMaxSpendResult is the response for wallet_maxSpend.
type WalletMaxSpendResult struct {
	Amount    uint64 `json:"amount"`
	Fee       uint64 `json:"fee"`
	FeeRate   uint64 `json:"fee_rate"`
	Spendable string `json:"spendable"`
}

func (s *Server) walletMaxSpend(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if s.wallet == nil {
		return nil, fmt.Errorf("wallet service not initialized")
	}

	var p WalletMaxSpendParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	result, err := s.wallet.MaxSpend(ctx, p.Recipient)
	if err != nil {
		return nil, err
	}
	return &WalletMaxSpendResult{
		Amount:    result.Amount,
		Fee:       result.Fee,
		FeeRate:   result.FeeRate,
		Spendable: helpers.SatoshisToBTC(result.Amount),
	}, nil
}

// ========================================
// Network handlers
// ========================================

// NetworkInfo describes a network.
type NetworkInfo struct {
	Network  chain.Network `json:"network"`
	Name     string        `json:"name"`
	Symbol   string        `json:"symbol"`
	Decimals uint8         `json:"decimals"`
	Bech32   string        `json:"bech32_hrp"`
}

func networkInfo(p *chain.Params) *NetworkInfo {
	return &NetworkInfo{
		Network:  p.Network,
		Name:     p.Name,
		Symbol:   p.Symbol,
		Decimals: p.Decimals,
		Bech32:   p.Bech32HRP(),
	}
}

func (s *Server) networkCurrent(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if s.selector == nil {
		return nil, fmt.Errorf("network selector not initialized")
	}
	return networkInfo(s.selector.Current()), nil
}

// NetworkSwitchParams is the parameters for network_switch.
type NetworkSwitchParams struct {
	Network chain.Network `json:"network"`
}

func (s *Server) networkSwitch(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if s.selector == nil {
		return nil, fmt.Errorf("network selector not initialized")
	}

	var p NetworkSwitchParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Network == "" {
		return nil, fmt.Errorf("%w: network is required", errInvalidParams)
	}

	next, err := s.selector.Switch(p.Network)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}

	if s.store != nil {
		if err := s.store.SetSetting(SettingNetwork, string(next.Network)); err != nil {
			s.log.Warn("Failed to persist network", "error", err)
		}
	}

	s.log.Info("Switched network", "network", next.Network)
	return networkInfo(next), nil
}

// NetworkListResult is the response for network_list.
type NetworkListResult struct {
	Networks []*NetworkInfo `json:"networks"`
	Current  chain.Network  `json:"current"`
	Version  string         `json:"version"`
	Time     int64          `json:"time"`
}

func (s *Server) networkList(ctx context.Context, params json.RawMessage) (interface{}, error) {
	result := &NetworkListResult{Version: Version, Time: time.Now().Unix()}
	for _, n := range chain.List() {
		if p, ok := chain.Get(n); ok {
			result.Networks = append(result.Networks, networkInfo(p))
		}
	}
	if s.selector != nil {
		result.Current = s.selector.Current().Network
	}
	return result, nil
}
