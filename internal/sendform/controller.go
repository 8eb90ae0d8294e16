package sendform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Klingon-tech/btcsend/internal/chain"
	"github.com/Klingon-tech/btcsend/internal/config"
	"github.com/Klingon-tech/btcsend/internal/navigate"
	"github.com/Klingon-tech/btcsend/internal/storage"
	"github.com/Klingon-tech/btcsend/internal/validation"
	"github.com/Klingon-tech/btcsend/internal/wallet"
	"github.com/Klingon-tech/btcsend/pkg/helpers"
	"github.com/Klingon-tech/btcsend/pkg/logging"
)

// Outcome is how a preview attempt ended.
type Outcome string

const (
	// OutcomeInvalid means validation failed; Errors holds the messages.
	OutcomeInvalid Outcome = "invalid"
	// OutcomeAwaitingFeeAck means the fee is above the threshold and the
	// confirmation drawer was opened.
	OutcomeAwaitingFeeAck Outcome = "awaiting_fee_ack"
	// OutcomeAborted means no transaction could be generated.
	OutcomeAborted Outcome = "aborted"
	// OutcomeNavigated means the confirm screen was opened.
	OutcomeNavigated Outcome = "navigated"
	// OutcomeUnsupportedWallet means the wallet type has no send path.
	OutcomeUnsupportedWallet Outcome = "unsupported_wallet"
	// OutcomeBusy means another preview was still running.
	OutcomeBusy Outcome = "busy"
)

// PreviewResult reports a preview attempt.
type PreviewResult struct {
	Outcome Outcome             `json:"outcome"`
	Errors  validation.Errors   `json:"errors,omitempty"`
	Tx      *wallet.GeneratedTx `json:"tx,omitempty"`
	Event   *navigate.Event     `json:"event,omitempty"`
}

// Config wires a Controller to its collaborators.
type Config struct {
	Network    NetworkProvider
	Accounts   AccountProvider
	Balance    BalanceProvider
	MaxSpend   MaxSpendCalculator
	Names      NameResolver
	Generator  TxGenerator
	Navigator  Navigator
	WalletType WalletTypeProvider
	Persister  FormPersister
	Drawers    ConfirmationStore

	// HighFeeThreshold defaults to config.HighFeeAmountSats.
	HighFeeThreshold uint64
	// MinimumSpend defaults to config.BtcP2WPKHDustAmount.
	MinimumSpend uint64
	// FormKey defaults to DefaultFormKey.
	FormKey string

	Logger *logging.Logger
}

// Controller drives one send form.
type Controller struct {
	network    NetworkProvider
	accounts   AccountProvider
	balance    BalanceProvider
	maxSpend   MaxSpendCalculator
	names      NameResolver
	generator  TxGenerator
	navigator  Navigator
	walletType WalletTypeProvider
	persister  FormPersister
	drawers    ConfirmationStore

	highFee uint64
	minimum uint64
	formKey string

	ref  *FormRef
	busy atomic.Bool
	log  *logging.Logger
}

// NewController validates cfg and creates a controller for a fresh form.
func NewController(cfg *Config) (*Controller, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config", ErrMissingDependency)
	}
	switch {
	case cfg.Network == nil:
		return nil, fmt.Errorf("%w: network provider", ErrMissingDependency)
	case cfg.Accounts == nil:
		return nil, fmt.Errorf("%w: account provider", ErrMissingDependency)
	case cfg.Balance == nil:
		return nil, fmt.Errorf("%w: balance provider", ErrMissingDependency)
	case cfg.MaxSpend == nil:
		return nil, fmt.Errorf("%w: max spend calculator", ErrMissingDependency)
	case cfg.Generator == nil:
		return nil, fmt.Errorf("%w: transaction generator", ErrMissingDependency)
	case cfg.Navigator == nil:
		return nil, fmt.Errorf("%w: navigator", ErrMissingDependency)
	case cfg.Drawers == nil:
		return nil, fmt.Errorf("%w: drawer store", ErrMissingDependency)
	}

	c := &Controller{
		network:    cfg.Network,
		accounts:   cfg.Accounts,
		balance:    cfg.Balance,
		maxSpend:   cfg.MaxSpend,
		names:      cfg.Names,
		generator:  cfg.Generator,
		navigator:  cfg.Navigator,
		walletType: cfg.WalletType,
		persister:  cfg.Persister,
		drawers:    cfg.Drawers,
		highFee:    cfg.HighFeeThreshold,
		minimum:    cfg.MinimumSpend,
		formKey:    cfg.FormKey,
		ref:        NewFormRef(),
		log:        cfg.Logger,
	}
	if c.walletType == nil {
		c.walletType = StaticWalletType(config.WalletSoftware)
	}
	if c.highFee == 0 {
		c.highFee = config.HighFeeAmountSats
	}
	if c.minimum == 0 {
		c.minimum = config.BtcP2WPKHDustAmount
	}
	if c.formKey == "" {
		c.formKey = DefaultFormKey
	}
	if c.log == nil {
		c.log = logging.GetDefault().Component("sendform")
	}
	return c, nil
}

// FormRef returns the form instance the controller drives.
func (c *Controller) FormRef() *FormRef {
	return c.ref
}

// State returns the bundle the rendering layer draws from.
func (c *Controller) State() FormState {
	return FormState{
		FormID:              c.ref.FormID,
		Network:             c.network.Current().Network,
		HighFeeConfirmation: c.drawers.IsShowingHighFeeConfirmation(),
	}
}

// ValidationSchema builds the schema from the current network, address and
// balance. The insufficient-balance rule reads the recipient of values.
func (c *Controller) ValidationSchema(ctx context.Context, values Values) *validation.Schema {
	params := c.network.Current()

	current, err := c.accounts.CurrentAddress(ctx)
	if err != nil {
		c.log.Warn("Failed to get current address", "error", err)
		current = ""
	}

	var balance *helpers.Money
	if money, err := c.balance.Balance(ctx); err != nil {
		c.log.Warn("Failed to get balance", "error", err)
	} else {
		balance = &money
	}

	recipient := func() string { return values.Recipient }

	return validation.Object(
		validation.Field{
			Name: FieldAmount,
			Chain: validation.Number(validation.MsgAmountRequired).
				Concat(validation.String(validation.BtcAmountPrecision(validation.FormatPrecisionError(balance)))).
				Concat(validation.String(validation.BtcInsufficientBalance(recipient, c.maxSpend.MaxSpendAmount))).
				Concat(validation.String(validation.BtcMinimumSpend(c.minimum))),
		},
		validation.Field{
			Name:  FieldRecipientAddressOrBnsName,
			Chain: validation.String(validation.BtcRecipientAddressOrBnsName(c.names, params.Network)),
		},
		validation.Field{
			Name: FieldRecipient,
			Chain: validation.String().With(
				validation.BtcAddress(),
				validation.BtcAddressNetwork(params.Network),
				validation.NotCurrentAddress(current),
			),
		},
	)
}

// Validate runs the schema against values.
func (c *Controller) Validate(ctx context.Context, values Values) validation.Errors {
	return c.ValidationSchema(ctx, values).Validate(ctx, values.ToMap())
}

// ResolveRecipient turns the raw recipient input into an address: addresses
// pass through, BNS names are looked up.
func (c *Controller) ResolveRecipient(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)
	if chain.IsValidAddress(input) {
		return input, nil
	}

	name := strings.ToLower(input)
	if !validation.IsBnsName(name) || c.names == nil {
		return "", fmt.Errorf("%w: %q", ErrRecipientUnresolved, input)
	}
	address, err := c.names.ResolveBTCAddress(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", name, err)
	}
	if address == "" {
		return "", fmt.Errorf("%w: %s has no BTC address", ErrRecipientUnresolved, name)
	}
	return address, nil
}

// PreviewTransaction is the submit handler. It validates values, gates high
// fees behind the confirmation drawer, builds the transaction and opens the
// confirm screen. Failures end the attempt and are reported in the result.
func (c *Controller) PreviewTransaction(ctx context.Context, values Values) PreviewResult {
	if !c.busy.CompareAndSwap(false, true) {
		return PreviewResult{Outcome: OutcomeBusy}
	}
	defer c.busy.Store(false)

	c.log.Debug("btc form values", "values", values)
	c.ref.set(values)

	if errs := c.Validate(ctx, values); !errs.IsEmpty() {
		return PreviewResult{Outcome: OutcomeInvalid, Errors: errs}
	}

	if !c.drawers.IsShowingHighFeeConfirmation() && values.Fee > c.highFee {
		c.drawers.SetIsShowingHighFeeConfirmation(true)
		return PreviewResult{Outcome: OutcomeAwaitingFeeAck}
	}

	amount, err := helpers.BTCToSatoshis(values.Amount)
	if err != nil {
		return PreviewResult{Outcome: OutcomeInvalid, Errors: validation.Errors{FieldAmount: validation.MsgMustBeNumber}}
	}

	tx, err := c.generator.GenerateTx(ctx, wallet.TxRequest{
		Recipient: values.Recipient,
		Amount:    amount,
		FeeRate:   values.FeeRate,
	})
	if err != nil || tx == nil {
		c.log.Error("Attempted to generate raw tx, but no tx exists", "error", err)
		return PreviewResult{Outcome: OutcomeAborted}
	}

	result := PreviewResult{Outcome: OutcomeUnsupportedWallet, Tx: tx}
	wallet.WhenWallet(c.walletType.WalletType(), wallet.Handlers{
		Software: func() {
			event := c.navigator.ToConfirmAndSignBtcTransaction(tx.Hex, values.Recipient, tx.Fee)
			result.Outcome = OutcomeNavigated
			result.Event = &event
			c.drawers.SetIsShowingHighFeeConfirmation(false)
			c.clearPersisted()
		},
		Ledger: func() {
			c.log.Debug("No ledger send path for bitcoin", "fee", tx.Fee)
		},
	})()
	return result
}

// OnFormStateChange records the latest values and persists them so the form
// can be restored when the popup reopens.
func (c *Controller) OnFormStateChange(values Values) error {
	c.ref.set(values)
	if c.persister == nil {
		return nil
	}
	if err := c.persister.SaveFormValues(c.formKey, values); err != nil {
		return fmt.Errorf("failed to persist form values: %w", err)
	}
	return nil
}

// RestoreFormState returns persisted values. ok is false when nothing was
// saved.
func (c *Controller) RestoreFormState() (values Values, savedAt time.Time, ok bool, err error) {
	if c.persister == nil {
		return Values{}, time.Time{}, false, nil
	}
	savedAt, err = c.persister.LoadFormValues(c.formKey, &values)
	if errors.Is(err, storage.ErrNotFound) {
		return Values{}, time.Time{}, false, nil
	}
	if err != nil {
		return Values{}, time.Time{}, false, fmt.Errorf("failed to restore form values: %w", err)
	}
	c.ref.set(values)
	return values, savedAt, true, nil
}

func (c *Controller) clearPersisted() {
	if c.persister == nil {
		return
	}
	if err := c.persister.ClearFormValues(c.formKey); err != nil {
		c.log.Warn("Failed to clear persisted form values", "error", err)
	}
}
