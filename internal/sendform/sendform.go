// Package sendform implements the Bitcoin send form: its validation schema,
// the high-fee confirmation gate and the hand-off of a built transaction to
// the confirm-and-sign screen.
package sendform

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Klingon-tech/btcsend/internal/chain"
	"github.com/Klingon-tech/btcsend/internal/config"
	"github.com/Klingon-tech/btcsend/internal/navigate"
	"github.com/Klingon-tech/btcsend/internal/wallet"
	"github.com/Klingon-tech/btcsend/pkg/helpers"
)

// Form field names.
const (
	FieldAmount                    = "amount"
	FieldRecipient                 = "recipient"
	FieldRecipientAddressOrBnsName = "recipientAddressOrBnsName"
)

// DefaultFormKey is the persistence key of the BTC send form.
const DefaultFormKey = "send-btc"

// Errors returned by the controller.
var (
	ErrMissingDependency   = errors.New("missing dependency")
	ErrRecipientUnresolved = errors.New("recipient could not be resolved")
)

// Values are the user-entered send form values.
type Values struct {
	Amount                    string `json:"amount"`                    // BTC, decimal
	Recipient                 string `json:"recipient"`                 // resolved address
	RecipientAddressOrBnsName string `json:"recipientAddressOrBnsName"` // raw user input
	Fee                       uint64 `json:"fee"`                       // satoshis
	FeeRate                   uint64 `json:"feeRate"`                   // sat/vB
}

// ToMap flattens the values for schema validation.
func (v Values) ToMap() map[string]string {
	return map[string]string{
		FieldAmount:                    v.Amount,
		FieldRecipient:                 v.Recipient,
		FieldRecipientAddressOrBnsName: v.RecipientAddressOrBnsName,
		"fee":                          strconv.FormatUint(v.Fee, 10),
		"feeRate":                      strconv.FormatUint(v.FeeRate, 10),
	}
}

// FormRef identifies one form instance and holds its latest values.
type FormRef struct {
	FormID string

	mu     sync.RWMutex
	values Values
}

// NewFormRef creates a form instance with a fresh ID.
func NewFormRef() *FormRef {
	return &FormRef{FormID: uuid.NewString()}
}

// Values returns the latest values of the form.
func (r *FormRef) Values() Values {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.values
}

func (r *FormRef) set(v Values) {
	r.mu.Lock()
	r.values = v
	r.mu.Unlock()
}

// FormState is what a rendering layer needs to draw the form.
type FormState struct {
	FormID              string        `json:"formId"`
	Network             chain.Network `json:"network"`
	HighFeeConfirmation bool          `json:"highFeeConfirmation"`
}

// NetworkProvider reports the network the wallet is on.
type NetworkProvider interface {
	Current() *chain.Params
}

// AccountProvider returns the native segwit address at index zero.
type AccountProvider interface {
	CurrentAddress(ctx context.Context) (string, error)
}

// BalanceProvider returns the spendable balance of the current account.
type BalanceProvider interface {
	Balance(ctx context.Context) (helpers.Money, error)
}

// MaxSpendCalculator returns the largest amount in satoshis sendable to a
// recipient after fees.
type MaxSpendCalculator interface {
	MaxSpendAmount(ctx context.Context, recipient string) (uint64, error)
}

// NameResolver resolves a BNS name to a BTC address. An empty address means
// the name has no BTC record.
type NameResolver interface {
	ResolveBTCAddress(ctx context.Context, name string) (string, error)
}

// TxGenerator builds a transaction for the form values. A nil result or an
// error means no transaction exists.
type TxGenerator interface {
	GenerateTx(ctx context.Context, req wallet.TxRequest) (*wallet.GeneratedTx, error)
}

// Navigator opens the confirm-and-sign screen.
type Navigator interface {
	ToConfirmAndSignBtcTransaction(txHex, recipient string, fee uint64) navigate.Event
}

// WalletTypeProvider reports which kind of wallet signs.
type WalletTypeProvider interface {
	WalletType() config.WalletType
}

// StaticWalletType always reports the same wallet type.
type StaticWalletType config.WalletType

// WalletType returns t.
func (t StaticWalletType) WalletType() config.WalletType { return config.WalletType(t) }

// FormPersister stores form values between popup sessions.
type FormPersister interface {
	SaveFormValues(formKey string, values interface{}) error
	LoadFormValues(formKey string, dst interface{}) (time.Time, error)
	ClearFormValues(formKey string) error
}

// ConfirmationStore holds the shared high-fee confirmation flag.
type ConfirmationStore interface {
	IsShowingHighFeeConfirmation() bool
	SetIsShowingHighFeeConfirmation(showing bool)
}
