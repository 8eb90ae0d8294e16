package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/Klingon-tech/btcsend/internal/chain"
	"github.com/Klingon-tech/btcsend/internal/config"
	"github.com/Klingon-tech/btcsend/pkg/helpers"
)

// MaxSpendFunc returns the largest amount in satoshis that can be sent to
// recipient after fees.
type MaxSpendFunc func(ctx context.Context, recipient string) (uint64, error)

// NameResolver looks up the BTC address a BNS name points at. An empty address
// with a nil error means the name has no BTC record.
type NameResolver interface {
	ResolveBTCAddress(ctx context.Context, name string) (string, error)
}

// FormatPrecisionError builds the precision message for balance's currency.
func FormatPrecisionError(balance *helpers.Money) string {
	if balance == nil {
		return MsgPrecisionUnknown
	}
	return fmt.Sprintf("%s can only have %d decimals", balance.Symbol, balance.Decimals)
}

// BtcAmountPrecision fails with msg when the amount has more than 8 decimals.
func BtcAmountPrecision(msg string) Rule {
	return func(_ context.Context, value string) error {
		places, err := helpers.DecimalPlaces(value)
		if err != nil {
			return Message(MsgMustBeNumber)
		}
		if places > config.BtcDecimals {
			return Message(msg)
		}
		return nil
	}
}

// BtcInsufficientBalance fails when the amount exceeds the max spend for the
// recipient returned by recipient at validation time.
func BtcInsufficientBalance(recipient func() string, calc MaxSpendFunc) Rule {
	return func(ctx context.Context, value string) error {
		sats, err := helpers.BTCToSatoshis(value)
		if err != nil {
			return Message(MsgMustBeNumber)
		}
		to := ""
		if recipient != nil {
			to = recipient()
		}
		spendable, err := calc(ctx, to)
		if err != nil {
			return Message(MsgBalanceUnavailable)
		}
		if sats > spendable {
			return Message(MsgInsufficientFunds)
		}
		return nil
	}
}

// BtcMinimumSpend fails when the amount is below min satoshis.
func BtcMinimumSpend(min uint64) Rule {
	return func(_ context.Context, value string) error {
		sats, err := helpers.BTCToSatoshis(value)
		if err != nil {
			return Message(MsgMustBeNumber)
		}
		if sats < min {
			return Message(fmt.Sprintf("Minimum is %s", helpers.SatoshisToBTC(min)))
		}
		return nil
	}
}

// BtcAddress fails unless value is a Bitcoin address on some known network.
func BtcAddress() Rule {
	return func(_ context.Context, value string) error {
		if strings.TrimSpace(value) == "" {
			return Message(MsgAddressRequired)
		}
		if !chain.IsValidAddress(value) {
			return Message(MsgInvalidAddress)
		}
		return nil
	}
}

// BtcAddressNetwork fails when a valid address belongs to a network other
// than network. Malformed addresses are left to BtcAddress.
func BtcAddressNetwork(network chain.Network) Rule {
	return func(_ context.Context, value string) error {
		if !chain.IsValidAddress(value) {
			return nil
		}
		if !chain.IsAddressForNetwork(value, network) {
			return Message(MsgIncorrectNetworkAddress)
		}
		return nil
	}
}

// NotCurrentAddress fails when value is the sender's own address.
func NotCurrentAddress(current string) Rule {
	return func(_ context.Context, value string) error {
		if current == "" {
			return nil
		}
		if strings.EqualFold(strings.TrimSpace(value), current) {
			return Message(MsgSameAddress)
		}
		return nil
	}
}

// BtcRecipientAddressOrBnsName accepts a Bitcoin address, or a BNS name that
// resolves to an address on network.
func BtcRecipientAddressOrBnsName(resolver NameResolver, network chain.Network) Rule {
	return func(ctx context.Context, value string) error {
		value = strings.TrimSpace(value)
		if value == "" {
			return Message(MsgRecipientRequired)
		}
		if chain.IsValidAddress(value) {
			return nil
		}
		name := strings.ToLower(value)
		if !IsBnsName(name) || resolver == nil {
			return Message(MsgInvalidAddress)
		}

		address, err := resolver.ResolveBTCAddress(ctx, name)
		if err != nil {
			return Message(MsgNameLookupFailed)
		}
		if address == "" {
			return Message(MsgNameNotFound)
		}
		if !chain.IsAddressForNetwork(address, network) {
			return Message(MsgIncorrectNetworkAddress)
		}
		return nil
	}
}

// IsBnsName reports whether s looks like a BNS name (name.namespace).
func IsBnsName(s string) bool {
	name, namespace, ok := strings.Cut(s, ".")
	if !ok || name == "" || namespace == "" || strings.Contains(namespace, ".") {
		return false
	}
	for _, c := range name + namespace {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
