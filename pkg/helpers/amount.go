// Package helpers provides amount conversions shared by the send flow.
package helpers

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrInvalidAmount is returned for strings that are not plain decimal numbers.
var ErrInvalidAmount = errors.New("invalid amount")

// FormatAmount formats an amount in smallest units as a decimal string.
// For example, FormatAmount(100000000, 8) returns "1" (1 BTC).
func FormatAmount(amount uint64, decimals uint8) string {
	if decimals == 0 {
		return fmt.Sprintf("%d", amount)
	}

	amountBig := new(big.Int).SetUint64(amount)
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)

	whole := new(big.Int).Div(amountBig, divisor)
	frac := new(big.Int).Mod(amountBig, divisor)

	if frac.Sign() == 0 {
		return whole.String()
	}

	fracStr := strings.TrimRight(fmt.Sprintf("%0*d", int(decimals), frac), "0")
	return whole.String() + "." + fracStr
}

// splitDecimal splits s into its whole and fractional digit runs.
func splitDecimal(s string) (string, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", fmt.Errorf("%w: empty amount string", ErrInvalidAmount)
	}

	wholeStr, fracStr, _ := strings.Cut(s, ".")
	if wholeStr == "" && fracStr == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidAmount, s)
	}
	for _, c := range wholeStr + fracStr {
		if c < '0' || c > '9' {
			return "", "", fmt.Errorf("%w: invalid character %c", ErrInvalidAmount, c)
		}
	}
	if wholeStr == "" {
		wholeStr = "0"
	}
	return wholeStr, fracStr, nil
}

// DecimalPlaces returns the number of significant fractional digits in s.
// Trailing zeros do not count: "0.10" has one decimal place.
func DecimalPlaces(s string) (int, error) {
	_, fracStr, err := splitDecimal(s)
	if err != nil {
		return 0, err
	}
	return len(strings.TrimRight(fracStr, "0")), nil
}

// ParseAmount parses a decimal string to smallest units.
// Digits beyond decimals are an error rather than being truncated.
// For example, ParseAmount("1", 8) returns 100000000 (1 BTC in satoshis).
func ParseAmount(s string, decimals uint8) (uint64, error) {
	wholeStr, fracStr, err := splitDecimal(s)
	if err != nil {
		return 0, err
	}

	fracStr = strings.TrimRight(fracStr, "0")
	if len(fracStr) > int(decimals) {
		return 0, fmt.Errorf("%w: more than %d decimals: %s", ErrInvalidAmount, decimals, s)
	}
	fracStr += strings.Repeat("0", int(decimals)-len(fracStr))

	amount, ok := new(big.Int).SetString(wholeStr+fracStr, 10)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrInvalidAmount, s)
	}
	if !amount.IsUint64() {
		return 0, fmt.Errorf("%w: overflow: %s", ErrInvalidAmount, s)
	}

	return amount.Uint64(), nil
}

// SatoshisToBTC converts satoshis to BTC string (8 decimals).
func SatoshisToBTC(satoshis uint64) string {
	return FormatAmount(satoshis, 8)
}

// BTCToSatoshis converts a BTC string to satoshis.
func BTCToSatoshis(btc string) (uint64, error) {
	return ParseAmount(btc, 8)
}
