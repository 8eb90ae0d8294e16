package helpers

import (
	"errors"
	"testing"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount   uint64
		decimals uint8
		want     string
	}{
		{100000000, 8, "1"},         // 1 BTC
		{50000000, 8, "0.5"},        // 0.5 BTC
		{12345678, 8, "0.12345678"}, // All decimals
		{100000, 8, "0.001"},        // High fee threshold
		{294, 8, "0.00000294"},      // P2WPKH dust
		{1, 8, "0.00000001"},        // 1 satoshi
		{0, 8, "0"},
		{123, 0, "123"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := FormatAmount(tt.amount, tt.decimals)
			if got != tt.want {
				t.Errorf("FormatAmount(%d, %d) = %s, want %s", tt.amount, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input    string
		decimals uint8
		want     uint64
		wantErr  bool
	}{
		{"1", 8, 100000000, false},
		{"0.5", 8, 50000000, false},
		{".5", 8, 50000000, false},
		{"0.12345678", 8, 12345678, false},
		{"0.123456780", 8, 12345678, false},
		{"0.00000001", 8, 1, false},
		{" 0.001 ", 8, 100000, false},
		{"0", 8, 0, false},
		{"123", 0, 123, false},
		{"0.123456789", 8, 0, true},
		{"invalid", 8, 0, true},
		{"-1", 8, 0, true},
		{"1.2.3", 8, 0, true},
		{".", 8, 0, true},
		{"", 8, 0, true},
		{"99999999999999999999", 8, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input, tt.decimals)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Errorf("expected ErrInvalidAmount, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseAmount(%s, %d) = %d, want %d", tt.input, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestDecimalPlaces(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"1", 0},
		{"1.0", 0},
		{"0.10", 1},
		{"0.00000001", 8},
		{"0.000000001", 9},
		{".25", 2},
	}

	for _, tt := range tests {
		got, err := DecimalPlaces(tt.input)
		if err != nil {
			t.Fatalf("DecimalPlaces(%q) error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("DecimalPlaces(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}

	if _, err := DecimalPlaces("abc"); err == nil {
		t.Error("expected error for non-numeric input")
	}
}

func TestFormatParseRoundtrip(t *testing.T) {
	amounts := []uint64{1, 100, 294, 12345678, 100000000, 999999999}

	for _, amount := range amounts {
		formatted := FormatAmount(amount, 8)
		parsed, err := ParseAmount(formatted, 8)
		if err != nil {
			t.Errorf("ParseAmount(%s) failed: %v", formatted, err)
			continue
		}
		if parsed != amount {
			t.Errorf("roundtrip failed: %d -> %s -> %d", amount, formatted, parsed)
		}
	}
}

func TestSatoshisBTCConversion(t *testing.T) {
	if got := SatoshisToBTC(150000000); got != "1.5" {
		t.Errorf("SatoshisToBTC = %s, want 1.5", got)
	}
	sats, err := BTCToSatoshis("1.5")
	if err != nil || sats != 150000000 {
		t.Errorf("BTCToSatoshis = %d, %v; want 150000000", sats, err)
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		m    Money
		want string
	}{
		{NewBTC(100000), "0.001 BTC"},
		{NewBTC(0), "0 BTC"},
		{Money{Amount: 1500, Symbol: "STX", Decimals: 6}, "0.0015 STX"},
	}
	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
