package chain

import (
	"errors"
	"testing"
)

func TestAllNetworksRegistered(t *testing.T) {
	got := List()
	want := []Network{Mainnet, Regtest, Signet, Testnet}

	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestBitcoinMainnet(t *testing.T) {
	params, ok := Get(Mainnet)
	if !ok {
		t.Fatal("mainnet should be registered")
	}

	if params.Symbol != "BTC" {
		t.Errorf("Symbol = %s, want BTC", params.Symbol)
	}
	if params.Decimals != 8 {
		t.Errorf("Decimals = %d, want 8", params.Decimals)
	}
	if params.CoinType != 0 {
		t.Errorf("CoinType = %d, want 0", params.CoinType)
	}
	if params.DefaultPurpose != 84 {
		t.Errorf("DefaultPurpose = %d, want 84 (SegWit)", params.DefaultPurpose)
	}
	if params.Bech32HRP() != "bc" {
		t.Errorf("Bech32HRP = %s, want bc", params.Bech32HRP())
	}
	if params.DefaultAddressType != AddressP2WPKH {
		t.Errorf("DefaultAddressType = %s, want p2wpkh", params.DefaultAddressType)
	}
}

func TestTestNetworks(t *testing.T) {
	tests := []struct {
		network Network
		hrp     string
	}{
		{Testnet, "tb"},
		{Signet, "tb"},
		{Regtest, "bcrt"},
	}

	for _, tt := range tests {
		t.Run(string(tt.network), func(t *testing.T) {
			params, ok := Get(tt.network)
			if !ok {
				t.Fatalf("%s should be registered", tt.network)
			}
			if params.CoinType != 1 {
				t.Errorf("CoinType = %d, want 1", params.CoinType)
			}
			if params.Bech32HRP() != tt.hrp {
				t.Errorf("Bech32HRP = %s, want %s", params.Bech32HRP(), tt.hrp)
			}
		})
	}
}

func TestDerivationPathString(t *testing.T) {
	mainnet, _ := Get(Mainnet)
	testnet, _ := Get(Testnet)

	if got := mainnet.DerivationPathString(0, 0, 0); got != "m/84'/0'/0'/0/0" {
		t.Errorf("mainnet path = %s", got)
	}
	if got := testnet.DerivationPathString(2, 1, 5); got != "m/84'/1'/2'/1/5" {
		t.Errorf("testnet path = %s", got)
	}

	path := mainnet.DerivationPath(0, 0, 7)
	if len(path) != 5 || path[0] != 84+0x80000000 || path[4] != 7 {
		t.Errorf("DerivationPath = %v", path)
	}
}

func TestSelector(t *testing.T) {
	sel, err := NewSelector(Mainnet)
	if err != nil {
		t.Fatalf("NewSelector() error = %v", err)
	}
	if sel.Current().Network != Mainnet {
		t.Fatalf("Current() = %s, want mainnet", sel.Current().Network)
	}

	var notified Network
	sel.OnSwitch(func(p *Params) { notified = p.Network })

	if _, err := sel.Switch(Testnet); err != nil {
		t.Fatalf("Switch() error = %v", err)
	}
	if sel.Current().Network != Testnet {
		t.Errorf("Current() = %s, want testnet", sel.Current().Network)
	}
	if notified != Testnet {
		t.Errorf("listener saw %s, want testnet", notified)
	}

	if _, err := sel.Switch("dogenet"); !errors.Is(err, ErrUnknownNetwork) {
		t.Errorf("Switch(dogenet) error = %v, want ErrUnknownNetwork", err)
	}
	if _, err := NewSelector("dogenet"); !errors.Is(err, ErrUnknownNetwork) {
		t.Errorf("NewSelector(dogenet) error = %v, want ErrUnknownNetwork", err)
	}
}
