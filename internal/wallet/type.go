package wallet

import "github.com/Klingon-tech/btcsend/internal/config"

// Handlers holds one action per wallet type.
type Handlers struct {
	Software func()
	Ledger   func()
}

// WhenWallet picks the handler for walletType. The returned func is never
// nil; a missing handler becomes a no-op.
func WhenWallet(walletType config.WalletType, h Handlers) func() {
	var fn func()
	switch walletType {
	case config.WalletLedger:
		fn = h.Ledger
	default:
		fn = h.Software
	}
	if fn == nil {
		return func() {}
	}
	return fn
}
