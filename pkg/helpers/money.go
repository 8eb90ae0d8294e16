package helpers

// Money is an amount in smallest units tagged with its currency.
type Money struct {
	Amount   uint64 `json:"amount"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// NewBTC returns a Money value for an amount of satoshis.
func NewBTC(sats uint64) Money {
	return Money{Amount: sats, Symbol: "BTC", Decimals: 8}
}

// String formats the amount with its symbol, e.g. "0.001 BTC".
func (m Money) String() string {
	return FormatAmount(m.Amount, m.Decimals) + " " + m.Symbol
}
