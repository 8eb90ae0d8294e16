package config

// Bitcoin send constants. The YAML file may override the fee threshold and the
// minimum spend; everything else is fixed.
const (
	// BtcDecimals is the number of fractional digits a BTC amount may carry.
	BtcDecimals = 8

	// HighFeeAmountSats is the fee (0.001 BTC) above which a send needs an
	// explicit user acknowledgment.
	HighFeeAmountSats uint64 = 100_000

	// BtcP2WPKHDustAmount is the smallest P2WPKH output relayed by default nodes.
	BtcP2WPKHDustAmount uint64 = 294

	// ChangeDustThreshold is the value below which change is folded into the fee.
	ChangeDustThreshold uint64 = 546
)
