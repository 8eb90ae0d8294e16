package validation

// User-facing validation messages.
const (
	MsgAmountRequired          = "Enter an amount"
	MsgMustBeNumber            = "Amount must be a number"
	MsgInsufficientFunds       = "Insufficient funds"
	MsgBalanceUnavailable      = "Unable to calculate available balance"
	MsgPrecisionUnknown        = "Unable to calculate precision"
	MsgAddressRequired         = "Enter an address"
	MsgInvalidAddress          = "Address is not valid"
	MsgIncorrectNetworkAddress = "Address is for incorrect network"
	MsgSameAddress             = "Cannot send to yourself"
	MsgRecipientRequired       = "Enter a bitcoin address or BNS name"
	MsgNameNotFound            = "Could not find a bitcoin address for this name"
	MsgNameLookupFailed        = "Unable to resolve name"
)
