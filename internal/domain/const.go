package domain

const (
	// Blockchain constants
	ETHEREUM_ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"

	// DEFAULT_TOKEN_DECIMALS is the number of decimals used to scale ledger amounts for display
	DEFAULT_TOKEN_DECIMALS = 6

	// RECENT_TRANSACTIONS_LIMIT is the number of transactions returned with a portfolio
	RECENT_TRANSACTIONS_LIMIT = 10
)
