package domain

// Trade statuses
const (
	StatusPending   = "PENDING"
	StatusPlaced    = "PLACED"
	StatusFilled    = "FILLED"
	StatusCancelled = "CANCELLED"
	StatusRejected  = "REJECTED"
)

// Strategy types
const (
	StrategyDCA    = "DCA"
	StrategyManual = "MANUAL"
)

// Coinbase Advanced Trade constants
const (
	CoinbaseHost     = "https://api.coinbase.com"
	CoinbaseBasePath = "/api/v3/brokerage/"
)

// Credential sources
const (
	CredentialSourceEnv  = "env"
	CredentialSourceFile = "file"
)
