package domain

import "time"

// Trade represents a single executed order for the ledger
type Trade struct {
	ID           int64     `db:"id"`
	Pair         string    `db:"pair"`
	Side         string    `db:"side"` // "BUY" or "SELL"
	BaseSize     float64   `db:"base_size"`
	LimitPrice   float64   `db:"limit_price"`
	QuoteAmount  float64   `db:"quote_amount"`
	OrderID      string    `db:"order_id"`
	Status       string    `db:"status"`
	StrategyType string    `db:"strategy_type"` // "DCA" or "MANUAL"
	CreatedAt    time.Time `db:"created_at"`
}

// Position represents the accumulated position for a pair
type Position struct {
	ID            int64     `db:"id"`
	Pair          string    `db:"pair"`
	TotalQuantity float64   `db:"total_quantity"`
	AvgEntryPrice float64   `db:"avg_entry_price"`
	TotalInvested float64   `db:"total_invested"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// Credentials holds the Coinbase API key pair for the duration of one run.
// Never persisted.
type Credentials struct {
	Key    string
	Secret string
}
