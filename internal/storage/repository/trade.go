package repository

import (
	"database/sql"

	"github.com/kirillm/coinbase-dca/internal/domain"
)

// TradeRepository persists executed trades
type TradeRepository struct {
	db *sql.DB
}

func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Save inserts a new trade and fills in its id
func (r *TradeRepository) Save(trade *domain.Trade) error {
	query := `
		INSERT INTO trades (pair, side, base_size, limit_price, quote_amount, order_id, status, strategy_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	return r.db.QueryRow(
		query,
		trade.Pair,
		trade.Side,
		trade.BaseSize,
		trade.LimitPrice,
		trade.QuoteAmount,
		trade.OrderID,
		trade.Status,
		trade.StrategyType,
		trade.CreatedAt,
	).Scan(&trade.ID)
}

// GetRecent returns the last N trades for a pair
func (r *TradeRepository) GetRecent(pair string, limit int) ([]domain.Trade, error) {
	query := `
		SELECT id, pair, side, base_size, limit_price, quote_amount, order_id, status,
		       COALESCE(strategy_type, 'DCA'), created_at
		FROM trades
		WHERE pair = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(query, pair, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var trade domain.Trade
		if err := rows.Scan(
			&trade.ID,
			&trade.Pair,
			&trade.Side,
			&trade.BaseSize,
			&trade.LimitPrice,
			&trade.QuoteAmount,
			&trade.OrderID,
			&trade.Status,
			&trade.StrategyType,
			&trade.CreatedAt,
		); err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}
	return trades, rows.Err()
}
