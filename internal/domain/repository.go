package domain

// TradeRepository defines storage access for executed trades
type TradeRepository interface {
	Save(trade *Trade) error
	GetRecent(pair string, limit int) ([]Trade, error)
}

// PositionRepository defines storage access for accumulated positions
type PositionRepository interface {
	Get(pair string) (*Position, error)
	Update(position *Position) error
}
