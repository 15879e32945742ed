package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/kirillm/coinbase-dca/internal/config"
	"github.com/kirillm/coinbase-dca/internal/domain"
	"github.com/kirillm/coinbase-dca/internal/storage/repository"
)

type (
	Trade    = domain.Trade
	Position = domain.Position
)

// PostgresStorage is a facade over the per-entity repositories
type PostgresStorage struct {
	db        *sql.DB
	trades    domain.TradeRepository
	positions domain.PositionRepository
}

func NewPostgresStorage(cfg config.DatabaseConfig) (*PostgresStorage, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDatabaseConnection, err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDatabaseConnection, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	storage := &PostgresStorage{
		db:        db,
		trades:    repository.NewTradeRepository(db),
		positions: repository.NewPositionRepository(db),
	}

	if err := storage.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id SERIAL PRIMARY KEY,
			pair VARCHAR(20) NOT NULL,
			side VARCHAR(10) NOT NULL,
			base_size DECIMAL(20, 8) NOT NULL,
			limit_price DECIMAL(20, 8) NOT NULL,
			quote_amount DECIMAL(20, 8) NOT NULL,
			order_id VARCHAR(100),
			status VARCHAR(20) NOT NULL,
			strategy_type VARCHAR(20) DEFAULT 'DCA',
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS positions (
			id SERIAL PRIMARY KEY,
			pair VARCHAR(20) NOT NULL UNIQUE,
			total_quantity DECIMAL(20, 8) NOT NULL DEFAULT 0,
			avg_entry_price DECIMAL(20, 8) NOT NULL DEFAULT 0,
			total_invested DECIMAL(20, 8) NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_pair_created ON trades(pair, created_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// SaveTrade records an executed order in the ledger
func (s *PostgresStorage) SaveTrade(trade *Trade) error {
	return s.trades.Save(trade)
}

// GetRecentTrades returns the last N trades for a pair
func (s *PostgresStorage) GetRecentTrades(pair string, limit int) ([]Trade, error) {
	return s.trades.GetRecent(pair, limit)
}

// GetPosition returns the accumulated position for a pair
func (s *PostgresStorage) GetPosition(pair string) (*Position, error) {
	return s.positions.Get(pair)
}

// UpdatePosition persists a recalculated position
func (s *PostgresStorage) UpdatePosition(position *Position) error {
	return s.positions.Update(position)
}

// Close closes the underlying database connection
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
