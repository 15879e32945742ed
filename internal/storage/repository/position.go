package repository

import (
	"database/sql"
	"time"

	"github.com/kirillm/coinbase-dca/internal/domain"
)

// PositionRepository persists accumulated positions per pair
type PositionRepository struct {
	db *sql.DB
}

func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// Get returns the position for a pair, or an empty position if none exists
func (r *PositionRepository) Get(pair string) (*domain.Position, error) {
	position := &domain.Position{}
	query := `
		SELECT id, pair, total_quantity, avg_entry_price, total_invested, updated_at
		FROM positions WHERE pair = $1
	`
	err := r.db.QueryRow(query, pair).Scan(
		&position.ID,
		&position.Pair,
		&position.TotalQuantity,
		&position.AvgEntryPrice,
		&position.TotalInvested,
		&position.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return &domain.Position{
			Pair:      pair,
			UpdatedAt: time.Now(),
		}, nil
	}

	if err != nil {
		return nil, err
	}

	return position, nil
}

// Update upserts a recalculated position
func (r *PositionRepository) Update(position *domain.Position) error {
	query := `
		INSERT INTO positions (pair, total_quantity, avg_entry_price, total_invested, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (pair) DO UPDATE SET
			total_quantity = $2,
			avg_entry_price = $3,
			total_invested = $4,
			updated_at = NOW()
	`
	_, err := r.db.Exec(
		query,
		position.Pair,
		position.TotalQuantity,
		position.AvgEntryPrice,
		position.TotalInvested,
	)
	return err
}
