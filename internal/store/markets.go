package store

import (
	"context"
	"fmt"
)

// MarketRepository implements contracts.MarketRepository
type MarketRepository struct {
	db DBTX
}

// NewMarketRepository creates a new market repository
func NewMarketRepository(db DBTX) *MarketRepository {
	return &MarketRepository{db: db}
}

// ListIDs returns every active market id in stable order
func (r *MarketRepository) ListIDs(ctx context.Context) ([]string, error) {
	query := `
		SELECT market_id
		FROM niche.markets
		WHERE active
		ORDER BY market_id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list markets: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan market: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Upsert registers a market (or renames/reactivates it)
func (r *MarketRepository) Upsert(ctx context.Context, marketID, name string) error {
	query := `
		INSERT INTO niche.markets (market_id, name, active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (market_id) DO UPDATE SET
			name = EXCLUDED.name,
			active = TRUE
	`

	if _, err := r.db.Exec(ctx, query, marketID, name); err != nil {
		return fmt.Errorf("failed to upsert market %s: %w", marketID, err)
	}
	return nil
}
