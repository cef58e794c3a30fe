package store

import (
	"context"
	"fmt"

	"github.com/wonny/nichegate/internal/contracts"
)

// CompetitorRepository implements contracts.CompetitorRepository
type CompetitorRepository struct {
	db DBTX
}

// NewCompetitorRepository creates a new competitor repository
func NewCompetitorRepository(db DBTX) *CompetitorRepository {
	return &CompetitorRepository{db: db}
}

// ListByMarket loads the current competitor snapshot of a market.
// NULL columns stay nil: missing metrics are not defaulted here.
func (r *CompetitorRepository) ListByMarket(ctx context.Context, marketID string) ([]contracts.CompetitorRecord, error) {
	query := `
		SELECT asin, price, bsr, monthly_sales, monthly_revenue, rating, reviews,
		       market_share_pct, review_share_pct, fulfillment_method, date_first_available
		FROM niche.competitors
		WHERE market_id = $1
		ORDER BY asin
	`

	rows, err := r.db.Query(ctx, query, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors: %w", err)
	}
	defer rows.Close()

	var records []contracts.CompetitorRecord
	for rows.Next() {
		var (
			rec         contracts.CompetitorRecord
			fulfillment string
		)
		if err := rows.Scan(
			&rec.ASIN, &rec.Price, &rec.BSR, &rec.MonthlySales, &rec.MonthlyRevenue,
			&rec.Rating, &rec.Reviews, &rec.MarketSharePct, &rec.ReviewSharePct,
			&fulfillment, &rec.DateFirstAvailable,
		); err != nil {
			return nil, fmt.Errorf("failed to scan competitor: %w", err)
		}
		rec.FulfillmentMethod = contracts.ParseFulfillmentMethod(fulfillment)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Upsert stores one competitor snapshot
func (r *CompetitorRepository) Upsert(ctx context.Context, marketID string, rec contracts.CompetitorRecord) error {
	query := `
		INSERT INTO niche.competitors (
			market_id, asin, price, bsr, monthly_sales, monthly_revenue, rating, reviews,
			market_share_pct, review_share_pct, fulfillment_method, date_first_available, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
		ON CONFLICT (market_id, asin) DO UPDATE SET
			price = EXCLUDED.price,
			bsr = EXCLUDED.bsr,
			monthly_sales = EXCLUDED.monthly_sales,
			monthly_revenue = EXCLUDED.monthly_revenue,
			rating = EXCLUDED.rating,
			reviews = EXCLUDED.reviews,
			market_share_pct = EXCLUDED.market_share_pct,
			review_share_pct = EXCLUDED.review_share_pct,
			fulfillment_method = EXCLUDED.fulfillment_method,
			date_first_available = EXCLUDED.date_first_available,
			updated_at = now()
	`

	_, err := r.db.Exec(ctx, query,
		marketID, rec.ASIN, rec.Price, rec.BSR, rec.MonthlySales, rec.MonthlyRevenue,
		rec.Rating, rec.Reviews, rec.MarketSharePct, rec.ReviewSharePct,
		string(rec.FulfillmentMethod), rec.DateFirstAvailable,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert competitor %s: %w", rec.ASIN, err)
	}
	return nil
}
