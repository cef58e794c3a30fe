package store

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/nichegate/internal/contracts"
)

// HistoryRepository implements contracts.HistoryRepository
type HistoryRepository struct {
	db DBTX
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db DBTX) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// SeriesByASIN loads one metric series in time order. Gaps are stored as
// NULL values and come back as nil points.
func (r *HistoryRepository) SeriesByASIN(ctx context.Context, asin string, metric contracts.Metric, from, to time.Time) (contracts.HistoricalSeries, error) {
	query := `
		SELECT observed_at, value
		FROM niche.history_points
		WHERE asin = $1 AND metric = $2 AND observed_at BETWEEN $3 AND $4
		ORDER BY observed_at ASC, id ASC
	`

	series := contracts.HistoricalSeries{ASIN: asin, Metric: metric}

	rows, err := r.db.Query(ctx, query, asin, string(metric), from, to)
	if err != nil {
		return series, fmt.Errorf("failed to query %s history for %s: %w", metric, asin, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p contracts.SeriesPoint
		if err := rows.Scan(&p.Timestamp, &p.Value); err != nil {
			return series, fmt.Errorf("failed to scan history point: %w", err)
		}
		series.Points = append(series.Points, p)
	}
	return series, rows.Err()
}

// Append stores series points for one metric
func (r *HistoryRepository) Append(ctx context.Context, series contracts.HistoricalSeries) error {
	if len(series.Points) == 0 {
		return nil
	}

	query := `
		INSERT INTO niche.history_points (asin, metric, observed_at, value)
		VALUES ($1, $2, $3, $4)
	`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, p := range series.Points {
		if _, err := tx.Exec(ctx, query, series.ASIN, string(series.Metric), p.Timestamp, p.Value); err != nil {
			return fmt.Errorf("failed to insert history point: %w", err)
		}
	}

	return tx.Commit(ctx)
}
