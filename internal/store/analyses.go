package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wonny/nichegate/internal/contracts"
)

// AnalysisRepository implements contracts.AnalysisRepository.
// Each analysis is stored whole as JSONB, keyed by (market, asin).
type AnalysisRepository struct {
	db DBTX
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db DBTX) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// SaveBatch replaces the stored analyses of a market in one transaction
func (r *AnalysisRepository) SaveBatch(ctx context.Context, marketID string, analyses []contracts.HistoricalAnalysis) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM niche.historical_analyses WHERE market_id = $1`, marketID); err != nil {
		return fmt.Errorf("failed to clear analyses: %w", err)
	}

	query := `
		INSERT INTO niche.historical_analyses (market_id, asin, analysis, generated_at)
		VALUES ($1, $2, $3, $4)
	`
	for _, a := range analyses {
		payload, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("failed to marshal analysis %s: %w", a.ASIN, err)
		}
		if _, err := tx.Exec(ctx, query, marketID, a.ASIN, payload, a.GeneratedAt); err != nil {
			return fmt.Errorf("failed to save analysis %s: %w", a.ASIN, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit analyses: %w", err)
	}
	return nil
}

// ListByMarket loads the stored analyses keyed by ASIN
func (r *AnalysisRepository) ListByMarket(ctx context.Context, marketID string) (contracts.HistoricalAnalyses, error) {
	query := `
		SELECT asin, analysis
		FROM niche.historical_analyses
		WHERE market_id = $1
	`

	rows, err := r.db.Query(ctx, query, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	analyses := make(contracts.HistoricalAnalyses)
	for rows.Next() {
		var (
			asin    string
			payload []byte
		)
		if err := rows.Scan(&asin, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}

		var a contracts.HistoricalAnalysis
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis %s: %w", asin, err)
		}
		analyses[asin] = a
	}
	return analyses, rows.Err()
}
