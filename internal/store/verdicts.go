package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/nichegate/internal/contracts"
)

// VerdictRepository implements contracts.VerdictRepository
type VerdictRepository struct {
	db DBTX
}

// NewVerdictRepository creates a new verdict repository
func NewVerdictRepository(db DBTX) *VerdictRepository {
	return &VerdictRepository{db: db}
}

// Save appends a verdict. Verdicts are never updated.
func (r *VerdictRepository) Save(ctx context.Context, record *contracts.VerdictRecord) error {
	query := `
		INSERT INTO niche.market_verdicts (run_id, market_id, score, status, profile_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		record.RunID, record.MarketID, record.Score, string(record.Status),
		record.ProfileHash, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save verdict: %w", err)
	}
	return nil
}

// Latest returns the newest verdict of a market, or ErrNotFound
func (r *VerdictRepository) Latest(ctx context.Context, marketID string) (*contracts.VerdictRecord, error) {
	query := `
		SELECT run_id::text, market_id, score, status, profile_hash, created_at
		FROM niche.market_verdicts
		WHERE market_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var (
		rec    contracts.VerdictRecord
		status string
	)
	err := r.db.QueryRow(ctx, query, marketID).Scan(
		&rec.RunID, &rec.MarketID, &rec.Score, &status, &rec.ProfileHash, &rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("verdict for market %s: %w", marketID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verdict: %w", err)
	}

	rec.Status = contracts.MarketStatus(status)
	return &rec, nil
}
