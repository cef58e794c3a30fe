// Package store persists competitor snapshots, history series, analyses
// and verdicts in Postgres. The scoring engine never imports it.
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("not found")

// DBTX is the subset of *pgxpool.Pool the repositories use.
// pgxmock pools satisfy it as well.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repositories bundles every repository over one connection pool
type Repositories struct {
	Markets     *MarketRepository
	Competitors *CompetitorRepository
	History     *HistoryRepository
	Analyses    *AnalysisRepository
	Verdicts    *VerdictRepository
}

// NewRepositories creates all repositories
func NewRepositories(db DBTX) *Repositories {
	return &Repositories{
		Markets:     NewMarketRepository(db),
		Competitors: NewCompetitorRepository(db),
		History:     NewHistoryRepository(db),
		Analyses:    NewAnalysisRepository(db),
		Verdicts:    NewVerdictRepository(db),
	}
}
