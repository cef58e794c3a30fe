package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: repository interfaces are defined here only

// MarketRepository lists tracked markets
type MarketRepository interface {
	ListIDs(ctx context.Context) ([]string, error)
}

// CompetitorRepository loads competitor snapshots
type CompetitorRepository interface {
	ListByMarket(ctx context.Context, marketID string) ([]CompetitorRecord, error)
}

// HistoryRepository loads time series for one competitor
type HistoryRepository interface {
	SeriesByASIN(ctx context.Context, asin string, metric Metric, from, to time.Time) (HistoricalSeries, error)
}

// AnalysisRepository stores generated historical analyses
type AnalysisRepository interface {
	SaveBatch(ctx context.Context, marketID string, analyses []HistoricalAnalysis) error
	ListByMarket(ctx context.Context, marketID string) (HistoricalAnalyses, error)
}

// VerdictRepository stores scored verdicts
type VerdictRepository interface {
	Save(ctx context.Context, record *VerdictRecord) error
	Latest(ctx context.Context, marketID string) (*VerdictRecord, error)
}
