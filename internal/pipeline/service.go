// Package pipeline wires repositories to the scoring engine: it loads
// stored data, runs the analyzers and the aggregator, and records verdicts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/nichegate/internal/contracts"
	"github.com/wonny/nichegate/internal/history"
	"github.com/wonny/nichegate/internal/market"
	"github.com/wonny/nichegate/pkg/logger"
	"github.com/wonny/nichegate/pkg/redis"
)

// DefaultHistoryLookback covers a trailing year of monthly points plus slack
const DefaultHistoryLookback = 400 * 24 * time.Hour

// ErrNoCompetitors is returned when a market has no stored competitors
var ErrNoCompetitors = errors.New("market has no competitors")

// Repositories groups the collaborators the pipeline reads and writes
type Repositories struct {
	Markets     contracts.MarketRepository
	Competitors contracts.CompetitorRepository
	History     contracts.HistoryRepository
	Analyses    contracts.AnalysisRepository
	Verdicts    contracts.VerdictRepository
}

// Service runs the generate/refresh actions
// ⭐ SSOT: orchestration of load → analyze → score → record lives here
type Service struct {
	repos      Repositories
	analyzer   *history.Analyzer
	aggregator *market.Aggregator
	cache      *redis.Cache
	lookback   time.Duration
	now        func() time.Time
	newRunID   func() string
	logger     *logger.Logger
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the clock used for lookback windows and timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithCache caches the latest verdict per market
func WithCache(cache *redis.Cache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithLookback sets how far back history is loaded
func WithLookback(d time.Duration) Option {
	return func(s *Service) {
		s.lookback = d
	}
}

// WithRunIDs overrides run id generation
func WithRunIDs(fn func() string) Option {
	return func(s *Service) {
		s.newRunID = fn
	}
}

// NewService creates a pipeline service
func NewService(repos Repositories, analyzer *history.Analyzer, aggregator *market.Aggregator, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		repos:      repos,
		analyzer:   analyzer,
		aggregator: aggregator,
		lookback:   DefaultHistoryLookback,
		now:        time.Now,
		newRunID:   uuid.NewString,
		logger:     logger.OrNop(log).WithField("module", "pipeline"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result is one scored market
type Result struct {
	RunID      string                   `json:"run_id"`
	MarketID   string                   `json:"market_id"`
	Record     *contracts.VerdictRecord `json:"record"`
	Evaluation *market.Evaluation       `json:"evaluation"`
}

// MarketIDs lists every active market
func (s *Service) MarketIDs(ctx context.Context) ([]string, error) {
	return s.repos.Markets.ListIDs(ctx)
}

// RefreshHistory recomputes and stores the historical analyses of a market
func (s *Service) RefreshHistory(ctx context.Context, marketID string) ([]contracts.HistoricalAnalysis, error) {
	competitors, err := s.repos.Competitors.ListByMarket(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("load competitors: %w", err)
	}

	to := s.now()
	from := to.Add(-s.lookback)

	analyses := make([]contracts.HistoricalAnalysis, 0, len(competitors))
	for _, c := range competitors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		price, err := s.repos.History.SeriesByASIN(ctx, c.ASIN, contracts.MetricPrice, from, to)
		if err != nil {
			return nil, fmt.Errorf("load price history for %s: %w", c.ASIN, err)
		}
		bsr, err := s.repos.History.SeriesByASIN(ctx, c.ASIN, contracts.MetricBSR, from, to)
		if err != nil {
			return nil, fmt.Errorf("load bsr history for %s: %w", c.ASIN, err)
		}

		analyses = append(analyses, s.analyzer.Analyze(c.ASIN, price, bsr))
	}

	if err := s.repos.Analyses.SaveBatch(ctx, marketID, analyses); err != nil {
		return nil, fmt.Errorf("save analyses: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"market_id":   marketID,
		"competitors": len(competitors),
	}).Info("History refreshed")

	return analyses, nil
}

// ScoreMarket evaluates a market from stored data and records the verdict
func (s *Service) ScoreMarket(ctx context.Context, marketID string) (*Result, error) {
	competitors, err := s.repos.Competitors.ListByMarket(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("load competitors: %w", err)
	}
	if len(competitors) == 0 {
		return nil, fmt.Errorf("%s: %w", marketID, ErrNoCompetitors)
	}

	analyses, err := s.repos.Analyses.ListByMarket(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("load analyses: %w", err)
	}

	eval, err := s.aggregator.Evaluate(competitors, analyses)
	if err != nil {
		return nil, fmt.Errorf("evaluate market %s: %w", marketID, err)
	}

	runID := s.newRunID()
	record := &contracts.VerdictRecord{
		RunID:       runID,
		MarketID:    marketID,
		Score:       eval.Verdict.Score,
		Status:      eval.Verdict.Status,
		ProfileHash: eval.ProfileHash,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repos.Verdicts.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("save verdict: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, redis.VerdictKey(marketID), record, redis.TTLVerdict); err != nil {
			s.logger.WithError(err).Warn("Failed to cache verdict")
		}
	}

	fields := map[string]interface{}{
		"run_id":    runID,
		"market_id": marketID,
		"score":     record.Score,
		"status":    record.Status,
	}
	if eval.AutoFail != nil {
		fields["auto_fail"] = eval.AutoFail.Gate
	}
	s.logger.WithFields(fields).Info("Market scored")

	return &Result{
		RunID:      runID,
		MarketID:   marketID,
		Record:     record,
		Evaluation: eval,
	}, nil
}

// LatestVerdict returns the newest stored verdict, served from cache when possible
func (s *Service) LatestVerdict(ctx context.Context, marketID string) (*contracts.VerdictRecord, error) {
	if s.cache != nil {
		var cached contracts.VerdictRecord
		found, err := s.cache.Get(ctx, redis.VerdictKey(marketID), &cached)
		if err != nil {
			s.logger.WithError(err).Warn("Verdict cache read failed")
		}
		if found {
			return &cached, nil
		}
	}

	record, err := s.repos.Verdicts.Latest(ctx, marketID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, redis.VerdictKey(marketID), record, redis.TTLVerdict); err != nil {
			s.logger.WithError(err).Warn("Failed to cache verdict")
		}
	}
	return record, nil
}

// BatchResult is the outcome for one market of ScoreMarkets
type BatchResult struct {
	MarketID string  `json:"market_id"`
	Result   *Result `json:"result,omitempty"`
	Error    error   `json:"-"`
}

// ScoreMarkets scores independent markets in parallel.
// Results keep the order of marketIDs.
func (s *Service) ScoreMarkets(ctx context.Context, marketIDs []string, workers int) []BatchResult {
	if workers < 1 {
		workers = 1
	}

	results := make([]BatchResult, len(marketIDs))
	jobs := make(chan int, len(marketIDs))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				id := marketIDs[i]
				if err := ctx.Err(); err != nil {
					results[i] = BatchResult{MarketID: id, Error: err}
					continue
				}
				res, err := s.ScoreMarket(ctx, id)
				results[i] = BatchResult{MarketID: id, Result: res, Error: err}
			}
		}()
	}

	for i := range marketIDs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			s.logger.WithError(r.Error).WithField("market_id", r.MarketID).Error("Market scoring failed")
		}
	}
	s.logger.WithFields(map[string]interface{}{
		"markets": len(marketIDs),
		"failed":  failed,
		"workers": workers,
	}).Info("Batch scoring completed")

	return results
}

// RefreshAll refreshes history for every market sequentially and
// returns the ids that failed
func (s *Service) RefreshAll(ctx context.Context) ([]string, error) {
	ids, err := s.MarketIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}

	var failed []string
	for _, id := range ids {
		if ctx.Err() != nil {
			return failed, ctx.Err()
		}
		if _, err := s.RefreshHistory(ctx, id); err != nil {
			s.logger.WithError(err).WithField("market_id", id).Error("History refresh failed")
			failed = append(failed, id)
		}
	}
	return failed, nil
}
