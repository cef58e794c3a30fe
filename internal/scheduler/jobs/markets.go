// Package jobs holds the scheduled jobs that keep stored verdicts fresh
package jobs

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonny/nichegate/internal/pipeline"
	"github.com/wonny/nichegate/pkg/logger"
)

// Default schedules (seconds field first)
const (
	DefaultHistoryRefreshSchedule = "0 0 3 * * *"
	DefaultMarketRescoreSchedule  = "0 30 3 * * *"
)

// MarketPipeline is the part of pipeline.Service the jobs drive
type MarketPipeline interface {
	MarketIDs(ctx context.Context) ([]string, error)
	RefreshAll(ctx context.Context) ([]string, error)
	ScoreMarkets(ctx context.Context, marketIDs []string, workers int) []pipeline.BatchResult
}

// HistoryRefreshJob recomputes historical analyses for every market
type HistoryRefreshJob struct {
	pipeline MarketPipeline
	schedule string
	logger   *logger.Logger
}

// NewHistoryRefreshJob creates the job. An empty schedule uses the default.
func NewHistoryRefreshJob(p MarketPipeline, schedule string, log *logger.Logger) *HistoryRefreshJob {
	if schedule == "" {
		schedule = DefaultHistoryRefreshSchedule
	}
	return &HistoryRefreshJob{
		pipeline: p,
		schedule: schedule,
		logger:   logger.OrNop(log),
	}
}

// Name returns the job name
func (j *HistoryRefreshJob) Name() string {
	return "history_refresh"
}

// Schedule returns the cron schedule
func (j *HistoryRefreshJob) Schedule() string {
	return j.schedule
}

// Run refreshes every market
func (j *HistoryRefreshJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled history refresh")

	failed, err := j.pipeline.RefreshAll(ctx)
	if err != nil {
		return fmt.Errorf("history refresh: %w", err)
	}
	if len(failed) > 0 {
		return fmt.Errorf("history refresh failed for %d markets: %s", len(failed), strings.Join(failed, ", "))
	}
	return nil
}

// MarketRescoreJob scores every market and records new verdicts
type MarketRescoreJob struct {
	pipeline MarketPipeline
	schedule string
	workers  int
	logger   *logger.Logger
}

// NewMarketRescoreJob creates the job. An empty schedule uses the default.
func NewMarketRescoreJob(p MarketPipeline, schedule string, workers int, log *logger.Logger) *MarketRescoreJob {
	if schedule == "" {
		schedule = DefaultMarketRescoreSchedule
	}
	return &MarketRescoreJob{
		pipeline: p,
		schedule: schedule,
		workers:  workers,
		logger:   logger.OrNop(log),
	}
}

// Name returns the job name
func (j *MarketRescoreJob) Name() string {
	return "market_rescore"
}

// Schedule returns the cron schedule
func (j *MarketRescoreJob) Schedule() string {
	return j.schedule
}

// Run scores every market
func (j *MarketRescoreJob) Run(ctx context.Context) error {
	ids, err := j.pipeline.MarketIDs(ctx)
	if err != nil {
		return fmt.Errorf("list markets: %w", err)
	}
	if len(ids) == 0 {
		j.logger.Info("No markets to score")
		return nil
	}

	results := j.pipeline.ScoreMarkets(ctx, ids, j.workers)

	var failed []string
	for _, r := range results {
		if r.Error != nil {
			failed = append(failed, r.MarketID)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("scoring failed for %d of %d markets: %s", len(failed), len(ids), strings.Join(failed, ", "))
	}
	return nil
}
