package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/wonny/nichegate/internal/history"
	"github.com/wonny/nichegate/internal/market"
	"github.com/wonny/nichegate/internal/pipeline"
	"github.com/wonny/nichegate/internal/profile"
	"github.com/wonny/nichegate/internal/store"
	"github.com/wonny/nichegate/pkg/config"
	"github.com/wonny/nichegate/pkg/database"
	"github.com/wonny/nichegate/pkg/logger"
	"github.com/wonny/nichegate/pkg/redis"
)

const dateLayout = "2006-01-02"

// newCLILogger logs to stderr so command output stays clean on stdout
func newCLILogger(cfg *config.Config) *logger.Logger {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	return logger.NewWithWriter(os.Stderr, level)
}

// resolveProfile applies the --profile flag over SCORING_PROFILE
func resolveProfile(cfg *config.Config) (*profile.Profile, error) {
	path := cfg.Scoring.ProfilePath
	if profilePath != "" {
		path = profilePath
	}
	p, err := profile.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

// parseClock turns an optional YYYY-MM-DD flag into a fixed clock
func parseClock(value string) (func() time.Time, error) {
	if value == "" {
		return time.Now, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid --now %q (want %s): %w", value, dateLayout, err)
	}
	return func() time.Time { return t }, nil
}

// engine bundles the pure scoring components
type engine struct {
	aggregator *market.Aggregator
	analyzer   *history.Analyzer
}

func newEngine(cfg *config.Config, log *logger.Logger, now func() time.Time) (*engine, error) {
	p, err := resolveProfile(cfg)
	if err != nil {
		return nil, err
	}

	agg, err := market.NewAggregator(p, log, market.WithClock(now))
	if err != nil {
		return nil, err
	}

	return &engine{
		aggregator: agg,
		analyzer:   history.NewAnalyzer(log, history.WithClock(now)),
	}, nil
}

// app is everything a database-backed command needs
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *database.DB
	redis   *redis.Client
	engine  *engine
	service *pipeline.Service
}

// newApp connects to Postgres (and Redis when enabled) and builds the pipeline
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	eng, err := newEngine(cfg, log, time.Now)
	if err != nil {
		return nil, err
	}

	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	rdb, err := redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		rdb = redis.Disabled()
	}

	repos := store.NewRepositories(db.Pool)
	service := pipeline.NewService(pipeline.Repositories{
		Markets:     repos.Markets,
		Competitors: repos.Competitors,
		History:     repos.History,
		Analyses:    repos.Analyses,
		Verdicts:    repos.Verdicts,
	}, eng.analyzer, eng.aggregator, log, pipeline.WithCache(redis.NewCache(rdb, "nichegate")))

	return &app{
		cfg:     cfg,
		log:     log,
		db:      db,
		redis:   rdb,
		engine:  eng,
		service: service,
	}, nil
}

// Close releases connections
func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close Redis")
	}
	a.db.Close()
}
