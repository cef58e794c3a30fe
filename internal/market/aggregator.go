// Package market turns a competitor list and its historical analyses into
// a 0 ~ 100 market score with a PASS / RISKY / FAIL status.
//
// Evaluation order is fixed:
//
//  1. competitor overload gate
//  2. top-seller BSR and price stability gates (only with analyses)
//  3. base score
//  4. revenue, competitor count, maturity, concentration and uptrend modifiers
//  5. clamp and classify
//
// A triggered gate short-circuits every modifier.
package market

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/wonny/nichegate/internal/competitor"
	"github.com/wonny/nichegate/internal/contracts"
	"github.com/wonny/nichegate/internal/profile"
	"github.com/wonny/nichegate/pkg/logger"
)

// ErrDuplicateASIN is returned when two competitors share an ASIN.
// Analyses are keyed by ASIN, so the input would be ambiguous.
var ErrDuplicateASIN = errors.New("duplicate competitor asin")

// Aggregator scores whole markets
// ⭐ SSOT: market verdicts are produced here only
type Aggregator struct {
	profile     profile.Profile
	profileHash string
	scorer      *competitor.Scorer
	now         func() time.Time
	logger      *logger.Logger
}

// Option configures an Aggregator
type Option func(*aggregatorOptions)

type aggregatorOptions struct {
	now func() time.Time
}

// WithClock overrides the clock used for listing ages and review velocity
func WithClock(now func() time.Time) Option {
	return func(o *aggregatorOptions) {
		o.now = now
	}
}

// NewAggregator creates an aggregator. A nil profile uses profile.Default().
func NewAggregator(p *profile.Profile, log *logger.Logger, opts ...Option) (*Aggregator, error) {
	if p == nil {
		def := profile.Default()
		p = &def
	}
	if err := profile.Validate(p); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}

	hash, err := profile.Hash(p)
	if err != nil {
		return nil, fmt.Errorf("hash profile: %w", err)
	}

	o := aggregatorOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	log = logger.OrNop(log)
	return &Aggregator{
		profile:     *p,
		profileHash: hash,
		scorer:      competitor.NewScorer(p, log, competitor.WithClock(o.now)),
		now:         o.now,
		logger:      log,
	}, nil
}

// ProfileHash returns the hash of the profile in use
func (a *Aggregator) ProfileHash() string {
	return a.profileHash
}

// Scorer returns the competitor scorer sharing this aggregator's profile and clock
func (a *Aggregator) Scorer() *competitor.Scorer {
	return a.scorer
}

// ScoreMarket returns only the verdict of Evaluate
func (a *Aggregator) ScoreMarket(competitors []contracts.CompetitorRecord, analyses contracts.HistoricalAnalyses) (contracts.MarketVerdict, error) {
	eval, err := a.Evaluate(competitors, analyses)
	if err != nil {
		return contracts.MarketVerdict{}, err
	}
	return eval.Verdict, nil
}

// Evaluate scores a market. analyses may be nil; missing entries count as
// neutral stability, never as failures.
func (a *Aggregator) Evaluate(competitors []contracts.CompetitorRecord, analyses contracts.HistoricalAnalyses) (*Evaluation, error) {
	if err := checkUnique(competitors); err != nil {
		return nil, err
	}

	now := a.now()
	eval := &Evaluation{
		CompetitorCount: len(competitors),
		Competitors:     make([]CompetitorResult, 0, len(competitors)),
		Modifiers:       []Modifier{},
		ProfileHash:     a.profileHash,
		EvaluatedAt:     now.UTC(),
	}

	// Base score first: the gates report it (capped) as well
	a.computeBase(eval, competitors)
	eval.Warnings = collectWarnings(competitors, analyses)

	log := a.logger.WithFields(map[string]interface{}{
		"competitors": len(competitors),
		"base_score":  eval.BaseScore,
	})

	// 1. competitor overload
	gates := a.profile.Gates
	if len(competitors) > gates.MaxCompetitors {
		a.fail(eval, GateCompetitorOverload, fmt.Sprintf("%d competitors exceeds %d", len(competitors), gates.MaxCompetitors))
		log.WithField("gate", GateCompetitorOverload).Debug("Market auto-failed")
		return eval, nil
	}

	// 2. stability gates
	if len(analyses) > 0 && len(competitors) > 0 {
		top := a.topSellerStability(competitors, analyses)
		eval.TopSellers = top

		if top.MeanBSR < gates.MinBSRStability {
			a.fail(eval, GateBSRStability, fmt.Sprintf("top-seller BSR stability %.3f below %.2f", top.MeanBSR, gates.MinBSRStability))
			log.WithField("gate", GateBSRStability).Debug("Market auto-failed")
			return eval, nil
		}
		if top.MeanPrice < gates.MinPriceStability {
			a.fail(eval, GatePriceStability, fmt.Sprintf("top-seller price stability %.3f below %.2f", top.MeanPrice, gates.MinPriceStability))
			log.WithField("gate", GatePriceStability).Debug("Market auto-failed")
			return eval, nil
		}
	}

	// 3. modifiers, in order
	maturity := computeMaturity(competitors, now)
	eval.Maturity = &maturity

	eval.Modifiers = append(eval.Modifiers,
		revenueModifier(eval.AvgRevenue),
		countModifier(len(competitors)),
		maturityModifier(maturity),
		concentrationModifier(competitors),
		uptrendModifier(competitors, analyses),
	)

	eval.RawScore = eval.BaseScore + eval.TotalModifiers()
	score := clamp(eval.RawScore, 0, 100)
	eval.Verdict = contracts.MarketVerdict{
		Score:  score,
		Status: a.classify(score),
	}

	log.WithFields(map[string]interface{}{
		"modifiers": eval.TotalModifiers(),
		"score":     score,
		"status":    eval.Verdict.Status,
	}).Debug("Scored market")

	return eval, nil
}

// computeBase fills per-competitor scores and
// base = avgScore*w1 + clamp(avgRevenue/divisor, 1, 10)*w2*10
func (a *Aggregator) computeBase(eval *Evaluation, competitors []contracts.CompetitorRecord) {
	mw := a.profile.MarketWeights

	var scoreSum, revenueSum float64
	for _, c := range competitors {
		b := a.scorer.Breakdown(c)
		eval.Competitors = append(eval.Competitors, CompetitorResult{
			ASIN:      c.ASIN,
			Score:     b.Score,
			Strength:  a.scorer.Strength(b.Score).Label,
			Breakdown: b,
		})
		scoreSum += b.Score
		revenueSum += c.RevenueOrZero()
	}

	if n := float64(len(competitors)); n > 0 {
		eval.AvgCompetitorScore = scoreSum / n
		eval.AvgRevenue = revenueSum / n
	}

	eval.RevenuePerCompScore = clamp(eval.AvgRevenue/mw.RevenuePerCompetitorDivisor, 1, 10)
	eval.BaseScore = eval.AvgCompetitorScore*mw.CompetitorAverage + eval.RevenuePerCompScore*mw.RevenuePerCompetitor*10
	eval.RawScore = eval.BaseScore
}

// topSellerStability averages stability over the top sellers by monthly
// sales. Missing or unavailable entries use the neutral value.
func (a *Aggregator) topSellerStability(competitors []contracts.CompetitorRecord, analyses contracts.HistoricalAnalyses) *TopSellerStability {
	gates := a.profile.Gates

	ranked := slices.Clone(competitors)
	slices.SortStableFunc(ranked, func(x, y contracts.CompetitorRecord) int {
		// descending
		sx, sy := x.SalesOrZero(), y.SalesOrZero()
		switch {
		case sx > sy:
			return -1
		case sx < sy:
			return 1
		default:
			return 0
		}
	})
	if len(ranked) > gates.TopSellers {
		ranked = ranked[:gates.TopSellers]
	}

	top := &TopSellerStability{ASINs: make([]string, 0, len(ranked))}
	var bsrSum, priceSum float64
	for _, c := range ranked {
		top.ASINs = append(top.ASINs, c.ASIN)

		an, ok := analyses[c.ASIN]
		if !ok || !an.BSR.Available() || !an.Price.Available() {
			top.NeutralFilled++
		}
		bsrSum += an.BSR.ScoreOr(gates.NeutralStability)
		priceSum += an.Price.ScoreOr(gates.NeutralStability)
	}

	n := float64(len(ranked))
	top.MeanBSR = bsrSum / n
	top.MeanPrice = priceSum / n
	return top
}

// fail caps the base score and marks the verdict FAIL
func (a *Aggregator) fail(eval *Evaluation, gate, reason string) {
	eval.AutoFail = &AutoFail{Gate: gate, Reason: reason}
	eval.Verdict = contracts.MarketVerdict{
		Score:  clamp(math.Min(a.profile.Gates.FailScoreCap, eval.BaseScore), 0, 100),
		Status: contracts.StatusFail,
	}
}

func (a *Aggregator) classify(score float64) contracts.MarketStatus {
	switch {
	case score >= a.profile.Bands.Pass:
		return contracts.StatusPass
	case score >= a.profile.Bands.Risky:
		return contracts.StatusRisky
	default:
		return contracts.StatusFail
	}
}

// ScoreMarket scores a market with the default profile and the wall clock
func ScoreMarket(competitors []contracts.CompetitorRecord, analyses contracts.HistoricalAnalyses) (contracts.MarketVerdict, error) {
	a, err := NewAggregator(nil, nil)
	if err != nil {
		return contracts.MarketVerdict{}, err
	}
	return a.ScoreMarket(competitors, analyses)
}

func checkUnique(competitors []contracts.CompetitorRecord) error {
	seen := make(map[string]struct{}, len(competitors))
	for _, c := range competitors {
		if c.ASIN == "" {
			continue
		}
		if _, ok := seen[c.ASIN]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateASIN, c.ASIN)
		}
		seen[c.ASIN] = struct{}{}
	}
	return nil
}

// collectWarnings gathers analysis warnings for competitors in the list
func collectWarnings(competitors []contracts.CompetitorRecord, analyses contracts.HistoricalAnalyses) []string {
	var warnings []string
	for _, c := range competitors {
		an, ok := analyses[c.ASIN]
		if !ok {
			continue
		}
		for _, w := range an.Warnings() {
			warnings = append(warnings, c.ASIN+": "+w)
		}
	}
	return warnings
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
