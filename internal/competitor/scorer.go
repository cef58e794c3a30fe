// Package competitor combines rubric points into a weighted 0 ~ 100
// fitness score for a single listing.
package competitor

import (
	"math"
	"time"

	"github.com/wonny/nichegate/internal/contracts"
	"github.com/wonny/nichegate/internal/profile"
	"github.com/wonny/nichegate/internal/scoring"
	"github.com/wonny/nichegate/pkg/logger"
)

// Defaults substituted for missing required metrics
const (
	DefaultPrice = 0.0
	DefaultBSR   = 999999
)

// Metric names used in breakdowns
const (
	MetricPrice          = "price"
	MetricBSR            = "bsr"
	MetricMonthlySales   = "monthly_sales"
	MetricMonthlyRevenue = "monthly_revenue"
	MetricRating         = "rating"
	MetricReviews        = "reviews"
	MetricReviewVelocity = "review_velocity"
	MetricFulfillment    = "fulfillment"
	MetricMarketShare    = "market_share"
	MetricReviewShare    = "review_share"
)

// MetricScore is one rubric line of a breakdown
type MetricScore struct {
	Metric   string  `json:"metric"`
	Points   int     `json:"points"`
	Weight   float64 `json:"weight"`
	Optional bool    `json:"optional,omitempty"`
}

// Breakdown traces a competitor score back to rubric points and weights
type Breakdown struct {
	ASIN                string        `json:"asin"`
	Metrics             []MetricScore `json:"metrics"`
	UsedVelocity        bool          `json:"used_velocity"`
	DaysOnMarket        *int          `json:"days_on_market,omitempty"`
	WeightedPoints      float64       `json:"weighted_points"`
	TotalWeightPossible float64       `json:"total_weight_possible"`
	Score               float64       `json:"score"` // 0 ~ 100, 2 decimals
}

// Scorer computes per-competitor scores
// ⭐ SSOT: competitor weighting happens here only
type Scorer struct {
	weights profile.CompetitorWeights
	bands   profile.Bands
	now     func() time.Time
	logger  *logger.Logger
}

// Option configures a Scorer
type Option func(*Scorer)

// WithClock overrides the clock used to derive days on market
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		s.now = now
	}
}

// NewScorer creates a scorer from a profile. A nil profile uses profile.Default().
func NewScorer(p *profile.Profile, log *logger.Logger, opts ...Option) *Scorer {
	if p == nil {
		def := profile.Default()
		p = &def
	}

	s := &Scorer{
		weights: p.CompetitorWeights,
		bands:   p.Bands,
		now:     time.Now,
		logger:  logger.OrNop(log),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns the weighted competitor score (0 ~ 100, 2 decimals)
func (s *Scorer) Score(rec contracts.CompetitorRecord) float64 {
	return s.Breakdown(rec).Score
}

// Breakdown scores rec and keeps every intermediate value.
// Required metrics always count toward the possible total, even when
// defaulted. Optional share metrics count only when present.
func (s *Scorer) Breakdown(rec contracts.CompetitorRecord) Breakdown {
	w := s.weights
	b := Breakdown{ASIN: rec.ASIN}

	price := valueOr(rec.Price, DefaultPrice)
	bsr := valueOr(rec.BSR, DefaultBSR)
	sales := valueOr(rec.MonthlySales, 0)
	revenue := valueOr(rec.MonthlyRevenue, 0)
	rating := valueOr(rec.Rating, 0)
	reviews := valueOr(rec.Reviews, 0)

	add := func(metric string, points int, weight float64, optional bool) {
		b.Metrics = append(b.Metrics, MetricScore{
			Metric:   metric,
			Points:   points,
			Weight:   weight,
			Optional: optional,
		})
		b.WeightedPoints += float64(points) * weight
		b.TotalWeightPossible += scoring.MaxPoints * weight
	}

	add(MetricPrice, scoring.Price(price), w.Price, false)
	add(MetricBSR, scoring.BSR(bsr), w.BSR, false)
	add(MetricMonthlySales, scoring.MonthlySales(sales), w.MonthlySales, false)
	add(MetricMonthlyRevenue, scoring.MonthlyRevenue(revenue), w.MonthlyRevenue, false)
	add(MetricRating, scoring.Rating(rating), w.Rating, false)

	if days, ok := DaysOnMarket(rec.DateFirstAvailable, s.now()); ok {
		b.UsedVelocity = true
		b.DaysOnMarket = &days
		add(MetricReviewVelocity, scoring.ReviewVelocity(days, reviews), w.Reviews, false)
	} else {
		add(MetricReviews, scoring.Reviews(reviews), w.Reviews, false)
	}

	add(MetricFulfillment, scoring.Fulfillment(rec.FulfillmentMethod, revenue), w.Fulfillment, false)

	if rec.MarketSharePct != nil {
		add(MetricMarketShare, scoring.SharePct(*rec.MarketSharePct), w.MarketShare, true)
	}
	if rec.ReviewSharePct != nil {
		add(MetricReviewShare, scoring.SharePct(*rec.ReviewSharePct), w.ReviewShare, true)
	}

	if b.TotalWeightPossible > 0 {
		b.Score = round2(b.WeightedPoints / b.TotalWeightPossible * 100)
	}

	s.logger.WithFields(map[string]interface{}{
		"asin":          rec.ASIN,
		"score":         b.Score,
		"used_velocity": b.UsedVelocity,
		"metrics":       len(b.Metrics),
	}).Debug("Scored competitor")

	return b
}

// Strength classifies a competitor score.
// This scale is independent of the market PASS/RISKY/FAIL bands.
func (s *Scorer) Strength(score float64) contracts.CompetitorStrength {
	return strength(score, s.bands)
}

// DaysOnMarket returns ceil((now - date) / 24h) when date is set and in
// the past. ok is false when review velocity cannot be used.
func DaysOnMarket(date *time.Time, now time.Time) (int, bool) {
	if date == nil || date.IsZero() || !date.Before(now) {
		return 0, false
	}

	days := int(math.Ceil(float64(now.Sub(*date)) / float64(24*time.Hour)))
	if days < 0 {
		days = 0
	}
	return days, true
}

// ScoreCompetitor scores rec with the default profile and the wall clock
func ScoreCompetitor(rec contracts.CompetitorRecord) float64 {
	return NewScorer(nil, nil).Score(rec)
}

// GetStrength classifies score with the default bands: >= 60 STRONG, >= 45 DECENT
func GetStrength(score float64) contracts.CompetitorStrength {
	return strength(score, profile.Default().Bands)
}

func strength(score float64, bands profile.Bands) contracts.CompetitorStrength {
	switch {
	case score >= bands.StrongCompetitor:
		return contracts.CompetitorStrength{Label: contracts.StrengthStrong}
	case score >= bands.DecentCompetitor:
		return contracts.CompetitorStrength{Label: contracts.StrengthDecent}
	default:
		return contracts.CompetitorStrength{Label: contracts.StrengthWeak}
	}
}

func valueOr[T any](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
