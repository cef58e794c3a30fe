package competitor

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/nichegate/internal/contracts"
	"github.com/wonny/nichegate/internal/profile"
)

var fixedNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func newTestScorer() *Scorer {
	return NewScorer(nil, nil, WithClock(func() time.Time { return fixedNow }))
}

func sampleRecord() contracts.CompetitorRecord {
	return contracts.NewCompetitorBuilder("B0COMP0001").
		Price(27.99).
		BSR(8200).
		MonthlySales(180).
		MonthlyRevenue(5038.2).
		Rating(4.5).
		Reviews(500).
		FirstAvailable(time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC)).
		Fulfillment(contracts.FulfillmentFBA).
		MarketSharePct(18.2).
		Build()
}

func TestScorer_Breakdown(t *testing.T) {
	b := newTestScorer().Breakdown(sampleRecord())

	assert.True(t, b.UsedVelocity)
	require.NotNil(t, b.DaysOnMarket)
	assert.Equal(t, 1174, *b.DaysOnMarket)
	assert.InDelta(t, 82.7, b.WeightedPoints, 1e-9)
	assert.InDelta(t, 112.0, b.TotalWeightPossible, 1e-9)
	assert.Equal(t, 73.84, b.Score)

	points := map[string]int{}
	for _, m := range b.Metrics {
		points[m.Metric] = m.Points
	}
	assert.Equal(t, map[string]int{
		MetricPrice:          10,
		MetricBSR:            8,
		MetricMonthlySales:   4,
		MetricMonthlyRevenue: 6,
		MetricRating:         8,
		MetricReviewVelocity: 10,
		MetricFulfillment:    8,
		MetricMarketShare:    7,
	}, points)
}

func TestScorer_EmptyRecord(t *testing.T) {
	s := newTestScorer()
	b := s.Breakdown(contracts.CompetitorRecord{})

	assert.False(t, b.UsedVelocity)
	assert.Len(t, b.Metrics, 7)
	assert.InDelta(t, 97.0, b.TotalWeightPossible, 1e-9)
	assert.Equal(t, 9.18, b.Score)
}

func TestScorer_OptionalMetricsDoNotPenalize(t *testing.T) {
	s := newTestScorer()

	with := sampleRecord()
	without := sampleRecord()
	without.MarketSharePct = nil

	withScore := s.Score(with)
	withoutScore := s.Score(without)
	assert.Equal(t, 74.43, withoutScore)

	// omission is skipped, not scored as zero points
	zeroed := s.Breakdown(with)
	zeroedAsMissing := (zeroed.WeightedPoints - 7*1.5) / zeroed.TotalWeightPossible * 100
	assert.Greater(t, withoutScore, zeroedAsMissing)

	// the gap stays within the weight share of the one optional metric
	share := 1.5 * 10 / zeroed.TotalWeightPossible * 100
	assert.LessOrEqual(t, withoutScore-withScore, share)
}

func TestScorer_InfiniteSalesScoreWorst(t *testing.T) {
	rec := contracts.NewCompetitorBuilder("B0COMP0002").
		MonthlySales(math.Inf(1)).
		MonthlyRevenue(math.Inf(1)).
		Fulfillment(contracts.FulfillmentFBM).
		Build()

	points := map[string]int{}
	for _, m := range newTestScorer().Breakdown(rec).Metrics {
		points[m.Metric] = m.Points
	}

	assert.Equal(t, 1, points[MetricMonthlySales])
	assert.Equal(t, 1, points[MetricMonthlyRevenue])
	assert.Equal(t, 2, points[MetricFulfillment], "agrees with RevenueOrZero")
	assert.Equal(t, 0.0, rec.RevenueOrZero())
}

func TestScorer_ReviewVelocityPrecedence(t *testing.T) {
	s := newTestScorer()

	rec := sampleRecord()
	rec.Reviews = contracts.Ptr(20)
	future := fixedNow.AddDate(0, 1, 0)

	withDate := s.Breakdown(rec)
	assert.True(t, withDate.UsedVelocity)

	rec.DateFirstAvailable = &future
	futureDate := s.Breakdown(rec)
	assert.False(t, futureDate.UsedVelocity)
	assert.Nil(t, futureDate.DaysOnMarket)

	rec.DateFirstAvailable = nil
	noDate := s.Breakdown(rec)
	assert.False(t, noDate.UsedVelocity)
	assert.Equal(t, MetricReviews, noDate.Metrics[5].Metric)
	assert.Equal(t, 3, noDate.Metrics[5].Points)
}

func TestScorer_Deterministic(t *testing.T) {
	s := newTestScorer()
	rec := sampleRecord()

	first := s.Score(rec)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, s.Score(rec))
	}
}

func TestScorer_Bounds(t *testing.T) {
	s := newTestScorer()
	best := contracts.NewCompetitorBuilder("B0BEST").
		Price(40).
		BSR(10).
		MonthlySales(5000).
		MonthlyRevenue(200000).
		Rating(5).
		Reviews(10000).
		Fulfillment(contracts.FulfillmentAmazon).
		MarketSharePct(100).
		ReviewSharePct(100).
		Build()

	assert.Equal(t, 100.0, s.Score(best))

	worst := contracts.NewCompetitorBuilder("B0WORST").
		Price(-1).
		BSR(-1).
		MonthlySales(-1).
		MonthlyRevenue(-1).
		Rating(-1).
		Reviews(-1).
		MarketSharePct(-50).
		Build()
	score := s.Score(worst)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
}

func TestScorer_CustomWeights(t *testing.T) {
	p := profile.Default()
	p.CompetitorWeights.Price = 5

	custom := NewScorer(&p, nil, WithClock(func() time.Time { return fixedNow }))
	def := newTestScorer()

	rec := sampleRecord()
	assert.Greater(t, custom.Score(rec), def.Score(rec))
}

func TestDaysOnMarket(t *testing.T) {
	_, ok := DaysOnMarket(nil, fixedNow)
	assert.False(t, ok)

	zero := time.Time{}
	_, ok = DaysOnMarket(&zero, fixedNow)
	assert.False(t, ok)

	halfDay := fixedNow.Add(-12 * time.Hour)
	days, ok := DaysOnMarket(&halfDay, fixedNow)
	assert.True(t, ok)
	assert.Equal(t, 1, days)

	_, ok = DaysOnMarket(&fixedNow, fixedNow)
	assert.False(t, ok)
}

func TestStrength(t *testing.T) {
	tests := []struct {
		score float64
		want  contracts.StrengthLabel
	}{
		{100, contracts.StrengthStrong},
		{60, contracts.StrengthStrong},
		{59.99, contracts.StrengthDecent},
		{45, contracts.StrengthDecent},
		{44.99, contracts.StrengthWeak},
		{0, contracts.StrengthWeak},
	}

	s := newTestScorer()
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetStrength(tt.score).Label, "score %v", tt.score)
		assert.Equal(t, tt.want, s.Strength(tt.score).Label, "score %v", tt.score)
	}
}

func TestScoreCompetitor_PackageLevel(t *testing.T) {
	rec := sampleRecord()
	rec.DateFirstAvailable = nil

	assert.Equal(t, newTestScorer().Score(rec), ScoreCompetitor(rec))
}
