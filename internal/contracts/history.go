package contracts

import "time"

// Metric identifies which competitor metric a series tracks
type Metric string

const (
	MetricPrice Metric = "price"
	MetricBSR   Metric = "bsr"
)

// SeriesPoint is one observation. Value is nil when the source had a gap.
type SeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     *float64  `json:"value"`
}

// HistoricalSeries is a time-ordered sequence for one metric of one competitor.
// Duplicate timestamps are kept as-is; de-duplication is the caller's job.
type HistoricalSeries struct {
	ASIN   string        `json:"asin"`
	Metric Metric        `json:"metric"`
	Points []SeriesPoint `json:"points"`
}

// Values returns the non-nil values in order
func (s HistoricalSeries) Values() []float64 {
	values := make([]float64, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Value != nil {
			values = append(values, *p.Value)
		}
	}
	return values
}

// RawValues returns every value in order, gaps included
func (s HistoricalSeries) RawValues() []*float64 {
	values := make([]*float64, len(s.Points))
	for i, p := range s.Points {
		values[i] = p.Value
	}
	return values
}

// StabilityResult holds a [0,1] stability score or the reason it is unavailable.
// Exactly one of Score / Warning is set.
type StabilityResult struct {
	Score   *float64 `json:"score"`
	Warning *string  `json:"warning"`
}

// Available reports whether a score was computed
func (r StabilityResult) Available() bool {
	return r.Score != nil
}

// ScoreOr returns the score, or def when unavailable
func (r StabilityResult) ScoreOr(def float64) float64 {
	if r.Score == nil {
		return def
	}
	return *r.Score
}

// TrendDirection describes how the underlying value moved.
// For BSR, "up" means the rank number grew, i.e. sales slowed.
type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
	TrendFlat TrendDirection = "flat"
)

// TrendResult holds a first-vs-last percentage change.
// TrendPct = (first - last) / first * 100, so a falling value is positive.
type TrendResult struct {
	TrendPct  *float64       `json:"trend_pct"`
	Direction TrendDirection `json:"direction,omitempty"`
	Strength  float64        `json:"strength"` // share of steps moving in Direction (0 ~ 1)
	Warning   *string        `json:"warning"`
}

// Available reports whether a trend was computed
func (r TrendResult) Available() bool {
	return r.TrendPct != nil
}

// HistoricalAnalysis bundles the stability and trend figures for one competitor
type HistoricalAnalysis struct {
	ASIN        string          `json:"asin"`
	BSR         StabilityResult `json:"bsr"`
	Price       StabilityResult `json:"price"`
	BsrTrend    TrendResult     `json:"bsr_trend"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// HistoricalAnalyses maps ASIN to its analysis
type HistoricalAnalyses map[string]HistoricalAnalysis

// Warnings returns every warning attached to the analysis
func (a HistoricalAnalysis) Warnings() []string {
	var warnings []string
	for _, w := range []*string{a.BSR.Warning, a.Price.Warning, a.BsrTrend.Warning} {
		if w != nil {
			warnings = append(warnings, *w)
		}
	}
	return warnings
}
