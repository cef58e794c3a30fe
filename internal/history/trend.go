package history

import (
	"fmt"

	"github.com/wonny/nichegate/internal/contracts"
)

const (
	// TrendMinPoints is the minimum for first-vs-last trends
	TrendMinPoints = 2

	// MonthlyTrendMinPoints is the minimum for month-over-month trends
	MonthlyTrendMinPoints = 12
)

// ComputeTrend compares the first and last values of a plain series.
// Needs 2 clean points.
func ComputeTrend(series []float64) contracts.TrendResult {
	return trend("trend", clean(series), TrendMinPoints)
}

// ComputeBsrTrend compares the first and last clean BSR points.
// A falling rank number yields a positive TrendPct (improving).
func ComputeBsrTrend(series contracts.HistoricalSeries) contracts.TrendResult {
	return trend("bsr trend", clean(series.Values()), TrendMinPoints)
}

// MonthlyBsrTrend runs the BSR trend over the trailing 12 clean points
// and needs all 12. This is the variant behind the uptrend modifier.
func MonthlyBsrTrend(series contracts.HistoricalSeries) contracts.TrendResult {
	values := clean(series.Values())
	if len(values) < MonthlyTrendMinPoints {
		return noTrend(fmt.Sprintf("bsr trend: insufficient history (%d points, need %d)", len(values), MonthlyTrendMinPoints))
	}
	return trend("bsr trend", trailing(values, Window), MonthlyTrendMinPoints)
}

// ComputePriceTrend compares the raw point 12 from the end with the last point.
// Gaps count toward the 12 point minimum.
func ComputePriceTrend(series contracts.HistoricalSeries) contracts.TrendResult {
	raw := series.RawValues()
	if len(raw) < Window {
		return noTrend(fmt.Sprintf("price trend: insufficient history (%d points, need %d)", len(raw), Window))
	}

	window := trailing(raw, Window)
	first, last := window[0], window[len(window)-1]
	if first == nil {
		return noTrend("price trend: missing base point")
	}
	if *first == 0 {
		return noTrend("price trend: degenerate trend base")
	}
	if last == nil {
		return noTrend("price trend: missing last point")
	}

	var values []float64
	for _, v := range window {
		if v != nil {
			values = append(values, *v)
		}
	}

	pct := (*first - *last) / *first * 100
	dir := direction(*first, *last)
	return contracts.TrendResult{
		TrendPct:  &pct,
		Direction: dir,
		Strength:  strength(values, dir),
	}
}

// trend computes (first - last) / first * 100 with direction and strength
func trend(label string, values []float64, minPoints int) contracts.TrendResult {
	if len(values) < minPoints {
		return noTrend(fmt.Sprintf("%s: insufficient history (%d points, need %d)", label, len(values), minPoints))
	}

	first, last := values[0], values[len(values)-1]
	if first == 0 {
		return noTrend(fmt.Sprintf("%s: degenerate trend base", label))
	}

	pct := (first - last) / first * 100
	dir := direction(first, last)
	return contracts.TrendResult{
		TrendPct:  &pct,
		Direction: dir,
		Strength:  strength(values, dir),
	}
}

func noTrend(warning string) contracts.TrendResult {
	return contracts.TrendResult{Warning: &warning}
}

// direction describes how the raw value moved (a rising BSR is "up")
func direction(first, last float64) contracts.TrendDirection {
	switch {
	case last > first:
		return contracts.TrendUp
	case last < first:
		return contracts.TrendDown
	default:
		return contracts.TrendFlat
	}
}

// strength is the share of consecutive steps moving in dir (0 ~ 1)
func strength(values []float64, dir contracts.TrendDirection) float64 {
	steps := len(values) - 1
	if steps <= 0 {
		return 0
	}

	matched := 0
	for i := 1; i < len(values); i++ {
		if direction(values[i-1], values[i]) == dir {
			matched++
		}
	}

	return float64(matched) / float64(steps)
}
