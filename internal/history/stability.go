// Package history turns price and rank time series into stability and
// trend figures. Nothing here returns an error: short or degenerate
// series produce a nil value plus a warning.
package history

import (
	"fmt"
	"math"

	"github.com/wonny/nichegate/internal/contracts"
)

const (
	// Window is the trailing window (one point per month over a year)
	Window = 12

	// StrictMinPoints is the minimum for BSR stability and the generic variant
	StrictMinPoints = 12

	// PriceMinPoints is the looser minimum used for price stability
	PriceMinPoints = 2
)

// ComputeStability scores a plain series with the strict 12-point minimum
func ComputeStability(series []float64) contracts.StabilityResult {
	return stability("series", clean(series), StrictMinPoints)
}

// BsrStability scores a rank series. Needs 12 clean points.
func BsrStability(series contracts.HistoricalSeries) contracts.StabilityResult {
	return stability(string(contracts.MetricBSR), clean(series.Values()), StrictMinPoints)
}

// PriceStability scores a price series. Needs only 2 clean points.
// The minimum differs from BsrStability on purpose; callers gate on both.
func PriceStability(series contracts.HistoricalSeries) contracts.StabilityResult {
	return stability(string(contracts.MetricPrice), clean(series.Values()), PriceMinPoints)
}

// stability computes max(0, 1 - stddev/mean) over the trailing window
// using the population standard deviation
func stability(label string, values []float64, minPoints int) contracts.StabilityResult {
	if len(values) < minPoints {
		return unavailable(fmt.Sprintf("%s: insufficient history (%d points, need %d)", label, len(values), minPoints))
	}

	values = trailing(values, Window)
	mean, stddev := meanStd(values)
	if mean == 0 {
		return unavailable(fmt.Sprintf("%s: degenerate series", label))
	}

	score := clamp(1-stddev/mean, 0, 1)
	return contracts.StabilityResult{Score: &score}
}

func unavailable(warning string) contracts.StabilityResult {
	return contracts.StabilityResult{Warning: &warning}
}

// meanStd returns the mean and population standard deviation (divide by N)
func meanStd(values []float64) (float64, float64) {
	n := float64(len(values))

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}

	return mean, math.Sqrt(sq / n)
}

// clean drops NaN and infinite values
func clean(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func trailing[T any](values []T, n int) []T {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
