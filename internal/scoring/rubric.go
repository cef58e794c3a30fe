// Package scoring maps single competitor metrics onto fixed point rubrics.
//
// Every function is pure. Out-of-range, NaN or infinite input lands in the
// worst bucket of its rubric; substituting defaults for missing values is
// the caller's job.
package scoring

import (
	"math"

	"github.com/wonny/nichegate/internal/contracts"
)

const (
	// MaxPoints is the top of every rubric
	MaxPoints = 10

	priceBandLow  = 20.0
	priceBandHigh = 75.0
)

// band maps an inclusive bound to points
type band struct {
	bound  float64
	points int
}

// bsrBands: lower rank is better, checked in ascending order with `<=`
var bsrBands = []band{
	{5000, 9},
	{10000, 8},
	{20000, 7},
	{30000, 6},
	{50000, 5},
	{75000, 4},
	{100000, 3},
	{150000, 2},
}

// salesBands: checked in ascending order with `<=`
var salesBands = []band{
	{30, 1},
	{60, 2},
	{120, 3},
	{180, 4},
	{240, 5},
	{300, 6},
	{400, 7},
	{500, 8},
	{600, 9},
}

// revenueBands: checked high-to-low with `>=`
var revenueBands = []band{
	{10000, 10},
	{9000, 9},
	{7500, 8},
	{6000, 7},
	{5000, 6},
	{4000, 5},
	{3000, 4},
	{2500, 3},
	{1000, 2},
}

// ratingBands: checked high-to-low with `>=`. 4.2 maps to 5, not 6.
var ratingBands = []band{
	{4.8, 10},
	{4.6, 9},
	{4.5, 8},
	{4.3, 7},
	{4.2, 5},
	{4.0, 4},
	{3.8, 3},
	{3.6, 2},
}

// reviewBands: checked in ascending order with `<`. There is no 9 band.
var reviewBands = []band{
	{10, 2},
	{50, 3},
	{100, 4},
	{200, 5},
	{300, 6},
	{400, 7},
	{500, 8},
}

// velocityBands: days per review, checked in ascending order with `<=`
var velocityBands = []band{
	{10, 10},
	{15, 7},
	{20, 5},
	{30, 2},
}

// Price returns 10 inside the [20, 75] price band, 1 outside it
func Price(price float64) int {
	if math.IsNaN(price) || price < priceBandLow || price > priceBandHigh {
		return 1
	}
	return MaxPoints
}

// BSR scores a best-seller rank (lower is better)
func BSR(bsr int) int {
	if bsr <= 0 {
		return 1
	}
	if bsr < 1000 {
		return MaxPoints
	}
	return ascending(float64(bsr), bsrBands, 1)
}

// MonthlySales scores monthly unit sales
func MonthlySales(units float64) int {
	if !finite(units) || units < 0 {
		return 1
	}
	return ascending(units, salesBands, MaxPoints)
}

// MonthlyRevenue scores monthly revenue
func MonthlyRevenue(revenue float64) int {
	if !finite(revenue) {
		return 1
	}
	return descending(revenue, revenueBands, 1)
}

// Rating scores an average star rating (0 ~ 5)
func Rating(rating float64) int {
	if math.IsNaN(rating) || rating < 0 || rating > 5 {
		return 1
	}
	return descending(rating, ratingBands, 1)
}

// Reviews scores a total review count
func Reviews(count int) int {
	if count <= 0 {
		return 1
	}
	for _, b := range reviewBands {
		if float64(count) < b.bound {
			return b.points
		}
	}
	return MaxPoints
}

// ReviewVelocity scores how quickly a listing accumulates reviews.
// It replaces Reviews whenever the listing age is known.
func ReviewVelocity(daysOnMarket int, reviews int) int {
	return ascending(DaysPerReview(daysOnMarket, reviews), velocityBands, 1)
}

// DaysPerReview returns max(days, 1) / reviews, or +Inf without reviews
func DaysPerReview(daysOnMarket int, reviews int) float64 {
	if reviews <= 0 {
		return math.Inf(1)
	}
	days := daysOnMarket
	if days < 1 {
		days = 1
	}
	return float64(days) / float64(reviews)
}

// Fulfillment scores the fulfillment method. FBM is only rewarded
// when the listing already earns at least 2000 a month.
func Fulfillment(method contracts.FulfillmentMethod, monthlyRevenue float64) int {
	switch method {
	case contracts.FulfillmentAmazon:
		return 10
	case contracts.FulfillmentFBA:
		return 8
	case contracts.FulfillmentFBM:
		if finite(monthlyRevenue) && monthlyRevenue >= 2000 {
			return 6
		}
		return 2
	default:
		return 0
	}
}

// SharePct scores an optional 0 ~ 100 share metric as ceil(v/3) clamped to 1 ~ 10
func SharePct(pct float64) int {
	if !finite(pct) {
		return 1
	}
	points := math.Ceil(pct / 3)
	return int(math.Min(MaxPoints, math.Max(1, points)))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ascending returns the points of the first band whose bound is >= v
func ascending(v float64, bands []band, fallback int) int {
	for _, b := range bands {
		if v <= b.bound {
			return b.points
		}
	}
	return fallback
}

// descending returns the points of the first band whose bound is <= v
func descending(v float64, bands []band, fallback int) int {
	for _, b := range bands {
		if v >= b.bound {
			return b.points
		}
	}
	return fallback
}
