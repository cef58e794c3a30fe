package contracts

import (
	"math"
	"time"
)

// FulfillmentMethod describes who ships a listing
type FulfillmentMethod string

const (
	FulfillmentFBA     FulfillmentMethod = "FBA"
	FulfillmentFBM     FulfillmentMethod = "FBM"
	FulfillmentAmazon  FulfillmentMethod = "Amazon"
	FulfillmentUnknown FulfillmentMethod = ""
)

// CompetitorRecord is one marketplace listing competing in a niche
// ⭐ SSOT: normalized competitor shape consumed by the scoring engine
//
// Every metric is optional. A nil pointer means "not observed", which is a
// valid state and never an error.
type CompetitorRecord struct {
	ASIN string `json:"asin"`

	Price          *float64 `json:"price,omitempty"`
	BSR            *int     `json:"bsr,omitempty"` // lower is better
	MonthlySales   *float64 `json:"monthly_sales,omitempty"`
	MonthlyRevenue *float64 `json:"monthly_revenue,omitempty"`
	Rating         *float64 `json:"rating,omitempty"` // 0.0 ~ 5.0
	Reviews        *int     `json:"reviews,omitempty"`

	// Optional share metrics (0 ~ 100)
	MarketSharePct *float64 `json:"market_share_pct,omitempty"`
	ReviewSharePct *float64 `json:"review_share_pct,omitempty"`

	FulfillmentMethod  FulfillmentMethod `json:"fulfillment_method,omitempty"`
	DateFirstAvailable *time.Time        `json:"date_first_available,omitempty"`
}

// SalesOrZero returns monthly sales with missing or non-finite treated as 0
func (c CompetitorRecord) SalesOrZero() float64 {
	return finiteOrZero(c.MonthlySales)
}

// RevenueOrZero returns monthly revenue with missing or non-finite treated as 0
func (c CompetitorRecord) RevenueOrZero() float64 {
	return finiteOrZero(c.MonthlyRevenue)
}

func finiteOrZero(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return *v
}

// Ptr returns a pointer to v. Handy for building records in code and tests.
func Ptr[T any](v T) *T {
	return &v
}
