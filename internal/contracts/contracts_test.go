package contracts

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRaw_KeyAliasesAndCasing(t *testing.T) {
	raw := map[string]any{
		"ASIN":                 "B0TEST0001",
		"Price":                "$27.99",
		"Best Sellers Rank":    "8,200",
		"monthly_sales":        180,
		"Revenue":              json.Number("5038.2"),
		"rating":               4.5,
		"Review Count":         "500",
		"Market Share":         "18.2%",
		"Fulfillment Method":   "fba",
		"date_first_available": "2022-03-15",
	}

	rec, issues := NormalizeRaw(raw)
	require.Empty(t, issues)

	assert.Equal(t, "B0TEST0001", rec.ASIN)
	require.NotNil(t, rec.Price)
	assert.InDelta(t, 27.99, *rec.Price, 1e-9)
	require.NotNil(t, rec.BSR)
	assert.Equal(t, 8200, *rec.BSR)
	assert.InDelta(t, 180, *rec.MonthlySales, 1e-9)
	assert.InDelta(t, 5038.2, *rec.MonthlyRevenue, 1e-9)
	assert.InDelta(t, 4.5, *rec.Rating, 1e-9)
	assert.Equal(t, 500, *rec.Reviews)
	assert.InDelta(t, 18.2, *rec.MarketSharePct, 1e-9)
	assert.Nil(t, rec.ReviewSharePct)
	assert.Equal(t, FulfillmentFBA, rec.FulfillmentMethod)
	require.NotNil(t, rec.DateFirstAvailable)
	assert.Equal(t, time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC), *rec.DateFirstAvailable)
}

func TestNormalizeRaw_MissingAndInvalid(t *testing.T) {
	raw := map[string]any{
		"asin":        "B0TEST0002",
		"price":       "",
		"bsr":         "n/a",
		"fulfillment": "Drop Ship",
		"launch date": "someday",
	}

	rec, issues := NormalizeRaw(raw)

	assert.Nil(t, rec.Price, "blank value is treated as missing")
	assert.Nil(t, rec.BSR, "unparseable value is dropped")
	assert.Nil(t, rec.DateFirstAvailable)
	assert.Equal(t, FulfillmentUnknown, rec.FulfillmentMethod)
	assert.Len(t, issues, 2)
}

func TestNormalizeRaw_RejectsNonFinite(t *testing.T) {
	raw := map[string]any{
		"asin":            "B0TEST0005",
		"monthly_sales":   "Inf",
		"monthly_revenue": "-inf",
		"rating":          json.Number("NaN"),
		"price":           math.Inf(1),
	}

	rec, issues := NormalizeRaw(raw)

	assert.Nil(t, rec.MonthlySales)
	assert.Nil(t, rec.MonthlyRevenue)
	assert.Nil(t, rec.Rating)
	assert.Nil(t, rec.Price)
	assert.Len(t, issues, 4)
}

func TestParseFulfillmentMethod(t *testing.T) {
	tests := []struct {
		in   string
		want FulfillmentMethod
	}{
		{"FBA", FulfillmentFBA},
		{" fbm ", FulfillmentFBM},
		{"Amazon", FulfillmentAmazon},
		{"AMZ", FulfillmentAmazon},
		{"", FulfillmentUnknown},
		{"merchant", FulfillmentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFulfillmentMethod(tt.in))
		})
	}
}

func TestCompetitorBuilder(t *testing.T) {
	launched := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := NewCompetitorBuilder(" B0TEST0003 ").
		Price(30).
		BSR(1500).
		MonthlySales(120).
		Fulfillment(FulfillmentFBM).
		FirstAvailable(launched).
		Build()

	assert.Equal(t, "B0TEST0003", rec.ASIN)
	assert.Equal(t, 1500, *rec.BSR)
	assert.Equal(t, 120.0, rec.SalesOrZero())
	assert.Equal(t, 0.0, rec.RevenueOrZero())
	assert.Equal(t, launched, *rec.DateFirstAvailable)
}

func TestHistoricalSeries_Values(t *testing.T) {
	s := HistoricalSeries{
		ASIN:   "B0TEST0004",
		Metric: MetricBSR,
		Points: []SeriesPoint{
			{Value: Ptr(100.0)},
			{Value: nil},
			{Value: Ptr(120.0)},
		},
	}

	assert.Equal(t, []float64{100, 120}, s.Values())

	raw := s.RawValues()
	require.Len(t, raw, 3)
	assert.Nil(t, raw[1])
}

func TestStabilityResult_ScoreOr(t *testing.T) {
	assert.Equal(t, 0.5, StabilityResult{Warning: Ptr("short")}.ScoreOr(0.5))
	assert.Equal(t, 0.8, StabilityResult{Score: Ptr(0.8)}.ScoreOr(0.5))
	assert.False(t, StabilityResult{}.Available())
}

func TestHistoricalAnalysis_Warnings(t *testing.T) {
	a := HistoricalAnalysis{
		BSR:      StabilityResult{Warning: Ptr("bsr: insufficient history (3 points, need 12)")},
		Price:    StabilityResult{Score: Ptr(0.9)},
		BsrTrend: TrendResult{Warning: Ptr("bsr trend: insufficient history (3 points, need 12)")},
	}

	assert.Len(t, a.Warnings(), 2)
}
