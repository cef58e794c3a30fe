package market

import (
	"time"

	"github.com/wonny/nichegate/internal/competitor"
	"github.com/wonny/nichegate/internal/contracts"
)

// Gate names reported in AutoFail
const (
	GateCompetitorOverload = "competitor_overload"
	GateBSRStability       = "bsr_stability"
	GatePriceStability     = "price_stability"
)

// Modifier names, in application order
const (
	ModifierRevenueTier     = "revenue_tier"
	ModifierCompetitorCount = "competitor_count"
	ModifierMaturity        = "maturity"
	ModifierConcentration   = "concentration"
	ModifierBSRUptrend      = "bsr_uptrend"
)

// Evaluation is a market verdict together with everything that produced it
type Evaluation struct {
	Verdict             contracts.MarketVerdict `json:"verdict"`
	CompetitorCount     int                     `json:"competitor_count"`
	Competitors         []CompetitorResult      `json:"competitors"`
	AvgCompetitorScore  float64                 `json:"avg_competitor_score"`
	AvgRevenue          float64                 `json:"avg_revenue"`
	RevenuePerCompScore float64                 `json:"revenue_per_comp_score"`
	BaseScore           float64                 `json:"base_score"`
	AutoFail            *AutoFail               `json:"auto_fail,omitempty"`
	TopSellers          *TopSellerStability     `json:"top_sellers,omitempty"`
	Maturity            *Maturity               `json:"maturity,omitempty"`
	Modifiers           []Modifier              `json:"modifiers"`
	RawScore            float64                 `json:"raw_score"` // before the final clamp
	Warnings            []string                `json:"warnings,omitempty"`
	ProfileHash         string                  `json:"profile_hash"`
	EvaluatedAt         time.Time               `json:"evaluated_at"`
}

// CompetitorResult is one scored competitor
type CompetitorResult struct {
	ASIN      string                  `json:"asin"`
	Score     float64                 `json:"score"`
	Strength  contracts.StrengthLabel `json:"strength"`
	Breakdown competitor.Breakdown    `json:"breakdown"`
}

// AutoFail names the gate that forced FAIL
type AutoFail struct {
	Gate   string `json:"gate"`
	Reason string `json:"reason"`
}

// TopSellerStability holds the stability means over the top sellers
type TopSellerStability struct {
	ASINs         []string `json:"asins"`
	MeanBSR       float64  `json:"mean_bsr"`
	MeanPrice     float64  `json:"mean_price"`
	NeutralFilled int      `json:"neutral_filled"` // entries defaulted to the neutral value
}

// Maturity summarizes listing ages
type Maturity struct {
	Score       float64 `json:"score"` // 0 ~ 100, 50 when no dates are known
	Mature      int     `json:"mature"`
	Established int     `json:"established"`
	Growing     int     `json:"growing"`
	New         int     `json:"new"`
}

// Known returns the number of competitors with a usable date
func (m Maturity) Known() int {
	return m.Mature + m.Established + m.Growing + m.New
}

// Modifier is one additive adjustment applied after the gates
type Modifier struct {
	Name   string  `json:"name"`
	Delta  float64 `json:"delta"`
	Reason string  `json:"reason"`
}

// TotalModifiers sums every applied modifier
func (e *Evaluation) TotalModifiers() float64 {
	var total float64
	for _, m := range e.Modifiers {
		total += m.Delta
	}
	return total
}
