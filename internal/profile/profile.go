package profile

import "time"

// Profile holds every tunable number of the viability engine
// ⭐ SSOT: weight tables, auto-fail gates and status bands
//
// CompetitorWeights and MarketWeights are versioned separately on purpose:
// the first feeds per-competitor scoring, the second the market blend.
type Profile struct {
	Meta              Meta              `yaml:"meta" json:"meta"`
	CompetitorWeights CompetitorWeights `yaml:"competitor_weights" json:"competitor_weights"`
	MarketWeights     MarketWeights     `yaml:"market_weights" json:"market_weights"`
	Gates             Gates             `yaml:"gates" json:"gates"`
	Bands             Bands             `yaml:"bands" json:"bands"`
}

// Meta identifies the profile
type Meta struct {
	ProfileID string `yaml:"profile_id" json:"profile_id"`
	Version   string `yaml:"version" json:"version"`
}

// CompetitorWeights is the importance table for per-competitor scoring
type CompetitorWeights struct {
	Version        string  `yaml:"version" json:"version"`
	MonthlySales   float64 `yaml:"monthly_sales" json:"monthly_sales"`
	Reviews        float64 `yaml:"reviews" json:"reviews"`
	MarketShare    float64 `yaml:"market_share" json:"market_share"`
	MonthlyRevenue float64 `yaml:"monthly_revenue" json:"monthly_revenue"`
	BSR            float64 `yaml:"bsr" json:"bsr"`
	Rating         float64 `yaml:"rating" json:"rating"`
	ReviewShare    float64 `yaml:"review_share" json:"review_share"`
	Price          float64 `yaml:"price" json:"price"`
	Fulfillment    float64 `yaml:"fulfillment" json:"fulfillment"`
}

// MarketWeights blends the competitor average with the revenue-per-competitor signal
type MarketWeights struct {
	Version                     string  `yaml:"version" json:"version"`
	CompetitorAverage           float64 `yaml:"competitor_average" json:"competitor_average"`
	RevenuePerCompetitor        float64 `yaml:"revenue_per_competitor" json:"revenue_per_competitor"`
	RevenuePerCompetitorDivisor float64 `yaml:"revenue_per_competitor_divisor" json:"revenue_per_competitor_divisor"`
}

// Gates are the hard auto-fail checks
type Gates struct {
	MaxCompetitors    int     `yaml:"max_competitors" json:"max_competitors"`
	TopSellers        int     `yaml:"top_sellers" json:"top_sellers"`
	MinBSRStability   float64 `yaml:"min_bsr_stability" json:"min_bsr_stability"`
	MinPriceStability float64 `yaml:"min_price_stability" json:"min_price_stability"`
	NeutralStability  float64 `yaml:"neutral_stability" json:"neutral_stability"`
	FailScoreCap      float64 `yaml:"fail_score_cap" json:"fail_score_cap"`
}

// Bands classify final scores
type Bands struct {
	Pass             float64 `yaml:"pass" json:"pass"`
	Risky            float64 `yaml:"risky" json:"risky"`
	StrongCompetitor float64 `yaml:"strong_competitor" json:"strong_competitor"`
	DecentCompetitor float64 `yaml:"decent_competitor" json:"decent_competitor"`
}

// Default returns the reference profile
func Default() Profile {
	return Profile{
		Meta: Meta{
			ProfileID: "niche_viability",
			Version:   "1.0.0",
		},
		CompetitorWeights: CompetitorWeights{
			Version:        "cw-1",
			MonthlySales:   2.0,
			Reviews:        1.8,
			MarketShare:    1.5,
			MonthlyRevenue: 1.5,
			BSR:            1.3,
			Rating:         1.3,
			ReviewShare:    1.3,
			Price:          1.0,
			Fulfillment:    0.8,
		},
		MarketWeights: MarketWeights{
			Version:                     "mw-1",
			CompetitorAverage:           0.85,
			RevenuePerCompetitor:        0.15,
			RevenuePerCompetitorDivisor: 1500,
		},
		Gates: Gates{
			MaxCompetitors:    35,
			TopSellers:        5,
			MinBSRStability:   0.30,
			MinPriceStability: 0.35,
			NeutralStability:  0.5,
			FailScoreCap:      39,
		},
		Bands: Bands{
			Pass:             70,
			Risky:            40,
			StrongCompetitor: 60,
			DecentCompetitor: 45,
		},
	}
}

// DecisionSnapshot records which profile produced a verdict (reproducibility)
type DecisionSnapshot struct {
	ProfileHash string    `json:"profile_hash"`
	ProfileYAML string    `json:"profile_yaml,omitempty"`
	ProfileID   string    `json:"profile_id"`
	Version     string    `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
}
