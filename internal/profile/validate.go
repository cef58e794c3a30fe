package profile

import (
	"fmt"
	"math"
)

// ValidationError is a fatal profile problem
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning flags a legal but unusual setting
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
func Validate(p *Profile) error {
	// === Meta ===
	if p.Meta.ProfileID == "" {
		return ValidationError{"meta.profile_id", "required"}
	}

	// === Competitor weights ===
	if p.CompetitorWeights.Version == "" {
		return ValidationError{"competitor_weights.version", "required"}
	}
	cw := p.CompetitorWeights
	weights := []struct {
		field string
		value float64
	}{
		{"monthly_sales", cw.MonthlySales},
		{"reviews", cw.Reviews},
		{"market_share", cw.MarketShare},
		{"monthly_revenue", cw.MonthlyRevenue},
		{"bsr", cw.BSR},
		{"rating", cw.Rating},
		{"review_share", cw.ReviewShare},
		{"price", cw.Price},
		{"fulfillment", cw.Fulfillment},
	}
	for _, w := range weights {
		if w.value <= 0 || math.IsNaN(w.value) || math.IsInf(w.value, 0) {
			return ValidationError{"competitor_weights." + w.field, "must be a finite number > 0"}
		}
	}

	// === Market weights ===
	mw := p.MarketWeights
	if mw.Version == "" {
		return ValidationError{"market_weights.version", "required"}
	}
	if mw.CompetitorAverage < 0 || mw.RevenuePerCompetitor < 0 {
		return ValidationError{"market_weights", "weights must be >= 0"}
	}
	if sum := mw.CompetitorAverage + mw.RevenuePerCompetitor; math.Abs(sum-1.0) > 1e-6 {
		return ValidationError{"market_weights", fmt.Sprintf("competitor_average + revenue_per_competitor must equal 1.0, got %.4f", sum)}
	}
	if mw.RevenuePerCompetitorDivisor <= 0 {
		return ValidationError{"market_weights.revenue_per_competitor_divisor", "must be > 0"}
	}

	// === Gates ===
	g := p.Gates
	if g.MaxCompetitors < 1 {
		return ValidationError{"gates.max_competitors", "must be >= 1"}
	}
	if g.TopSellers < 1 {
		return ValidationError{"gates.top_sellers", "must be >= 1"}
	}
	if err := validateUnitRange(g.MinBSRStability, "gates.min_bsr_stability"); err != nil {
		return err
	}
	if err := validateUnitRange(g.MinPriceStability, "gates.min_price_stability"); err != nil {
		return err
	}
	if err := validateUnitRange(g.NeutralStability, "gates.neutral_stability"); err != nil {
		return err
	}

	// === Bands ===
	b := p.Bands
	if !(0 < b.Risky && b.Risky < b.Pass && b.Pass <= 100) {
		return ValidationError{"bands", "must satisfy 0 < risky < pass <= 100"}
	}
	if g.FailScoreCap < 0 || g.FailScoreCap >= b.Risky {
		return ValidationError{"gates.fail_score_cap", fmt.Sprintf("must be in [0, risky=%.0f)", b.Risky)}
	}
	if !(0 < b.DecentCompetitor && b.DecentCompetitor < b.StrongCompetitor && b.StrongCompetitor <= 100) {
		return ValidationError{"bands", "must satisfy 0 < decent_competitor < strong_competitor <= 100"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(p *Profile) []Warning {
	var warnings []Warning
	def := Default()

	// Missing history would trip the gate on its own
	if p.Gates.NeutralStability < p.Gates.MinBSRStability || p.Gates.NeutralStability < p.Gates.MinPriceStability {
		warnings = append(warnings, Warning{
			Code:    "NEUTRAL_BELOW_GATE",
			Message: "neutral_stability is below a stability gate: markets without history will auto-fail",
		})
	}

	if p.Gates.MaxCompetitors > 50 {
		warnings = append(warnings, Warning{
			Code:    "LOOSE_COMPETITOR_GATE",
			Message: "max_competitors > 50: saturated niches will not auto-fail",
		})
	}

	if p.CompetitorWeights.Version == def.CompetitorWeights.Version && p.CompetitorWeights != def.CompetitorWeights {
		warnings = append(warnings, Warning{
			Code:    "UNVERSIONED_WEIGHT_CHANGE",
			Message: fmt.Sprintf("competitor weights differ from %s but keep its version tag", def.CompetitorWeights.Version),
		})
	}

	if p.MarketWeights.Version == def.MarketWeights.Version && p.MarketWeights != def.MarketWeights {
		warnings = append(warnings, Warning{
			Code:    "UNVERSIONED_WEIGHT_CHANGE",
			Message: fmt.Sprintf("market weights differ from %s but keep its version tag", def.MarketWeights.Version),
		})
	}

	return warnings
}

// validateUnitRange checks that v is in [0, 1]
func validateUnitRange(v float64, field string) error {
	if v < 0 || v > 1 || math.IsNaN(v) {
		return ValidationError{field, "must be in range [0, 1]"}
	}
	return nil
}
