package history

import (
	"time"

	"github.com/wonny/nichegate/internal/contracts"
	"github.com/wonny/nichegate/pkg/logger"
)

// Analyzer builds a HistoricalAnalysis for one competitor
// ⭐ SSOT: the pairing of stability/trend variants per metric lives here
type Analyzer struct {
	logger *logger.Logger
	now    func() time.Time
}

// AnalyzerOption configures an Analyzer
type AnalyzerOption func(*Analyzer)

// WithClock overrides the clock used for GeneratedAt
func WithClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		a.now = now
	}
}

// NewAnalyzer creates a new analyzer. A nil logger discards output.
func NewAnalyzer(log *logger.Logger, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		logger: logger.OrNop(log),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze computes
//   - BSR:      BsrStability (12 clean points)
//   - Price:    PriceStability (2 clean points)
//   - BsrTrend: MonthlyBsrTrend (12 clean points)
func (a *Analyzer) Analyze(asin string, price, bsr contracts.HistoricalSeries) contracts.HistoricalAnalysis {
	analysis := contracts.HistoricalAnalysis{
		ASIN:        asin,
		BSR:         BsrStability(bsr),
		Price:       PriceStability(price),
		BsrTrend:    MonthlyBsrTrend(bsr),
		GeneratedAt: a.now().UTC(),
	}

	fields := map[string]interface{}{
		"asin":         asin,
		"price_points": len(price.Points),
		"bsr_points":   len(bsr.Points),
	}
	if analysis.BSR.Available() {
		fields["bsr_stability"] = *analysis.BSR.Score
	}
	if analysis.Price.Available() {
		fields["price_stability"] = *analysis.Price.Score
	}
	if warnings := analysis.Warnings(); len(warnings) > 0 {
		fields["warnings"] = warnings
	}
	a.logger.WithFields(fields).Debug("Analyzed competitor history")

	return analysis
}
