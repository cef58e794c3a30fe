package market

import (
	"fmt"
	"time"

	"github.com/wonny/nichegate/internal/contracts"
)

const (
	// daysPerMonth is the mean Gregorian month length
	daysPerMonth = 30.4375

	neutralMaturity = 50.0
	maturityFactor  = 0.05

	uptrendPenalty         = -15.0
	uptrendStrengthMinimum = 0.5
)

// revenueModifier: bands checked high-to-low, first match wins
func revenueModifier(avgRevenue float64) Modifier {
	m := Modifier{Name: ModifierRevenueTier}
	switch {
	case avgRevenue >= 12000:
		m.Delta = 15
	case avgRevenue >= 8000:
		m.Delta = 10
	case avgRevenue >= 5000:
		m.Delta = 5
	case avgRevenue < 3000:
		m.Delta = -10
	case avgRevenue < 4000:
		m.Delta = -5
	}
	m.Reason = fmt.Sprintf("average revenue %.2f", avgRevenue)
	return m
}

// countModifier: 31..35 competitors land in the -5 band below the hard gate
func countModifier(count int) Modifier {
	m := Modifier{Name: ModifierCompetitorCount}
	switch {
	case count <= 10:
		m.Delta = 15
	case count <= 15:
		m.Delta = 8
	case count <= 20:
		m.Delta = 0
	default:
		m.Delta = -5
	}
	m.Reason = fmt.Sprintf("%d competitors", count)
	return m
}

// computeMaturity buckets listing ages in months.
// Competitors without a date, or with a future date, are left out.
func computeMaturity(competitors []contracts.CompetitorRecord, now time.Time) Maturity {
	var m Maturity
	for _, c := range competitors {
		if c.DateFirstAvailable == nil || c.DateFirstAvailable.IsZero() || c.DateFirstAvailable.After(now) {
			continue
		}

		months := now.Sub(*c.DateFirstAvailable).Hours() / 24 / daysPerMonth
		switch {
		case months > 18:
			m.Mature++
		case months >= 12:
			m.Established++
		case months > 6:
			m.Growing++
		default:
			m.New++
		}
	}

	known := m.Known()
	if known == 0 {
		m.Score = neutralMaturity
		return m
	}

	m.Score = (float64(m.Mature)*100 + float64(m.Established)*70 + float64(m.Growing)*40 + float64(m.New)*10) / float64(known)
	return m
}

func maturityModifier(m Maturity) Modifier {
	return Modifier{
		Name:   ModifierMaturity,
		Delta:  (m.Score - neutralMaturity) * maturityFactor,
		Reason: fmt.Sprintf("maturity %.2f over %d dated competitors", m.Score, m.Known()),
	}
}

// concentrationModifier penalizes a dominant listing
func concentrationModifier(competitors []contracts.CompetitorRecord) Modifier {
	var maxShare float64
	for _, c := range competitors {
		if c.MarketSharePct != nil && *c.MarketSharePct > maxShare {
			maxShare = *c.MarketSharePct
		}
	}

	m := Modifier{Name: ModifierConcentration}
	switch {
	case maxShare > 60:
		m.Delta = -15
	case maxShare > 40:
		m.Delta = -5
	}
	m.Reason = fmt.Sprintf("max market share %.2f%%", maxShare)
	return m
}

// uptrendModifier applies when more than half of the competitors with a
// usable BSR trend show a strong rising rank (sales slowing)
func uptrendModifier(competitors []contracts.CompetitorRecord, analyses contracts.HistoricalAnalyses) Modifier {
	examined, rising := 0, 0
	for _, c := range competitors {
		a, ok := analyses[c.ASIN]
		if !ok || !a.BsrTrend.Available() {
			continue
		}
		examined++
		if a.BsrTrend.Direction == contracts.TrendUp && a.BsrTrend.Strength > uptrendStrengthMinimum {
			rising++
		}
	}

	m := Modifier{
		Name:   ModifierBSRUptrend,
		Reason: fmt.Sprintf("%d of %d trends rising", rising, examined),
	}
	if examined > 0 && rising*2 > examined {
		m.Delta = uptrendPenalty
	}
	return m
}
