package contracts

import "time"

// MarketStatus is the market-level verdict
type MarketStatus string

const (
	StatusPass  MarketStatus = "PASS"
	StatusRisky MarketStatus = "RISKY"
	StatusFail  MarketStatus = "FAIL"
)

// MarketVerdict is the engine's final answer for a niche
type MarketVerdict struct {
	Score  float64      `json:"score"` // 0 ~ 100
	Status MarketStatus `json:"status"`
}

// IsPass reports whether the market cleared every gate and band
func (v MarketVerdict) IsPass() bool {
	return v.Status == StatusPass
}

// StrengthLabel is a coarse per-competitor classification.
// It is a separate scale from MarketStatus.
type StrengthLabel string

const (
	StrengthStrong StrengthLabel = "STRONG"
	StrengthDecent StrengthLabel = "DECENT"
	StrengthWeak   StrengthLabel = "WEAK"
)

// CompetitorStrength wraps a label for JSON responses
type CompetitorStrength struct {
	Label StrengthLabel `json:"label"`
}

// VerdictRecord is a stored verdict. The engine never writes these itself;
// the pipeline owns persistence.
type VerdictRecord struct {
	RunID       string       `json:"run_id"`
	MarketID    string       `json:"market_id"`
	Score       float64      `json:"score"`
	Status      MarketStatus `json:"status"`
	ProfileHash string       `json:"profile_hash"`
	CreatedAt   time.Time    `json:"created_at"`
}
