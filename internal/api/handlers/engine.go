package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/wonny/nichegate/internal/competitor"
	"github.com/wonny/nichegate/internal/contracts"
	"github.com/wonny/nichegate/internal/history"
	"github.com/wonny/nichegate/internal/market"
	"github.com/wonny/nichegate/pkg/logger"
)

// EngineHandler exposes the stateless scoring functions
// ⭐ SSOT: request → engine mapping for ad-hoc scoring lives here only
type EngineHandler struct {
	aggregator *market.Aggregator
	analyzer   *history.Analyzer
	logger     *logger.Logger
}

// NewEngineHandler creates a new engine handler
func NewEngineHandler(aggregator *market.Aggregator, analyzer *history.Analyzer, log *logger.Logger) *EngineHandler {
	return &EngineHandler{
		aggregator: aggregator,
		analyzer:   analyzer,
		logger:     logger.OrNop(log),
	}
}

// CompetitorScoreResponse is the result of scoring one competitor
type CompetitorScoreResponse struct {
	ASIN      string                       `json:"asin"`
	Score     float64                      `json:"score"`
	Strength  contracts.CompetitorStrength `json:"strength"`
	Breakdown competitor.Breakdown         `json:"breakdown"`
	Issues    []string                     `json:"input_issues,omitempty"`
}

// ScoreCompetitor scores a single loosely keyed competitor row
// POST /api/competitors/score
func (h *EngineHandler) ScoreCompetitor(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := decodeJSON(r, &raw); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, issues := contracts.NormalizeRaw(raw)
	scorer := h.aggregator.Scorer()
	breakdown := scorer.Breakdown(rec)

	respondJSON(w, http.StatusOK, CompetitorScoreResponse{
		ASIN:      rec.ASIN,
		Score:     breakdown.Score,
		Strength:  scorer.Strength(breakdown.Score),
		Breakdown: breakdown,
		Issues:    issues,
	})
}

// AnalyzeRequest carries raw series for one competitor
type AnalyzeRequest struct {
	ASIN  string                  `json:"asin"`
	Price []contracts.SeriesPoint `json:"price"`
	BSR   []contracts.SeriesPoint `json:"bsr"`
}

// AnalyzeHistory computes stability and trend figures
// POST /api/history/analyze
func (h *EngineHandler) AnalyzeHistory(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	analysis := h.analyzer.Analyze(req.ASIN,
		contracts.HistoricalSeries{ASIN: req.ASIN, Metric: contracts.MetricPrice, Points: req.Price},
		contracts.HistoricalSeries{ASIN: req.ASIN, Metric: contracts.MetricBSR, Points: req.BSR},
	)

	respondJSON(w, http.StatusOK, analysis)
}

// EvaluateRequest is a whole market submitted inline
type EvaluateRequest struct {
	Competitors []map[string]any             `json:"competitors"`
	Analyses    contracts.HistoricalAnalyses `json:"analyses"`
}

// EvaluateResponse is the evaluation plus normalization issues keyed by row
type EvaluateResponse struct {
	*market.Evaluation
	Issues map[string][]string `json:"input_issues,omitempty"`
}

// EvaluateMarket scores an inline market
// POST /api/markets/evaluate
func (h *EngineHandler) EvaluateMarket(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records := make([]contracts.CompetitorRecord, 0, len(req.Competitors))
	issues := make(map[string][]string)
	for i, raw := range req.Competitors {
		rec, rowIssues := contracts.NormalizeRaw(raw)
		if len(rowIssues) > 0 {
			key := rec.ASIN
			if key == "" {
				key = fmt.Sprintf("row %d", i)
			}
			issues[key] = rowIssues
		}
		records = append(records, rec)
	}

	eval, err := h.aggregator.Evaluate(records, req.Analyses)
	if err != nil {
		if errors.Is(err, market.ErrDuplicateASIN) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.WithError(err).Error("Failed to evaluate market")
		respondError(w, http.StatusInternalServerError, "Failed to evaluate market")
		return
	}

	resp := EvaluateResponse{Evaluation: eval}
	if len(issues) > 0 {
		resp.Issues = issues
	}
	respondJSON(w, http.StatusOK, resp)
}
