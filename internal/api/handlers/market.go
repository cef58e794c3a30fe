package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/nichegate/internal/contracts"
	"github.com/wonny/nichegate/internal/pipeline"
	"github.com/wonny/nichegate/internal/store"
	"github.com/wonny/nichegate/pkg/logger"
)

// MarketService is the part of pipeline.Service the handlers call
type MarketService interface {
	ScoreMarket(ctx context.Context, marketID string) (*pipeline.Result, error)
	RefreshHistory(ctx context.Context, marketID string) ([]contracts.HistoricalAnalysis, error)
	LatestVerdict(ctx context.Context, marketID string) (*contracts.VerdictRecord, error)
}

// MarketHandler serves stored markets
// ⭐ SSOT: market API handlers live in this struct only
type MarketHandler struct {
	service MarketService
	logger  *logger.Logger
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(service MarketService, log *logger.Logger) *MarketHandler {
	return &MarketHandler{
		service: service,
		logger:  logger.OrNop(log),
	}
}

// GetVerdict returns the latest stored verdict
// GET /api/markets/{marketID}/verdict
func (h *MarketHandler) GetVerdict(w http.ResponseWriter, r *http.Request) {
	marketID := mux.Vars(r)["marketID"]

	record, err := h.service.LatestVerdict(r.Context(), marketID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "no verdict for market")
			return
		}
		h.logger.WithError(err).WithField("market_id", marketID).Error("Failed to get verdict")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve verdict")
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// Score re-scores a stored market and records the verdict
// POST /api/markets/{marketID}/score
func (h *MarketHandler) Score(w http.ResponseWriter, r *http.Request) {
	marketID := mux.Vars(r)["marketID"]

	result, err := h.service.ScoreMarket(r.Context(), marketID)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoCompetitors) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.WithError(err).WithField("market_id", marketID).Error("Failed to score market")
		respondError(w, http.StatusInternalServerError, "Failed to score market")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// RefreshResponse summarizes a history refresh
type RefreshResponse struct {
	MarketID string                         `json:"market_id"`
	Analyses []contracts.HistoricalAnalysis `json:"analyses"`
}

// RefreshHistory recomputes a market's historical analyses
// POST /api/markets/{marketID}/history/refresh
func (h *MarketHandler) RefreshHistory(w http.ResponseWriter, r *http.Request) {
	marketID := mux.Vars(r)["marketID"]

	analyses, err := h.service.RefreshHistory(r.Context(), marketID)
	if err != nil {
		h.logger.WithError(err).WithField("market_id", marketID).Error("Failed to refresh history")
		respondError(w, http.StatusInternalServerError, "Failed to refresh history")
		return
	}

	respondJSON(w, http.StatusOK, RefreshResponse{MarketID: marketID, Analyses: analyses})
}
