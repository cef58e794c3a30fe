package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/nichegate/internal/contracts"
	"github.com/wonny/nichegate/internal/history"
	"github.com/wonny/nichegate/internal/market"
	"github.com/wonny/nichegate/internal/pipeline"
	"github.com/wonny/nichegate/internal/store"
)

var fixedNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func newEngineHandler(t *testing.T) *EngineHandler {
	t.Helper()
	clock := func() time.Time { return fixedNow }
	agg, err := market.NewAggregator(nil, nil, market.WithClock(clock))
	require.NoError(t, err)
	return NewEngineHandler(agg, history.NewAnalyzer(nil, history.WithClock(clock)), nil)
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestScoreCompetitor(t *testing.T) {
	h := newEngineHandler(t)
	body := `{
		"ASIN": "B0COMP0001",
		"Price": "$27.99",
		"BSR": 8200,
		"Monthly Sales": 180,
		"Revenue": 5038.2,
		"Rating": 4.5,
		"Review Count": "500",
		"Market Share": "18.2%",
		"Fulfillment Method": "FBA",
		"date_first_available": "2022-03-15"
	}`

	rec := httptest.NewRecorder()
	h.ScoreCompetitor(rec, post(body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp CompetitorScoreResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "B0COMP0001", resp.ASIN)
	assert.Equal(t, 73.84, resp.Score)
	assert.Equal(t, contracts.StrengthStrong, resp.Strength.Label)
	assert.True(t, resp.Breakdown.UsedVelocity)
	assert.Empty(t, resp.Issues)
}

func TestScoreCompetitor_ReportsIssues(t *testing.T) {
	h := newEngineHandler(t)

	rec := httptest.NewRecorder()
	h.ScoreCompetitor(rec, post(`{"asin": "B0BAD", "price": "cheap"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp CompetitorScoreResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Issues, 1)
}

func TestScoreCompetitor_BadJSON(t *testing.T) {
	h := newEngineHandler(t)

	rec := httptest.NewRecorder()
	h.ScoreCompetitor(rec, post(`{"asin":`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid JSON body")
}

func TestAnalyzeHistory(t *testing.T) {
	h := newEngineHandler(t)

	body := `{"asin": "B0HIST", "price": [
		{"timestamp": "2025-04-01T00:00:00Z", "value": 20},
		{"timestamp": "2025-05-01T00:00:00Z", "value": 20}
	], "bsr": [
		{"timestamp": "2025-05-01T00:00:00Z", "value": 1000}
	]}`

	rec := httptest.NewRecorder()
	h.AnalyzeHistory(rec, post(body))

	require.Equal(t, http.StatusOK, rec.Code)
	var got contracts.HistoricalAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	assert.Equal(t, "B0HIST", got.ASIN)
	require.NotNil(t, got.Price.Score)
	assert.InDelta(t, 1.0, *got.Price.Score, 1e-9)
	assert.Nil(t, got.BSR.Score)
	require.NotNil(t, got.BSR.Warning)
	assert.Contains(t, *got.BSR.Warning, "insufficient history")
	assert.True(t, fixedNow.Equal(got.GeneratedAt))
}

func TestEvaluateMarket(t *testing.T) {
	h := newEngineHandler(t)

	body := `{"competitors": [
		{"asin": "B0M1", "price": 40, "bsr": 500, "monthly_sales": 900, "monthly_revenue": 36000,
		 "rating": 4.9, "reviews": 2000, "fulfillment": "Amazon"},
		{"asin": "B0M2", "price": 40, "bsr": 500, "monthly_sales": 900, "monthly_revenue": 36000,
		 "rating": 4.9, "reviews": 2000, "fulfillment": "Amazon", "launch date": "soon"}
	]}`

	rec := httptest.NewRecorder()
	h.EvaluateMarket(rec, post(body))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Verdict         contracts.MarketVerdict `json:"verdict"`
		CompetitorCount int                     `json:"competitor_count"`
		Issues          map[string][]string     `json:"input_issues"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, contracts.StatusPass, resp.Verdict.Status)
	assert.Equal(t, 100.0, resp.Verdict.Score)
	assert.Contains(t, resp.Issues, "B0M2")
}

func TestEvaluateMarket_DuplicateASIN(t *testing.T) {
	h := newEngineHandler(t)

	rec := httptest.NewRecorder()
	h.EvaluateMarket(rec, post(`{"competitors": [{"asin": "B0DUP"}, {"asin": "B0DUP"}]}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeService struct {
	result   *pipeline.Result
	analyses []contracts.HistoricalAnalysis
	verdict  *contracts.VerdictRecord
	err      error
	calls    []string
}

func (f *fakeService) ScoreMarket(ctx context.Context, marketID string) (*pipeline.Result, error) {
	f.calls = append(f.calls, "score:"+marketID)
	return f.result, f.err
}

func (f *fakeService) RefreshHistory(ctx context.Context, marketID string) ([]contracts.HistoricalAnalysis, error) {
	f.calls = append(f.calls, "refresh:"+marketID)
	return f.analyses, f.err
}

func (f *fakeService) LatestVerdict(ctx context.Context, marketID string) (*contracts.VerdictRecord, error) {
	f.calls = append(f.calls, "verdict:"+marketID)
	return f.verdict, f.err
}

func withMarket(r *http.Request, marketID string) *http.Request {
	return mux.SetURLVars(r, map[string]string{"marketID": marketID})
}

func TestMarketHandler_GetVerdict(t *testing.T) {
	svc := &fakeService{verdict: &contracts.VerdictRecord{
		RunID:    "run-1",
		MarketID: "mkt-a",
		Score:    72.5,
		Status:   contracts.StatusPass,
	}}
	h := NewMarketHandler(svc, nil)

	rec := httptest.NewRecorder()
	h.GetVerdict(rec, withMarket(httptest.NewRequest(http.MethodGet, "/", nil), "mkt-a"))

	require.Equal(t, http.StatusOK, rec.Code)
	var got contracts.VerdictRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, []string{"verdict:mkt-a"}, svc.calls)
}

func TestMarketHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		call   func(h *MarketHandler, w http.ResponseWriter, r *http.Request)
		status int
	}{
		{"verdict not found", store.ErrNotFound, (*MarketHandler).GetVerdict, http.StatusNotFound},
		{"verdict failure", errors.New("db down"), (*MarketHandler).GetVerdict, http.StatusInternalServerError},
		{"score empty market", pipeline.ErrNoCompetitors, (*MarketHandler).Score, http.StatusNotFound},
		{"score failure", errors.New("db down"), (*MarketHandler).Score, http.StatusInternalServerError},
		{"refresh failure", errors.New("db down"), (*MarketHandler).RefreshHistory, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewMarketHandler(&fakeService{err: tt.err}, nil)
			rec := httptest.NewRecorder()
			tt.call(h, rec, withMarket(httptest.NewRequest(http.MethodPost, "/", nil), "mkt-a"))
			assert.Equal(t, tt.status, rec.Code)
			assert.NotContains(t, rec.Body.String(), "db down")
		})
	}
}

func TestMarketHandler_ScoreAndRefresh(t *testing.T) {
	svc := &fakeService{
		result:   &pipeline.Result{RunID: "run-9", MarketID: "mkt-a"},
		analyses: []contracts.HistoricalAnalysis{{ASIN: "B0X"}},
	}
	h := NewMarketHandler(svc, nil)

	rec := httptest.NewRecorder()
	h.Score(rec, withMarket(post(""), "mkt-a"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"run_id":"run-9"`)

	rec = httptest.NewRecorder()
	h.RefreshHistory(rec, withMarket(post(""), "mkt-a"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RefreshResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "mkt-a", resp.MarketID)
	assert.Len(t, resp.Analyses, 1)
	assert.Equal(t, []string{"score:mkt-a", "refresh:mkt-a"}, svc.calls)
}
