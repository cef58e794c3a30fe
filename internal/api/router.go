package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/nichegate/internal/api/handlers"
	"github.com/wonny/nichegate/pkg/logger"
)

// Handlers groups every API handler
type Handlers struct {
	Engine *handlers.EngineHandler
	Market *handlers.MarketHandler // nil when no database is configured
}

// NewRouter creates and configures the HTTP router.
// A nil clients resolver keys rate limits on the remote address only.
// ⭐ SSOT: routes are registered in this function only
func NewRouter(h Handlers, limiter Limiter, clients *ClientResolver, log *logger.Logger) http.Handler {
	log = logger.OrNop(log)
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Ad-hoc scoring
	api.HandleFunc("/competitors/score", h.Engine.ScoreCompetitor).Methods("POST")
	api.HandleFunc("/history/analyze", h.Engine.AnalyzeHistory).Methods("POST")
	api.HandleFunc("/markets/evaluate", h.Engine.EvaluateMarket).Methods("POST")

	// Stored markets
	if h.Market != nil {
		api.HandleFunc("/markets/{marketID}/verdict", h.Market.GetVerdict).Methods("GET")
		api.HandleFunc("/markets/{marketID}/score", h.Market.Score).Methods("POST")
		api.HandleFunc("/markets/{marketID}/history/refresh", h.Market.RefreshHistory).Methods("POST")
	}

	if limiter != nil {
		api.Use(rateLimitMiddleware(limiter, clients, log))
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "nichegate-api",
	})
}
