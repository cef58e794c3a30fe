package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/nichegate/internal/api"
	"github.com/wonny/nichegate/internal/api/handlers"
	"github.com/wonny/nichegate/pkg/config"
	"github.com/wonny/nichegate/pkg/logger"
	"github.com/wonny/nichegate/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health                                  - Health check
  POST /api/competitors/score                   - Score one competitor row
  POST /api/history/analyze                     - Stability / trend from raw series
  POST /api/markets/evaluate                    - Evaluate an inline market
  GET  /api/markets/{marketID}/verdict          - Latest stored verdict      (database)
  POST /api/markets/{marketID}/score            - Score a stored market      (database)
  POST /api/markets/{marketID}/history/refresh  - Refresh stored analyses    (database)

Without DATABASE_URL only the stateless endpoints are served.

Example:
  go run ./cmd/nichegate api
  go run ./cmd/nichegate api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log := logger.New(cfg)
	ctx := context.Background()

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	h := api.Handlers{}
	var limiterClient *redis.Client

	if cfg.Database.URL != "" {
		a, err := newApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		h.Engine = handlers.NewEngineHandler(a.engine.aggregator, a.engine.analyzer, log)
		h.Market = handlers.NewMarketHandler(a.service, log)
		limiterClient = a.redis
		log.Info("Connected to database")
	} else {
		eng, err := newEngine(cfg, log, time.Now)
		if err != nil {
			return err
		}
		h.Engine = handlers.NewEngineHandler(eng.aggregator, eng.analyzer, log)

		limiterClient, err = redis.New(ctx, cfg)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, using in-process rate limiter")
			limiterClient = redis.Disabled()
		}
		defer limiterClient.Close()
		log.Warn("DATABASE_URL not set, serving stateless endpoints only")
	}

	clients, err := api.NewClientResolver(cfg.RateLimit.TrustedProxies)
	if err != nil {
		return fmt.Errorf("API_TRUSTED_PROXIES: %w", err)
	}

	router := api.NewRouter(h, api.NewLimiter(cfg, limiterClient), clients, log)
	server := api.New(cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
