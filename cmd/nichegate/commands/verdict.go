package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/nichegate/internal/contracts"
	"github.com/wonny/nichegate/internal/pipeline"
	"github.com/wonny/nichegate/pkg/config"
	"github.com/wonny/nichegate/pkg/httputil"
)

// verdictCmd queries a running API server
var verdictCmd = &cobra.Command{
	Use:   "verdict",
	Short: "Fetch or trigger a market verdict on a running API server",
	Long: `Talks to a running nichegate API over HTTP with retries.

Example:
  go run ./cmd/nichegate verdict --market kitchen-scales
  go run ./cmd/nichegate verdict --market kitchen-scales --rescore --server http://scoring:8090`,
	RunE: runVerdict,
}

var (
	verdictServer  string
	verdictMarket  string
	verdictRescore bool
	verdictTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(verdictCmd)

	verdictCmd.Flags().StringVar(&verdictServer, "server", "", "API base URL (default http://localhost:PORT)")
	verdictCmd.Flags().StringVar(&verdictMarket, "market", "", "market id")
	verdictCmd.Flags().BoolVar(&verdictRescore, "rescore", false, "score the market now instead of reading the stored verdict")
	verdictCmd.Flags().DurationVar(&verdictTimeout, "timeout", 30*time.Second, "per-request timeout")
	verdictCmd.MarkFlagRequired("market")
}

func runVerdict(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newCLILogger(cfg)

	server := verdictServer
	if server == "" {
		server = "http://localhost:" + cfg.Port
	}
	client := httputil.New(server, log).WithTimeout(verdictTimeout)

	record, err := fetchVerdict(context.Background(), client, verdictMarket, verdictRescore)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s %.2f (run %s, %s)\n",
		statusIcon(record.Status), record.MarketID, record.Status, record.Score,
		record.RunID, record.CreatedAt.Format(time.RFC3339))
	return nil
}

// fetchVerdict reads the stored verdict, or triggers a re-score first
func fetchVerdict(ctx context.Context, client *httputil.Client, marketID string, rescore bool) (*contracts.VerdictRecord, error) {
	base := "/api/markets/" + url.PathEscape(marketID)

	if rescore {
		var result pipeline.Result
		if err := client.PostJSON(ctx, base+"/score", nil, &result); err != nil {
			return nil, fmt.Errorf("score %s: %w", marketID, err)
		}
		if result.Record == nil {
			return nil, fmt.Errorf("score %s: response has no verdict record", marketID)
		}
		return result.Record, nil
	}

	var record contracts.VerdictRecord
	if err := client.GetJSON(ctx, base+"/verdict", &record); err != nil {
		return nil, fmt.Errorf("get verdict %s: %w", marketID, err)
	}
	return &record, nil
}
