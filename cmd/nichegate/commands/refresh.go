package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/nichegate/pkg/config"
)

// refreshCmd refreshes stored analyses for a market
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh a market's historical analyses",
	Long: `Loads stored price / BSR history for every competitor of a market,
recomputes stability and trend figures and stores them.
With --score the market is scored afterwards and the verdict stored.

Example:
  go run ./cmd/nichegate refresh --market kitchen-scales
  go run ./cmd/nichegate refresh --all --score`,
	RunE: runRefresh,
}

var (
	refreshMarket string
	refreshAll    bool
	refreshScore  bool
)

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().StringVar(&refreshMarket, "market", "", "market id")
	refreshCmd.Flags().BoolVar(&refreshAll, "all", false, "refresh every market")
	refreshCmd.Flags().BoolVar(&refreshScore, "score", false, "score after refreshing")
	refreshCmd.MarkFlagsMutuallyExclusive("market", "all")
	refreshCmd.MarkFlagsOneRequired("market", "all")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newCLILogger(cfg)
	ctx := context.Background()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	ids := []string{refreshMarket}
	if refreshAll {
		if ids, err = a.service.MarketIDs(ctx); err != nil {
			return fmt.Errorf("list markets: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	for _, id := range ids {
		analyses, err := a.service.RefreshHistory(ctx, id)
		if err != nil {
			return fmt.Errorf("refresh %s: %w", id, err)
		}
		fmt.Fprintf(out, "✅ %s: %d analyses refreshed\n", id, len(analyses))
	}

	if !refreshScore {
		return nil
	}

	failed := 0
	for _, r := range a.service.ScoreMarkets(ctx, ids, cfg.Schedule.Workers) {
		if r.Error != nil {
			failed++
			fmt.Fprintf(out, "❌ %s: %v\n", r.MarketID, r.Error)
			continue
		}
		rec := r.Result.Record
		fmt.Fprintf(out, "%s %s: %s %.2f (run %s)\n", statusIcon(rec.Status), r.MarketID, rec.Status, rec.Score, rec.RunID)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d markets failed to score", failed, len(ids))
	}
	return nil
}
