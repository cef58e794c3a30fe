package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/nichegate/internal/contracts"
	"github.com/wonny/nichegate/pkg/config"
)

// scoreCmd scores a market from local files
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a market from a competitor file",
	Long: `Scores a market offline. No database is needed.

Input (--input):
  .csv   header row with any supported column names
         (ASIN, Price, BSR, Monthly Sales, Revenue, Rating, Reviews,
          Market Share, Fulfillment Method, Date First Available, ...)
  .json  {"competitors": [...], "analyses": {"ASIN": {...}}} or a bare array of rows

History (--history, optional):
  JSON map of ASIN → {"price": [{"timestamp", "value"}], "bsr": [...]}
  analyzed on the fly; overrides analyses from the input file.

Example:
  go run ./cmd/nichegate score --input competitors.csv --history series.json
  go run ./cmd/nichegate score --input market.json --now 2025-06-01 --json`,
	RunE: runScore,
}

var (
	scoreInput   string
	scoreHistory string
	scoreNow     string
	scoreJSON    bool
)

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringVar(&scoreInput, "input", "", "competitor file (.csv or .json)")
	scoreCmd.Flags().StringVar(&scoreHistory, "history", "", "raw history series file (.json)")
	scoreCmd.Flags().StringVar(&scoreNow, "now", "", "evaluation date YYYY-MM-DD (default today)")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "print the full evaluation as JSON")
	scoreCmd.MarkFlagRequired("input")
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newCLILogger(cfg)

	now, err := parseClock(scoreNow)
	if err != nil {
		return err
	}

	eng, err := newEngine(cfg, log, now)
	if err != nil {
		return err
	}

	input, err := readMarket(scoreInput)
	if err != nil {
		return err
	}

	analyses := input.Analyses
	if scoreHistory != "" {
		series, err := readSeries(scoreHistory)
		if err != nil {
			return err
		}
		analyses = make(contracts.HistoricalAnalyses, len(series))
		for _, a := range analyzeSeries(eng.analyzer, series) {
			analyses[a.ASIN] = a
		}
	}

	records, issues := normalizeRows(input.Competitors)

	eval, err := eng.aggregator.Evaluate(records, analyses)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	out := cmd.OutOrStdout()
	if scoreJSON {
		return printJSON(out, eval)
	}
	printEvaluation(out, eval, issues)
	return nil
}
