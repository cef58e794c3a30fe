package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/nichegate/pkg/config"
)

// stabilityCmd analyzes raw history series
var stabilityCmd = &cobra.Command{
	Use:   "stability",
	Short: "Compute stability and trend figures from history",
	Long: `Computes BSR / price stability and the monthly BSR trend per competitor.

Input: JSON map of ASIN → {"price": [{"timestamp", "value"}], "bsr": [...]}.
A null value marks a gap in the series.

Example:
  go run ./cmd/nichegate stability --input series.json
  go run ./cmd/nichegate stability --input series.json --json`,
	RunE: runStability,
}

var (
	stabilityInput string
	stabilityJSON  bool
)

func init() {
	rootCmd.AddCommand(stabilityCmd)

	stabilityCmd.Flags().StringVar(&stabilityInput, "input", "", "history series file (.json)")
	stabilityCmd.Flags().BoolVar(&stabilityJSON, "json", false, "print analyses as JSON")
	stabilityCmd.MarkFlagRequired("input")
}

func runStability(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newCLILogger(cfg)

	series, err := readSeries(stabilityInput)
	if err != nil {
		return err
	}

	eng, err := newEngine(cfg, log, time.Now)
	if err != nil {
		return err
	}
	analyses := analyzeSeries(eng.analyzer, series)

	out := cmd.OutOrStdout()
	if stabilityJSON {
		return printJSON(out, analyses)
	}
	for _, a := range analyses {
		printAnalysis(out, a)
	}
	return nil
}
