package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	profilePath string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nichegate",
	Short: "nichegate - market viability scoring",
	Long: `nichegate scores marketplace niches from competitor snapshots
and historical price / BSR series, and returns PASS / RISKY / FAIL.

Usage:
  go run ./cmd/nichegate [command]

Examples:
  go run ./cmd/nichegate score --input competitors.csv --history series.json
  go run ./cmd/nichegate stability --input series.json
  go run ./cmd/nichegate profile validate
  go run ./cmd/nichegate api
  go run ./cmd/nichegate refresh --market kitchen-scales --score`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "scoring profile YAML (default: SCORING_PROFILE or built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
