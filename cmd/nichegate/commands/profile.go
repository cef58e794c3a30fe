package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/nichegate/internal/profile"
	"github.com/wonny/nichegate/pkg/config"
)

// profileCmd groups scoring profile commands
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect the scoring profile",
	Long: `Validates, hashes or prints the scoring profile.

The profile comes from --profile, then SCORING_PROFILE, then the built-in default.

Subcommands:
  validate  - check constraints and print warnings
  hash      - print the profile hash stored with every verdict
  show      - print the decision snapshot as JSON

Example:
  go run ./cmd/nichegate profile validate --profile config/profile/default.yaml`,
}

var (
	profileValidateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Validate the scoring profile",
		RunE:  runProfileValidate,
	}

	profileHashCmd = &cobra.Command{
		Use:   "hash",
		Short: "Print the profile hash",
		RunE:  runProfileHash,
	}

	profileShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the decision snapshot",
		RunE:  runProfileShow,
	}
)

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileValidateCmd)
	profileCmd.AddCommand(profileHashCmd)
	profileCmd.AddCommand(profileShowCmd)
}

func loadProfileFromFlags() (*profile.Profile, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return resolveProfile(cfg)
}

func runProfileValidate(cmd *cobra.Command, args []string) error {
	p, err := loadProfileFromFlags()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := profile.Validate(p); err != nil {
		fmt.Fprintf(out, "❌ %v\n", err)
		return err
	}

	fmt.Fprintf(out, "✅ %s %s is valid\n", p.Meta.ProfileID, p.Meta.Version)
	for _, w := range profile.Warn(p) {
		fmt.Fprintf(out, "⚠️  [%s] %s\n", w.Code, w.Message)
	}
	return nil
}

func runProfileHash(cmd *cobra.Command, args []string) error {
	p, err := loadProfileFromFlags()
	if err != nil {
		return err
	}

	hash, err := profile.Hash(p)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	p, err := loadProfileFromFlags()
	if err != nil {
		return err
	}

	snap, err := profile.NewDecisionSnapshot(p, nil)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), struct {
		*profile.DecisionSnapshot
		Profile *profile.Profile `json:"profile"`
	}{snap, p})
}
