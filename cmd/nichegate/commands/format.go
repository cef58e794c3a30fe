package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/wonny/nichegate/internal/contracts"
	"github.com/wonny/nichegate/internal/market"
)

const separator = "───────────────────────────────────────────────────────────"

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printEvaluation renders an evaluation as a competitor table plus summary
func printEvaluation(w io.Writer, eval *market.Evaluation, issues map[string][]string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ASIN\tSCORE\tSTRENGTH")
	for _, c := range eval.Competitors {
		fmt.Fprintf(tw, "%s\t%.2f\t%s\n", c.ASIN, c.Score, c.Strength)
	}
	tw.Flush()

	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "   %-22s : %d\n", "Competitors", eval.CompetitorCount)
	fmt.Fprintf(w, "   %-22s : %.2f\n", "Avg competitor score", eval.AvgCompetitorScore)
	fmt.Fprintf(w, "   %-22s : %.2f\n", "Avg revenue", eval.AvgRevenue)
	fmt.Fprintf(w, "   %-22s : %.2f\n", "Base score", eval.BaseScore)

	if eval.TopSellers != nil {
		fmt.Fprintf(w, "   %-22s : bsr %.3f, price %.3f (%d neutral)\n", "Top-seller stability",
			eval.TopSellers.MeanBSR, eval.TopSellers.MeanPrice, eval.TopSellers.NeutralFilled)
	}

	for _, m := range eval.Modifiers {
		fmt.Fprintf(w, "   %-22s : %+.2f (%s)\n", "Modifier "+m.Name, m.Delta, m.Reason)
	}

	if eval.AutoFail != nil {
		fmt.Fprintf(w, "❌ Auto-fail [%s]: %s\n", eval.AutoFail.Gate, eval.AutoFail.Reason)
	}

	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "%s %s  %.2f\n", statusIcon(eval.Verdict.Status), eval.Verdict.Status, eval.Verdict.Score)

	if len(eval.Warnings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "⚠️  %d history warnings\n", len(eval.Warnings))
		for _, warning := range eval.Warnings {
			fmt.Fprintf(w, "   • %s\n", warning)
		}
	}

	if len(issues) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "⚠️  input issues")
		labels := make([]string, 0, len(issues))
		for label := range issues {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			fmt.Fprintf(w, "   • %s: %s\n", label, strings.Join(issues[label], "; "))
		}
	}
}

// printAnalysis renders one historical analysis
func printAnalysis(w io.Writer, a contracts.HistoricalAnalysis) {
	fmt.Fprintf(w, "📊 %s\n", a.ASIN)
	fmt.Fprintf(w, "   %-14s : %s\n", "BSR stability", formatStability(a.BSR))
	fmt.Fprintf(w, "   %-14s : %s\n", "Price stability", formatStability(a.Price))

	if a.BsrTrend.Available() {
		fmt.Fprintf(w, "   %-14s : %+.2f%% (%s, strength %.2f)\n", "BSR trend",
			*a.BsrTrend.TrendPct, a.BsrTrend.Direction, a.BsrTrend.Strength)
	} else if a.BsrTrend.Warning != nil {
		fmt.Fprintf(w, "   %-14s : n/a (%s)\n", "BSR trend", *a.BsrTrend.Warning)
	}
}

func formatStability(r contracts.StabilityResult) string {
	if r.Score != nil {
		return fmt.Sprintf("%.3f", *r.Score)
	}
	if r.Warning != nil {
		return "n/a (" + *r.Warning + ")"
	}
	return "n/a"
}

func statusIcon(status contracts.MarketStatus) string {
	switch status {
	case contracts.StatusPass:
		return "✅"
	case contracts.StatusRisky:
		return "⚠️ "
	default:
		return "❌"
	}
}
