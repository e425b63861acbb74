package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/finikas-suites/pricing-cli/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect pricing run history",
	Long:  "Commands for listing past runs and the rate updates they sent.",
}

// -- history runs --

var historyRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past pricing runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(cmd)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "history runs")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRuns(os.Stdout, runs)
		return nil
	},
}

// -- history rates --

var historyRatesCmd = &cobra.Command{
	Use:   "rates",
	Short: "List rate updates from past runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(cmd)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close() //nolint:errcheck

		runID, _ := cmd.Flags().GetString("run")
		date, _ := cmd.Flags().GetString("date")
		apartment, _ := cmd.Flags().GetInt64("apartment")
		limit, _ := cmd.Flags().GetInt("limit")

		updates, err := st.ListRateUpdates(ctx, store.UpdateFilter{
			RunID:     runID,
			Date:      date,
			Apartment: apartment,
			Limit:     limit,
		})
		if err != nil {
			return eris.Wrap(err, "history rates")
		}

		if len(updates) == 0 {
			fmt.Fprintln(os.Stderr, "No rate updates found.")
			return nil
		}

		formatRateUpdates(os.Stdout, updates)
		return nil
	},
}

func init() {
	historyRunsCmd.Flags().Int("limit", 50, "max number of runs to display")

	historyRatesCmd.Flags().String("run", "", "filter by run ID")
	historyRatesCmd.Flags().String("date", "", "filter by priced date (YYYY-MM-DD)")
	historyRatesCmd.Flags().Int64("apartment", 0, "filter by apartment ID")
	historyRatesCmd.Flags().Int("limit", 100, "max number of updates to display")

	historyCmd.AddCommand(historyRunsCmd)
	historyCmd.AddCommand(historyRatesCmd)
	rootCmd.AddCommand(historyCmd)
}

// formatRuns writes a tabular list of runs to out.
func formatRuns(out io.Writer, runs []store.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tMODE\tPRICED\tSKIPPED\tOK\tFAILED")
	_, _ = fmt.Fprintln(w, "--\t-------\t--------\t----\t------\t-------\t--\t------")

	for _, r := range runs {
		dur := ""
		if r.FinishedAt != nil {
			dur = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}

		mode := "live"
		if r.DryRun {
			mode = "dry-run"
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			truncateID(r.ID),
			r.StartedAt.Format("2006-01-02 15:04"),
			dur,
			mode,
			r.DatesPriced,
			r.DatesSkipped,
			r.SendsOK,
			r.SendsFailed,
		)
	}
	_ = w.Flush()
}

// formatRateUpdates writes a tabular list of rate updates to out.
func formatRateUpdates(out io.Writer, updates []store.RateUpdate) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RUN\tDATE\tAPARTMENT\tPRICE\tSCORE\tOCC\tSTATUS")
	_, _ = fmt.Fprintln(w, "---\t----\t---------\t-----\t-----\t---\t------")

	for _, u := range updates {
		score := "-"
		if u.Score != nil {
			score = fmt.Sprintf("%.4f", *u.Score)
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%s\t%.2f\t%s\n",
			truncateID(u.RunID),
			u.Date,
			u.Apartment,
			u.Price,
			score,
			u.Occupancy,
			u.Status,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
