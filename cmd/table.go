package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/finikas-suites/pricing-cli/internal/reference"
)

var (
	tableDump  bool
	tableLimit int
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Load and validate the pacing reference table",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := reference.Load(cfg.Pricing.TablePath)
		if err != nil {
			return eris.Wrap(err, "load pacing table")
		}

		rows := table.Rows()

		if tableDump {
			dump := rows
			if tableLimit > 0 && len(dump) > tableLimit {
				dump = dump[:tableLimit]
			}
			formatTableRows(os.Stdout, dump)
			fmt.Fprintf(os.Stderr, "%d of %d rows\n", len(dump), table.Len())
			return nil
		}

		fmt.Printf("Table: %s\n", cfg.Pricing.TablePath)
		fmt.Printf("Rows: %d\n", table.Len())
		if len(rows) > 0 {
			fmt.Printf("Dates: %s to %s\n",
				rows[0].Date.Format("2006-01-02"),
				rows[len(rows)-1].Date.Format("2006-01-02"),
			)
		}
		fmt.Printf("Horizon columns: hours_diff=%v days_diff=%v\n",
			table.HasHoursDiff(), table.HasDaysDiff())
		return nil
	},
}

func init() {
	tableCmd.Flags().BoolVar(&tableDump, "dump", false, "list every row")
	tableCmd.Flags().IntVar(&tableLimit, "limit", 0, "max rows to dump (0 = all)")
	rootCmd.AddCommand(tableCmd)
}

// formatTableRows writes the pacing rows to out.
func formatTableRows(out io.Writer, rows []reference.Row) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATE\tTARGET\tMIN\tMAX\tOCC_AHEAD\tHOURS\tDAYS")
	_, _ = fmt.Fprintln(w, "----\t------\t---\t---\t---------\t-----\t----")

	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%.4f\t%d\t%d\n",
			r.Date.Format("2006-01-02"),
			r.TargetPrice,
			r.MinPrice,
			r.MaxPrice,
			r.SumOccupancyDaysAhead,
			r.HoursDiff,
			r.DaysDiff,
		)
	}
	_ = w.Flush()
}
