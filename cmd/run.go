package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finikas-suites/pricing-cli/internal/driver"
)

var (
	runDryRun bool
	runDays   int
	runStart  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Price the upcoming horizon and push rates to Smoobu",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(); err != nil {
			return err
		}

		calc, err := buildCalculator()
		if err != nil {
			return eris.Wrap(err, "load pacing table")
		}

		st, err := openStore(cmd)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close()

		client := newSmoobuClient()

		days := cfg.Pricing.HorizonDays
		if cmd.Flags().Changed("days") {
			days = runDays
		}

		var start time.Time
		if runStart != "" {
			start, err = time.Parse("2006-01-02", runStart)
			if err != nil {
				return eris.Wrapf(err, "run: parse start date %q", runStart)
			}
		}

		d := driver.New(client, client, calc, st, driver.Options{
			Apartments:  cfg.Pricing.Apartments,
			HorizonDays: days,
			MinStay:     cfg.Pricing.MinStay,
			Start:       start,
			DryRun:      runDryRun,
		})

		sum, err := d.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "pricing run")
		}

		zap.L().Info("pricing run complete",
			zap.Int("dates_priced", sum.DatesPriced),
			zap.Int("dates_skipped", sum.DatesSkipped),
			zap.Int("sends_ok", sum.SendsOK),
			zap.Int("sends_failed", sum.SendsFailed),
		)

		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "compute prices but do not push them to Smoobu")
	runCmd.Flags().IntVar(&runDays, "days", 0, "days ahead to price (default from config)")
	runCmd.Flags().StringVar(&runStart, "start", "", "skip dates before this date, YYYY-MM-DD")
	rootCmd.AddCommand(runCmd)
}
