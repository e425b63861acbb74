package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finikas-suites/pricing-cli/internal/config"
	"github.com/finikas-suites/pricing-cli/internal/pricing"
	"github.com/finikas-suites/pricing-cli/internal/reference"
	"github.com/finikas-suites/pricing-cli/internal/resilience"
	"github.com/finikas-suites/pricing-cli/internal/smoobu"
	"github.com/finikas-suites/pricing-cli/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "smartprice",
	Short: "Dynamic pricing for short-term rental apartments",
	Long:  "Prices upcoming dates from a pacing reference table and current Smoobu availability, then pushes graduated daily rates back to Smoobu.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildCalculator loads the pacing table and month floors from config.
func buildCalculator() (*pricing.Calculator, error) {
	table, err := reference.Load(cfg.Pricing.TablePath)
	if err != nil {
		return nil, err
	}

	floors := pricing.DefaultMonthFloors()
	if len(cfg.Pricing.SameDayFloors) > 0 {
		byMonth := make(map[int]float64, len(cfg.Pricing.SameDayFloors))
		for k, v := range cfg.Pricing.SameDayFloors {
			month, err := strconv.Atoi(k)
			if err != nil {
				return nil, eris.Errorf("config: bad same_day_floors month %q", k)
			}
			byMonth[month] = v
		}
		floors, err = pricing.FloorsFromMap(byMonth)
		if err != nil {
			return nil, err
		}
	}

	zap.L().Info("pacing table loaded",
		zap.String("path", cfg.Pricing.TablePath),
		zap.Int("rows", table.Len()),
	)

	return pricing.NewCalculator(table, floors), nil
}

// newSmoobuClient builds the API client from config.
func newSmoobuClient() smoobu.Client {
	return smoobu.NewClient(cfg.Smoobu.APIKey, cfg.Smoobu.CustomerID,
		smoobu.WithBaseURL(cfg.Smoobu.BaseURL),
		smoobu.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Smoobu.TimeoutSecs) * time.Second}),
		smoobu.WithRetry(resilience.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Delay:       time.Duration(cfg.Retry.DelaySecs) * time.Second,
		}),
	)
}

// openStore opens the run-history database and runs migrations.
func openStore(cmd *cobra.Command) (store.Store, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(cmd.Context()); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
