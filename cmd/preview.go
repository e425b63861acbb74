package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/finikas-suites/pricing-cli/internal/pricing"
)

var (
	previewDate      string
	previewOccupancy float64
)

// previewResult is the JSON shape printed by the preview command.
type previewResult struct {
	Date      string                 `json:"date"`
	Occupancy float64                `json:"occupancy"`
	Price     float64                `json:"price"`
	Score     *float64               `json:"score"`
	MinPrice  *float64               `json:"min_price"`
	MaxPrice  *float64               `json:"max_price"`
	Ladder    []pricing.ListingPrice `json:"ladder"`
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Compute the price for one date without pushing anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := time.Parse("2006-01-02", previewDate)
		if err != nil {
			return eris.Wrapf(err, "preview: parse date %q", previewDate)
		}
		if previewOccupancy < 0 || previewOccupancy > 1 {
			return eris.New("preview: occupancy must be in [0, 1]")
		}

		calc, err := buildCalculator()
		if err != nil {
			return eris.Wrap(err, "load pacing table")
		}

		quote := calc.Calculate(previewOccupancy, date, time.Now())
		if quote == nil {
			return fmt.Errorf("date %s cannot be priced: outside the pricing window or not in the table", previewDate)
		}

		result := previewResult{
			Date:      previewDate,
			Occupancy: previewOccupancy,
			Price:     quote.Price,
			Score:     quote.Score,
			MinPrice:  quote.MinPrice,
			MaxPrice:  quote.MaxPrice,
			Ladder:    pricing.Allocate(quote, cfg.Pricing.Apartments),
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	previewCmd.Flags().StringVar(&previewDate, "date", "", "date to price, YYYY-MM-DD (required)")
	previewCmd.Flags().Float64Var(&previewOccupancy, "occupancy", 0, "current occupancy fraction in [0, 1]")
	_ = previewCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(previewCmd)
}
