// Package pricing implements the pace-versus-occupancy price model: a
// composite score maps a date's current booking pace against the pacing
// reference table to a price bounded by that date's floor and ceiling.
package pricing

import (
	"math"
	"time"

	"github.com/finikas-suites/pricing-cli/internal/reference"
)

// Business tuning constants carried over from the production model. Their
// derivation is opaque; do not adjust without re-fitting the pacing table.
const (
	// pricingWindowDays bounds how far ahead a date can be priced.
	pricingWindowDays = 365

	// longHorizonDays is the lead time beyond which pacing no longer
	// applies and a flat markup over target is used instead.
	longHorizonDays = 240

	// longHorizonMarkup is the flat amount added to target price on the
	// long horizon.
	longHorizonMarkup = 20

	// fullPaceHourBudget is the expected full-pace hour count used for
	// same-day dates that have no bookings yet. It always drives the
	// score negative, pushing the price toward the floor.
	fullPaceHourBudget = 263
)

// Quote is the result of pricing one date. Score, MinPrice and MaxPrice are
// nil on the long horizon, which tells the allocation stage to send the same
// flat price to every listing.
type Quote struct {
	Price    float64
	Score    *float64
	MinPrice *float64
	MaxPrice *float64
}

// Calculator prices single dates against an immutable pacing table and the
// per-month same-day floors.
type Calculator struct {
	table  *reference.Table
	floors MonthFloors
}

// NewCalculator builds a calculator over the loaded pacing table.
func NewCalculator(table *reference.Table, floors MonthFloors) *Calculator {
	return &Calculator{table: table, floors: floors}
}

// Calculate prices targetDate given the current occupancy fraction and the
// evaluation instant. It returns nil when the date cannot be priced: outside
// the [0, 365] day window, or no reference row for the date. That is a skip
// signal, not an error.
//
// Three regimes by lead time: same day (hourly pacing), 1-240 days (daily
// pacing), beyond 240 days (flat markup over target).
func (c *Calculator) Calculate(currentOcc float64, targetDate, now time.Time) *Quote {
	difference := daysBetween(now, targetDate)
	if difference < 0 || difference > pricingWindowDays {
		return nil
	}

	row, ok := c.table.ByDate(targetDate)
	if !ok {
		return nil
	}

	targetPrice := row.TargetPrice
	maxPrice := row.MaxPrice
	minPrice := row.MinPrice
	if difference == 0 {
		// The same-day floor overrides the table.
		minPrice = c.floors.For(targetDate.Month())
	}

	if difference == 0 {
		hoursLeft := 23 - now.Hour()
		if hoursLeft < 1 {
			hoursLeft = 1
		}

		var score float64
		if currentOcc == 0 {
			score = float64(hoursLeft-fullPaceHourBudget) / float64(hoursLeft)
		} else {
			closest, _ := c.table.ClosestByOccupancy(currentOcc)
			paceRatio := float64(hoursLeft-closest.HoursDiff) / float64(hoursLeft)

			planOcc := currentOcc
			if planRow, ok := c.table.ByHoursDiff(hoursLeft); ok {
				planOcc = planRow.SumOccupancyDaysAhead
			}
			score = paceRatio * occupancyRatio(currentOcc, planOcc)
		}

		return boundedQuote(score, targetPrice, minPrice, maxPrice)
	}

	if difference > longHorizonDays {
		return &Quote{Price: round2(targetPrice + longHorizonMarkup)}
	}

	var score float64
	if currentOcc == 0 {
		score = float64(difference-longHorizonDays) / float64(difference)
	} else {
		closest, _ := c.table.ClosestByOccupancy(currentOcc)
		planDay := difference
		if c.table.HasDaysDiff() {
			planDay = closest.DaysDiff
		}
		paceRatio := float64(difference-planDay) / float64(difference)

		planOcc := currentOcc
		if planRow, ok := c.table.ByDaysDiff(difference); ok {
			planOcc = planRow.SumOccupancyDaysAhead
		}
		score = paceRatio * occupancyRatio(currentOcc, planOcc)
	}

	return boundedQuote(score, targetPrice, minPrice, maxPrice)
}

// occupancyRatio compares current occupancy against the plan. The divide
// guard only checks the plan side; that asymmetry is part of the model.
func occupancyRatio(current, plan float64) float64 {
	denom := 1.0
	if plan > 0 {
		denom = math.Min(current, plan)
	}
	return math.Max(current, plan) / denom
}

// boundedQuote interpolates piecewise-linearly from the score: a
// non-negative score scales from target toward the ceiling, a negative one
// from target toward the floor. The result is clamped to [min, max].
func boundedQuote(score, targetPrice, minPrice, maxPrice float64) *Quote {
	var price float64
	if score >= 0 {
		price = score*(maxPrice-targetPrice) + targetPrice
	} else {
		price = score*(targetPrice-minPrice) + targetPrice
	}

	price = math.Max(minPrice, math.Min(price, maxPrice))

	return &Quote{
		Price:    round2(price),
		Score:    ptr(round4(score)),
		MinPrice: ptr(minPrice),
		MaxPrice: ptr(maxPrice),
	}
}

// daysBetween returns whole calendar days from the date of `from` to the
// date of `to`, ignoring time of day.
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

func ptr(v float64) *float64 { return &v }
