// Package driver runs the pricing loop: for each date in the horizon it
// queries availability, prices the date, spreads the price across the
// available apartments and pushes one rate update per apartment.
package driver

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/finikas-suites/pricing-cli/internal/pricing"
	"github.com/finikas-suites/pricing-cli/internal/store"
)

// Availability answers which of the requested apartments are still free for
// a one-night stay on the given date.
type Availability interface {
	CheckAvailability(ctx context.Context, arrival time.Time, apartments []int64) ([]int64, error)
}

// RateSender pushes one computed price to the booking service.
type RateSender interface {
	UpdateRate(ctx context.Context, apartmentID int64, date time.Time, dailyPrice float64, minStay int) error
}

// Recorder persists run history. A nil Recorder disables recording.
type Recorder interface {
	CreateRun(ctx context.Context, dryRun bool) (*store.Run, error)
	FinishRun(ctx context.Context, runID string, totals store.RunTotals) error
	RecordRateUpdate(ctx context.Context, u store.RateUpdate) error
}

// Options configures a pricing run.
type Options struct {
	// Apartments in priority order; position decides who gets the lowest
	// rung of the price ladder.
	Apartments []int64

	// HorizonDays is how many days past today get priced; 0 prices only
	// today. Negative values fall back to 190.
	HorizonDays int

	// MinStay is the minimum length of stay sent with every rate. Default 1.
	MinStay int

	// Start skips dates before it; the zero value starts from today. The
	// evaluation instant stays the real clock either way.
	Start time.Time

	// DryRun logs the would-be sends without calling the rates API.
	DryRun bool

	// Now overrides the evaluation instant (tests). Default time.Now.
	Now func() time.Time
}

// Summary counts what a run did.
type Summary struct {
	DatesPriced  int
	DatesSkipped int
	SendsOK      int
	SendsFailed  int
}

// Driver orchestrates one sequential pricing run.
type Driver struct {
	avail  Availability
	sender RateSender
	calc   *pricing.Calculator
	rec    Recorder
	opts   Options
	log    *zap.Logger
}

// New builds a driver. rec may be nil.
func New(avail Availability, sender RateSender, calc *pricing.Calculator, rec Recorder, opts Options) *Driver {
	if opts.HorizonDays < 0 {
		opts.HorizonDays = 190
	}
	if opts.MinStay <= 0 {
		opts.MinStay = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Driver{
		avail:  avail,
		sender: sender,
		calc:   calc,
		rec:    rec,
		opts:   opts,
		log:    zap.L().Named("driver"),
	}
}

// Run processes every date from today through today+HorizonDays inclusive.
// Failures are contained per date; only context cancellation stops the loop
// early. The evaluation instant is fixed once at the start, so the same-day
// hour does not drift over a long run.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	now := d.opts.Now()
	current := dateOf(now)
	end := current.AddDate(0, 0, d.opts.HorizonDays)
	if start := dateOf(d.opts.Start); !d.opts.Start.IsZero() && start.After(current) {
		current = start
	}

	var sum Summary

	runID := ""
	if d.rec != nil {
		run, err := d.rec.CreateRun(ctx, d.opts.DryRun)
		if err != nil {
			d.log.Warn("run history disabled", zap.Error(err))
		} else {
			runID = run.ID
		}
	}

	for !current.After(end) {
		if ctx.Err() != nil {
			d.finish(ctx, runID, sum)
			return sum, ctx.Err()
		}

		d.processDate(ctx, current, now, runID, &sum)
		current = current.AddDate(0, 0, 1)
	}

	d.finish(ctx, runID, sum)
	return sum, nil
}

func (d *Driver) processDate(ctx context.Context, date, now time.Time, runID string, sum *Summary) {
	log := d.log.With(zap.String("date", date.Format("2006-01-02")))

	available, err := d.avail.CheckAvailability(ctx, date, d.opts.Apartments)
	if err != nil {
		log.Warn("availability check failed, skipping date", zap.Error(err))
		sum.DatesSkipped++
		return
	}
	if len(available) == 0 {
		log.Info("no available apartments, skipping date")
		sum.DatesSkipped++
		return
	}

	occ := Occupancy(len(d.opts.Apartments), len(available))

	quote := d.calc.Calculate(occ, date, now)
	if quote == nil {
		log.Warn("date cannot be priced, skipping", zap.Float64("occupancy", occ))
		sum.DatesSkipped++
		return
	}

	// Keep the configured priority order among the available apartments.
	availableSorted := sortByPriority(d.opts.Apartments, available)

	for _, lp := range pricing.Allocate(quote, availableSorted) {
		d.send(ctx, log, date, lp, quote, occ, runID, sum)
	}

	log.Info("date priced",
		zap.Float64("occupancy", occ),
		zap.Float64p("score", quote.Score),
		zap.Float64("base_price", quote.Price),
		zap.Int("apartments", len(availableSorted)),
	)
	sum.DatesPriced++
}

func (d *Driver) send(ctx context.Context, log *zap.Logger, date time.Time, lp pricing.ListingPrice, quote *pricing.Quote, occ float64, runID string, sum *Summary) {
	status := store.StatusSent

	if d.opts.DryRun {
		log.Info("dry-run, not sending",
			zap.Int64("apartment", lp.Apartment),
			zap.Float64("price", lp.Price),
		)
		status = store.StatusDryRun
		sum.SendsOK++
	} else if err := d.sender.UpdateRate(ctx, lp.Apartment, date, lp.Price, d.opts.MinStay); err != nil {
		log.Error("rate update failed",
			zap.Int64("apartment", lp.Apartment),
			zap.Float64("price", lp.Price),
			zap.Error(err),
		)
		status = store.StatusFailed
		sum.SendsFailed++
	} else {
		log.Info("rate sent",
			zap.Int64("apartment", lp.Apartment),
			zap.Float64("price", lp.Price),
		)
		sum.SendsOK++
	}

	d.record(ctx, runID, store.RateUpdate{
		RunID:     runID,
		Apartment: lp.Apartment,
		Date:      date.Format("2006-01-02"),
		Price:     lp.Price,
		Score:     quote.Score,
		Occupancy: occ,
		Status:    status,
	})
}

func (d *Driver) record(ctx context.Context, runID string, u store.RateUpdate) {
	if d.rec == nil || runID == "" {
		return
	}
	if err := d.rec.RecordRateUpdate(ctx, u); err != nil {
		d.log.Warn("record rate update failed", zap.Error(err))
	}
}

func (d *Driver) finish(ctx context.Context, runID string, sum Summary) {
	if d.rec == nil || runID == "" {
		return
	}
	err := d.rec.FinishRun(ctx, runID, store.RunTotals{
		DatesPriced:  sum.DatesPriced,
		DatesSkipped: sum.DatesSkipped,
		SendsOK:      sum.SendsOK,
		SendsFailed:  sum.SendsFailed,
	})
	if err != nil {
		d.log.Warn("finish run failed", zap.Error(err))
	}
}

// Occupancy is the fraction of requested apartments currently booked.
// Defined as 0 when nothing was requested.
func Occupancy(requested, available int) float64 {
	if requested == 0 {
		return 0
	}
	return float64(requested-available) / float64(requested)
}

// sortByPriority filters the priority-ordered apartment list down to those
// reported available, preserving the priority order.
func sortByPriority(priority, available []int64) []int64 {
	set := make(map[int64]struct{}, len(available))
	for _, id := range available {
		set[id] = struct{}{}
	}
	out := make([]int64, 0, len(available))
	for _, id := range priority {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
