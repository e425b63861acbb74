// Package store persists pricing run history locally.
package store

import (
	"context"
	"time"
)

// Rate update statuses.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
	StatusDryRun = "dry-run"
)

// Run is one execution of the pricing loop.
type Run struct {
	ID           string     `json:"id"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	DryRun       bool       `json:"dry_run"`
	DatesPriced  int        `json:"dates_priced"`
	DatesSkipped int        `json:"dates_skipped"`
	SendsOK      int        `json:"sends_ok"`
	SendsFailed  int        `json:"sends_failed"`
}

// RunTotals are the final counters written when a run completes.
type RunTotals struct {
	DatesPriced  int
	DatesSkipped int
	SendsOK      int
	SendsFailed  int
}

// RateUpdate is one computed price for one apartment and date.
type RateUpdate struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Apartment int64     `json:"apartment"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Price     float64   `json:"price"`
	Score     *float64  `json:"score,omitempty"`
	Occupancy float64   `json:"occupancy"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// UpdateFilter narrows ListRateUpdates.
type UpdateFilter struct {
	RunID     string
	Date      string // YYYY-MM-DD
	Apartment int64
	Limit     int
}

// Store defines the run-history persistence interface.
type Store interface {
	CreateRun(ctx context.Context, dryRun bool) (*Run, error)
	FinishRun(ctx context.Context, runID string, totals RunTotals) error
	RecordRateUpdate(ctx context.Context, u RateUpdate) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	ListRateUpdates(ctx context.Context, filter UpdateFilter) ([]RateUpdate, error)

	Migrate(ctx context.Context) error
	Close() error
}
