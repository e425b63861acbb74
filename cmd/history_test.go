package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/finikas-suites/pricing-cli/internal/store"
)

func TestFormatRuns(t *testing.T) {
	started := time.Date(2025, 6, 20, 8, 0, 0, 0, time.UTC)
	finished := started.Add(95 * time.Second)

	var sb strings.Builder
	formatRuns(&sb, []store.Run{
		{
			ID:           "0d9f1c2a-aaaa-bbbb-cccc-ddddeeeeffff",
			StartedAt:    started,
			FinishedAt:   &finished,
			DryRun:       true,
			DatesPriced:  12,
			DatesSkipped: 3,
			SendsOK:      40,
			SendsFailed:  1,
		},
		{
			ID:        "unfinished",
			StartedAt: started,
		},
	})

	out := sb.String()
	assert.Contains(t, out, "0d9f1c2a")
	assert.NotContains(t, out, "ddddeeeeffff")
	assert.Contains(t, out, "dry-run")
	assert.Contains(t, out, "1m35s")
	assert.Contains(t, out, "live")
}

func TestFormatRateUpdates(t *testing.T) {
	score := -0.25

	var sb strings.Builder
	formatRateUpdates(&sb, []store.RateUpdate{
		{RunID: "run-1", Date: "2025-06-20", Apartment: 2715198, Price: 92.5, Score: &score, Occupancy: 0.4, Status: store.StatusSent},
		{RunID: "run-1", Date: "2025-06-21", Apartment: 2715203, Price: 120, Occupancy: 0, Status: store.StatusSent},
	})

	out := sb.String()
	assert.Contains(t, out, "2715198")
	assert.Contains(t, out, "92.50")
	assert.Contains(t, out, "-0.2500")
	// Long-horizon rows carry no score.
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines[3], "-")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "12345678", truncateID("123456789abc"))
	assert.Equal(t, "short", truncateID("short"))
}
