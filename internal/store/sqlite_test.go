package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestCreateAndFinishRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, true)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.True(t, run.DryRun)
	assert.Nil(t, run.FinishedAt)

	err = s.FinishRun(ctx, run.ID, RunTotals{
		DatesPriced:  150,
		DatesSkipped: 41,
		SendsOK:      300,
		SendsFailed:  2,
	})
	require.NoError(t, err)

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.NotNil(t, runs[0].FinishedAt)
	assert.Equal(t, 150, runs[0].DatesPriced)
	assert.Equal(t, 41, runs[0].DatesSkipped)
	assert.Equal(t, 300, runs[0].SendsOK)
	assert.Equal(t, 2, runs[0].SendsFailed)
}

func TestFinishRun_UnknownID(t *testing.T) {
	s := newTestStore(t)

	err := s.FinishRun(context.Background(), "missing", RunTotals{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestRecordAndListRateUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, false)
	require.NoError(t, err)

	score := 0.125
	for i, u := range []RateUpdate{
		{RunID: run.ID, Apartment: 2715198, Date: "2025-06-20", Price: 100, Score: &score, Occupancy: 0.5, Status: StatusSent},
		{RunID: run.ID, Apartment: 2715203, Date: "2025-06-20", Price: 112.5, Score: &score, Occupancy: 0.5, Status: StatusFailed},
		{RunID: run.ID, Apartment: 2715198, Date: "2025-06-21", Price: 120, Occupancy: 0.3, Status: StatusSent},
	} {
		require.NoError(t, s.RecordRateUpdate(ctx, u), "update %d", i)
	}

	all, err := s.ListRateUpdates(ctx, UpdateFilter{RunID: run.ID})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byDate, err := s.ListRateUpdates(ctx, UpdateFilter{Date: "2025-06-20"})
	require.NoError(t, err)
	require.Len(t, byDate, 2)
	for _, u := range byDate {
		require.NotNil(t, u.Score)
		assert.Equal(t, 0.125, *u.Score)
	}

	byApt, err := s.ListRateUpdates(ctx, UpdateFilter{Apartment: 2715198})
	require.NoError(t, err)
	assert.Len(t, byApt, 2)

	// Long-horizon updates carry no score.
	noScore, err := s.ListRateUpdates(ctx, UpdateFilter{Date: "2025-06-21"})
	require.NoError(t, err)
	require.Len(t, noScore, 1)
	assert.Nil(t, noScore[0].Score)
}

func TestListRateUpdates_Limit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, false)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordRateUpdate(ctx, RateUpdate{
			RunID: run.ID, Apartment: int64(i + 1), Date: "2025-06-20",
			Price: 100, Occupancy: 0.1, Status: StatusDryRun,
		}))
	}

	got, err := s.ListRateUpdates(ctx, UpdateFilter{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}
