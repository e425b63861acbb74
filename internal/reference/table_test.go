package reference

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeFixture(t *testing.T, header []string, rows [][]string) string {
	t.Helper()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("prices")
	require.NoError(t, err)

	hr := sheet.AddRow()
	for _, name := range header {
		hr.AddCell().SetString(name)
	}
	for _, row := range rows {
		sr := sheet.AddRow()
		for _, cell := range row {
			sr.AddCell().SetString(cell)
		}
	}

	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

var fullHeader = []string{
	"date", "target_price", "max_price", "min_price",
	"sum_occupancy_days_ahead", "hours_diff", "days_diff",
}

func TestLoad(t *testing.T) {
	path := writeFixture(t, fullHeader, [][]string{
		{"2025-06-01", "100", "150", "70", "0.30", "10", "10"},
		{"2025-06-02", "110", "160", "75", "0.45", "8", "20"},
		{"2025-06-03", "120", "170", "80", "0.60", "5", "30"},
	})

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	row, ok := table.ByDate(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 110.0, row.TargetPrice)
	assert.Equal(t, 160.0, row.MaxPrice)
	assert.Equal(t, 75.0, row.MinPrice)
	assert.Equal(t, 0.45, row.SumOccupancyDaysAhead)
	assert.Equal(t, 8, row.HoursDiff)
	assert.Equal(t, 20, row.DaysDiff)

	_, ok = table.ByDate(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open table")
}

func TestLoad_MissingRequiredColumn(t *testing.T) {
	path := writeFixture(t,
		[]string{"date", "target_price", "max_price", "min_price"},
		[][]string{{"2025-06-01", "100", "150", "70"}},
	)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required column "sum_occupancy_days_ahead"`)
}

func TestLoad_OptionalHorizonColumns(t *testing.T) {
	path := writeFixture(t,
		[]string{"date", "target_price", "max_price", "min_price", "sum_occupancy_days_ahead"},
		[][]string{{"2025-06-01", "100", "150", "70", "0.30"}},
	)

	table, err := Load(path)
	require.NoError(t, err)

	// With no hours_diff / days_diff columns the horizon lookups report no match.
	_, ok := table.ByHoursDiff(0)
	assert.False(t, ok)
	_, ok = table.ByDaysDiff(0)
	assert.False(t, ok)
}

func TestLoad_BadNumber(t *testing.T) {
	path := writeFixture(t, fullHeader, [][]string{
		{"2025-06-01", "a lot", "150", "70", "0.30", "10", "10"},
	})

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target_price")
}

func TestLoad_BadDate(t *testing.T) {
	path := writeFixture(t, fullHeader, [][]string{
		{"June first", "100", "150", "70", "0.30", "10", "10"},
	})

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unparseable date")
}

func TestLoad_SkipsBlankRows(t *testing.T) {
	path := writeFixture(t, fullHeader, [][]string{
		{"2025-06-01", "100", "150", "70", "0.30", "10", "10"},
		{"", "", "", "", "", "", ""},
		{"2025-06-02", "110", "160", "75", "0.45", "8", "20"},
	})

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}

func TestLoad_IntegerCellsWithDecimalPoint(t *testing.T) {
	path := writeFixture(t, fullHeader, [][]string{
		{"2025-06-01", "100", "150", "70", "0.30", "10.0", "48.0"},
	})

	table, err := Load(path)
	require.NoError(t, err)
	row := table.Rows()[0]
	assert.Equal(t, 10, row.HoursDiff)
	assert.Equal(t, 48, row.DaysDiff)
}

func day(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

func TestClosestByOccupancy_FirstMinimumWins(t *testing.T) {
	table := NewTable([]Row{
		{Date: day(1), SumOccupancyDaysAhead: 0.20, DaysDiff: 1},
		{Date: day(2), SumOccupancyDaysAhead: 0.40, DaysDiff: 2}, // tied with row 3
		{Date: day(3), SumOccupancyDaysAhead: 0.60, DaysDiff: 3}, // tied with row 2
	})

	row, ok := table.ClosestByOccupancy(0.50)
	require.True(t, ok)
	assert.Equal(t, 2, row.DaysDiff)
}

func TestClosestByOccupancy_ExactMatch(t *testing.T) {
	table := NewTable([]Row{
		{Date: day(1), SumOccupancyDaysAhead: 0.10, DaysDiff: 1},
		{Date: day(2), SumOccupancyDaysAhead: 0.35, DaysDiff: 2},
		{Date: day(3), SumOccupancyDaysAhead: 0.90, DaysDiff: 3},
	})

	row, ok := table.ClosestByOccupancy(0.35)
	require.True(t, ok)
	assert.Equal(t, 2, row.DaysDiff)
}

func TestClosestByOccupancy_EmptyTable(t *testing.T) {
	table := NewTable(nil)
	_, ok := table.ClosestByOccupancy(0.5)
	assert.False(t, ok)
}

func TestByHoursDiff_FirstMatch(t *testing.T) {
	table := NewTable([]Row{
		{Date: day(1), HoursDiff: 5, SumOccupancyDaysAhead: 0.1},
		{Date: day(2), HoursDiff: 8, SumOccupancyDaysAhead: 0.2},
		{Date: day(3), HoursDiff: 8, SumOccupancyDaysAhead: 0.3},
	})

	row, ok := table.ByHoursDiff(8)
	require.True(t, ok)
	assert.Equal(t, 0.2, row.SumOccupancyDaysAhead)

	_, ok = table.ByHoursDiff(99)
	assert.False(t, ok)
}

func TestByDaysDiff(t *testing.T) {
	table := NewTable([]Row{
		{Date: day(1), DaysDiff: 10, SumOccupancyDaysAhead: 0.1},
		{Date: day(2), DaysDiff: 20, SumOccupancyDaysAhead: 0.2},
	})

	row, ok := table.ByDaysDiff(20)
	require.True(t, ok)
	assert.Equal(t, 0.2, row.SumOccupancyDaysAhead)

	_, ok = table.ByDaysDiff(30)
	assert.False(t, ok)
}

func TestRows_ReturnsCopy(t *testing.T) {
	table := NewTable([]Row{{Date: day(1), TargetPrice: 100}})
	rows := table.Rows()
	rows[0].TargetPrice = 999

	row, _ := table.ByDate(day(1))
	assert.Equal(t, 100.0, row.TargetPrice)
}
