// Package reference loads the precomputed pacing table that drives pricing.
// The table is read once at startup and is immutable for the whole run.
package reference

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Row holds the pacing parameters for one calendar date.
type Row struct {
	Date                  time.Time
	TargetPrice           float64
	MaxPrice              float64
	MinPrice              float64
	SumOccupancyDaysAhead float64
	HoursDiff             int
	DaysDiff              int
}

// Table is a date-indexed, read-only pacing table.
type Table struct {
	rows     []Row
	byDate   map[string]int
	hasHours bool
	hasDays  bool
}

// Required columns. hours_diff and days_diff are optional: the horizon
// lookups simply report no match when the column is absent.
var requiredColumns = []string{
	"date",
	"target_price",
	"max_price",
	"min_price",
	"sum_occupancy_days_ahead",
}

const (
	colHoursDiff = "hours_diff"
	colDaysDiff  = "days_diff"
)

// dateLayouts accepted for the date column. Spreadsheets produced by
// different exporters render date cells differently.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01-02-06",
	"1/2/06",
	"02.01.2006",
}

// Load reads the pacing table from an XLSX file (first sheet, header row
// first). It fails if the file is missing or a required column is absent;
// no pricing decision is possible without the table.
func Load(path string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "reference: open table %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("reference: table %s has no sheets", path)
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("reference: table %s is empty", path)
	}

	cols, err := mapColumns(rowToStrings(sheet.Rows[0]))
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(sheet.Rows)-1)
	for i, sheetRow := range sheet.Rows[1:] {
		cells := rowToStrings(sheetRow)
		if blankRow(cells) {
			continue
		}
		r, err := parseRow(cells, cols)
		if err != nil {
			return nil, eris.Wrapf(err, "reference: row %d", i+2)
		}
		rows = append(rows, r)
	}

	t := NewTable(rows)
	_, t.hasHours = cols[colHoursDiff]
	_, t.hasDays = cols[colDaysDiff]
	return t, nil
}

// NewTable builds a table from in-memory rows, preserving row order for the
// first-minimum semantics of ClosestByOccupancy.
func NewTable(rows []Row) *Table {
	t := &Table{
		rows:     rows,
		byDate:   make(map[string]int, len(rows)),
		hasHours: true,
		hasDays:  true,
	}
	for i, r := range rows {
		key := dateKey(r.Date)
		if _, ok := t.byDate[key]; !ok {
			t.byDate[key] = i
		}
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns a copy of all rows in table order.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// ByDate returns the row for the given calendar date.
func (t *Table) ByDate(d time.Time) (Row, bool) {
	i, ok := t.byDate[dateKey(d)]
	if !ok {
		return Row{}, false
	}
	return t.rows[i], true
}

// ClosestByOccupancy returns the row whose sum_occupancy_days_ahead has the
// minimum absolute distance to target. Ties break to the first minimum in
// table order. The second return is false only for an empty table.
func (t *Table) ClosestByOccupancy(target float64) (Row, bool) {
	if len(t.rows) == 0 {
		return Row{}, false
	}
	best := 0
	bestDiff := math.Abs(t.rows[0].SumOccupancyDaysAhead - target)
	for i, r := range t.rows[1:] {
		diff := math.Abs(r.SumOccupancyDaysAhead - target)
		if diff < bestDiff {
			best = i + 1
			bestDiff = diff
		}
	}
	return t.rows[best], true
}

// HasHoursDiff reports whether the table carries the hours_diff column.
func (t *Table) HasHoursDiff() bool {
	return t.hasHours
}

// HasDaysDiff reports whether the table carries the days_diff column.
func (t *Table) HasDaysDiff() bool {
	return t.hasDays
}

// ByHoursDiff returns the first row with the given hours_diff value.
func (t *Table) ByHoursDiff(h int) (Row, bool) {
	if !t.hasHours {
		return Row{}, false
	}
	for _, r := range t.rows {
		if r.HoursDiff == h {
			return r, true
		}
	}
	return Row{}, false
}

// ByDaysDiff returns the first row with the given days_diff value.
func (t *Table) ByDaysDiff(d int) (Row, bool) {
	if !t.hasDays {
		return Row{}, false
	}
	for _, r := range t.rows {
		if r.DaysDiff == d {
			return r, true
		}
	}
	return Row{}, false
}

func mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, ok := cols[name]; !ok {
			cols[name] = i
		}
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, eris.Errorf("reference: missing required column %q", name)
		}
	}
	return cols, nil
}

func parseRow(cells []string, cols map[string]int) (Row, error) {
	var r Row
	var err error

	r.Date, err = parseDate(cellAt(cells, cols["date"]))
	if err != nil {
		return Row{}, err
	}

	for _, f := range []struct {
		col  string
		dest *float64
	}{
		{"target_price", &r.TargetPrice},
		{"max_price", &r.MaxPrice},
		{"min_price", &r.MinPrice},
		{"sum_occupancy_days_ahead", &r.SumOccupancyDaysAhead},
	} {
		*f.dest, err = parseFloat(cellAt(cells, cols[f.col]))
		if err != nil {
			return Row{}, eris.Wrapf(err, "column %s", f.col)
		}
	}

	if i, ok := cols[colHoursDiff]; ok {
		r.HoursDiff, err = parseInt(cellAt(cells, i))
		if err != nil {
			return Row{}, eris.Wrap(err, "column hours_diff")
		}
	}
	if i, ok := cols[colDaysDiff]; ok {
		r.DaysDiff, err = parseInt(cellAt(cells, i))
		if err != nil {
			return Row{}, eris.Wrap(err, "column days_diff")
		}
	}

	return r, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, eris.Errorf("unparseable date %q", s)
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, eris.Errorf("unparseable number %q", s)
	}
	return v, nil
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	// Some exporters write integers as "48.0".
	v, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

func cellAt(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func dateKey(d time.Time) string {
	return d.Format("2006-01-02")
}
