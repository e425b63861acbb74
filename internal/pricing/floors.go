package pricing

import (
	"time"

	"github.com/rotisserie/eris"
)

// MonthFloors holds the minimum same-day price per calendar month. It
// overrides the reference table's min_price only when pricing today.
type MonthFloors [13]float64 // indexed by time.Month, slot 0 unused

// DefaultMonthFloors returns the production same-day floors.
func DefaultMonthFloors() MonthFloors {
	return MonthFloors{
		0,
		50, 50, 55, 60, // Jan-Apr
		70, 80, 80, 80, // May-Aug
		80, 70, 50, 50, // Sep-Dec
	}
}

// FloorsFromMap builds MonthFloors from a month-number map, requiring a
// positive floor for every month.
func FloorsFromMap(m map[int]float64) (MonthFloors, error) {
	var f MonthFloors
	for month := 1; month <= 12; month++ {
		v, ok := m[month]
		if !ok {
			return MonthFloors{}, eris.Errorf("pricing: missing same-day floor for month %d", month)
		}
		if v <= 0 {
			return MonthFloors{}, eris.Errorf("pricing: non-positive same-day floor for month %d", month)
		}
		f[month] = v
	}
	return f, nil
}

// For returns the floor for the given month.
func (f MonthFloors) For(m time.Month) float64 {
	return f[m]
}
