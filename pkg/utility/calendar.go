package utility

import (
	"time"

	"github.com/cogenplan/cogenplan/pkg/units"
)

// calendarStart anchors hour 0 of a simulated year. 2023 is not a leap
// year and starts on a Sunday.
var calendarStart = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

// HourTime returns the wall-clock time of simulated hour h.
func HourTime(h int) time.Time {
	return calendarStart.Add(time.Duration(h) * time.Hour)
}

// monthly holds per-month totals of an hourly energy series.
type monthly struct {
	// energy is the month's total in the series' canonical unit.
	energy [12]float64
	// peak is the largest single hour of the month.
	peak [12]float64
}

func monthlyTotals(hourly []units.Quantity, value func(units.Quantity) float64) monthly {
	var m monthly
	for h, q := range hourly {
		i := HourTime(h).Month() - time.January
		v := value(q)
		m.energy[i] += v
		m.peak[i] = max(m.peak[i], v)
	}
	return m
}
