package utility

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cogenplan/cogenplan/pkg/types"
	"github.com/cogenplan/cogenplan/pkg/units"
)

// Electric bills hourly grid purchases against an electric tariff.
type Electric struct {
	rate       types.ElectricRate
	apartments int
}

// NewElectric validates rate and returns an Electric tariff.
func NewElectric(rate types.ElectricRate, apartments int) (*Electric, error) {
	if err := rate.Validate(); err != nil {
		return nil, fmt.Errorf("invalid electric rate: %w", err)
	}
	return &Electric{rate: rate, apartments: apartments}, nil
}

// Bill returns the annual charges for hourly energy bought (kWh).
func (e *Electric) Bill(hourly []units.Quantity) Bill {
	return Bill{
		Base:  annualBase(e.rate.MonthlyBaseCharge, e.rate.Meter, e.apartments),
		Usage: e.usage(hourly),
	}
}

// ExportCredit returns what the utility pays for hourly energy sold. A
// configured export rate takes precedence over the tariff's usage
// charges; base charges are never credited.
func (e *Electric) ExportCredit(hourly []units.Quantity) decimal.Decimal {
	if e.rate.ExportRate > 0 {
		var kwh float64
		for _, q := range hourly {
			kwh += q.KWh()
		}
		return decimal.NewFromFloat(kwh).Mul(decimal.NewFromFloat(e.rate.ExportRate))
	}
	return e.usage(hourly)
}

func (e *Electric) usage(hourly []units.Quantity) decimal.Decimal {
	r := e.rate
	if r.Schedule == types.ScheduleTOU {
		return e.touUsage(hourly)
	}

	m := monthlyTotals(hourly, units.Quantity.KWh)
	total := decimal.Zero
	for i := range 12 {
		month := time.Month(i + 1)
		energy := decimal.NewFromFloat(m.energy[i])
		peak := decimal.NewFromFloat(m.peak[i])
		season := r.Winter
		if r.IsSummer(month) {
			season = r.Summer
		}

		switch r.Schedule {
		case types.ScheduleBasic:
			total = total.Add(energy.Mul(decimal.NewFromFloat(r.EnergyCharge)))
		case types.ScheduleEnergyBlock:
			total = total.Add(tiered(m.energy[i], r.Blocks))
		case types.ScheduleSeasonalEnergy:
			total = total.Add(energy.Mul(decimal.NewFromFloat(season.EnergyCharge)))
		case types.ScheduleSeasonalDemand:
			total = total.
				Add(peak.Mul(decimal.NewFromFloat(season.DemandCharge))).
				Add(energy.Mul(decimal.NewFromFloat(season.EnergyCharge)))
		case types.ScheduleSeasonalEnergyBlock:
			total = total.Add(tiered(m.energy[i], season.Blocks))
		case types.ScheduleSeasonalDemandBlock:
			total = total.
				Add(tiered(m.peak[i], season.Blocks)).
				Add(energy.Mul(decimal.NewFromFloat(season.EnergyCharge)))
		default:
			panic(fmt.Sprintf("utility: unhandled electric schedule %q", r.Schedule))
		}
	}
	return total
}

func (e *Electric) touUsage(hourly []units.Quantity) decimal.Decimal {
	byPeriod := make([]float64, len(e.rate.TOUPeriods))
	var offPeak float64
	for h, q := range hourly {
		ts := HourTime(h)
		matched := false
		for i := range e.rate.TOUPeriods {
			if e.rate.TOUPeriods[i].Contains(ts) {
				byPeriod[i] += q.KWh()
				matched = true
				break
			}
		}
		if !matched {
			offPeak += q.KWh()
		}
	}
	total := decimal.NewFromFloat(offPeak).Mul(decimal.NewFromFloat(e.rate.EnergyCharge))
	for i, kwh := range byPeriod {
		total = total.Add(decimal.NewFromFloat(kwh).Mul(decimal.NewFromFloat(e.rate.TOUPeriods[i].DollarsPerKWH)))
	}
	return total
}
