package utility

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cogenplan/cogenplan/pkg/types"
	"github.com/cogenplan/cogenplan/pkg/units"
)

// Fuel bills hourly natural gas use against a gas tariff.
type Fuel struct {
	rate       types.FuelRate
	apartments int
}

// NewFuel validates rate and returns a Fuel tariff.
func NewFuel(rate types.FuelRate, apartments int) (*Fuel, error) {
	if err := rate.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fuel rate: %w", err)
	}
	return &Fuel{rate: rate, apartments: apartments}, nil
}

// Bill returns the annual charges for hourly fuel energy.
func (f *Fuel) Bill(hourly []units.Quantity) Bill {
	b := Bill{
		Base:  annualBase(f.rate.MonthlyBaseCharge, f.rate.Meter, f.apartments),
		Usage: decimal.Zero,
	}
	m := monthlyTotals(hourly, units.Quantity.MMBtu)
	for i := range 12 {
		switch f.rate.Schedule {
		case types.ScheduleBasic:
			b.Usage = b.Usage.Add(decimal.NewFromFloat(m.energy[i]).Mul(decimal.NewFromFloat(f.rate.EnergyCharge)))
		case types.ScheduleEnergyBlock:
			b.Usage = b.Usage.Add(tiered(m.energy[i], f.rate.Blocks))
		default:
			panic(fmt.Sprintf("utility: unhandled fuel schedule %q", f.rate.Schedule))
		}
	}
	return b
}
