package types

import (
	"fmt"

	"github.com/cogenplan/cogenplan/pkg/units"
)

// HoursPerYear is the length of every demand series.
const HoursPerYear = 8760

// Demand is a year of hourly building demand. It is immutable once built
// and safe to share between goroutines.
type Demand struct {
	electrical []units.Quantity
	thermal    []units.Quantity
}

// NewDemand validates and copies the electrical (Power) and thermal
// (EnergyRate) series.
func NewDemand(electrical, thermal []units.Quantity) (Demand, error) {
	if len(electrical) != len(thermal) {
		return Demand{}, fmt.Errorf("%w: electrical demand has %d hours, thermal has %d", ErrInvalidConfig, len(electrical), len(thermal))
	}
	if len(electrical) != HoursPerYear {
		return Demand{}, fmt.Errorf("%w: demand must have %d hours, got %d", ErrInvalidConfig, HoursPerYear, len(electrical))
	}
	d := Demand{
		electrical: make([]units.Quantity, len(electrical)),
		thermal:    make([]units.Quantity, len(thermal)),
	}
	for h := range electrical {
		if electrical[h].Dim() != units.Power {
			return Demand{}, fmt.Errorf("%w: electrical demand at hour %d is %s, not power", ErrInvalidConfig, h, electrical[h].Dim())
		}
		if thermal[h].Dim() != units.EnergyRate {
			return Demand{}, fmt.Errorf("%w: thermal demand at hour %d is %s, not an energy rate", ErrInvalidConfig, h, thermal[h].Dim())
		}
		if electrical[h].IsNegative() || thermal[h].IsNegative() {
			return Demand{}, fmt.Errorf("%w: negative demand at hour %d", ErrInvalidConfig, h)
		}
		d.electrical[h] = electrical[h]
		d.thermal[h] = thermal[h]
	}
	return d, nil
}

// Hours returns the number of hours in the series.
func (d Demand) Hours() int { return len(d.electrical) }

// Electrical returns the electrical demand at hour h.
func (d Demand) Electrical(h int) units.Quantity { return d.electrical[h] }

// Thermal returns the thermal demand at hour h.
func (d Demand) Thermal(h int) units.Quantity { return d.thermal[h] }

// ElectricalSeries returns a copy of the electrical demand.
func (d Demand) ElectricalSeries() []units.Quantity {
	return append([]units.Quantity(nil), d.electrical...)
}

// ThermalSeries returns a copy of the thermal demand.
func (d Demand) ThermalSeries() []units.Quantity {
	return append([]units.Quantity(nil), d.thermal...)
}

// PeakThermal returns the largest hourly thermal demand.
func (d Demand) PeakThermal() units.Quantity {
	peak := units.KWth(0)
	for _, q := range d.thermal {
		peak = units.Max(peak, q)
	}
	return peak
}

// AnnualElectrical returns the total electrical energy demanded.
func (d Demand) AnnualElectrical() units.Quantity {
	return units.Sum(units.Power, d.electrical).Mul(units.Hours(1))
}

// AnnualThermal returns the total heat demanded.
func (d Demand) AnnualThermal() units.Quantity {
	return units.Sum(units.EnergyRate, d.thermal).Mul(units.Hours(1))
}
