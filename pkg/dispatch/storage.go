package dispatch

import (
	"github.com/cogenplan/cogenplan/pkg/types"
	"github.com/cogenplan/cogenplan/pkg/units"
)

// storage tracks the charge of a thermal store across hours.
type storage struct {
	capacity     units.Quantity
	charge       units.Quantity
	maxDischarge units.Quantity
}

func newStorage(spec types.TESSpec) *storage {
	return &storage{
		capacity:     spec.Capacity.As(units.Energy),
		charge:       spec.StartingCharge.As(units.Energy),
		maxDischarge: spec.MaxDischargeRate.As(units.EnergyRate),
	}
}

type storageFlow struct {
	// rate is positive when charging, negative when discharging.
	rate   units.Quantity
	vented units.Quantity
}

// step applies one hour of surplus (positive) or deficit (negative) heat
// rate. Surplus beyond capacity is vented; a deficit beyond the stored
// heat is left for the boiler.
func (s *storage) step(heatRate units.Quantity) storageFlow {
	zero := units.KWth(0)
	switch {
	case heatRate.IsZero():
		return storageFlow{rate: zero, vented: zero}
	case heatRate.IsPositive():
		room := s.capacity.Sub(s.charge).PerHourAsHeatRate()
		if heatRate.Cmp(room) <= 0 {
			s.charge = s.charge.Add(heatRate.Mul(hour))
			return storageFlow{rate: heatRate, vented: zero}
		}
		s.charge = s.capacity
		return storageFlow{rate: room, vented: heatRate.Sub(room)}
	default:
		need := heatRate.Neg()
		available := s.charge.PerHourAsHeatRate()
		if s.maxDischarge.IsPositive() {
			available = units.Min(available, s.maxDischarge)
		}
		drawn := units.Min(need, available)
		s.charge = units.Max(s.charge.Sub(drawn.Mul(hour)), units.KWh(0))
		return storageFlow{rate: drawn.Neg(), vented: zero}
	}
}

func (s *storage) soc() float64 {
	if !s.capacity.IsPositive() {
		return 0
	}
	return min(max(s.charge.Ratio(s.capacity), 0), 1)
}
