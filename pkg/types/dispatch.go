package types

import "github.com/cogenplan/cogenplan/pkg/units"

// HourDispatch is the state of every component for one hour.
type HourDispatch struct {
	// CHPElectrical is the electrical output (Power).
	CHPElectrical units.Quantity
	// CHPThermal is the recovered heat (EnergyRate).
	CHPThermal units.Quantity
	// TESFlow is positive when charging and negative when discharging
	// (EnergyRate).
	TESFlow units.Quantity
	// TESSOC is the state of charge at the end of the hour in [0, 1].
	TESSOC float64
	// ABOutput is the auxiliary boiler output (EnergyRate).
	ABOutput units.Quantity
	// Bought and Sold are grid energy exchanged during the hour.
	Bought units.Quantity
	Sold   units.Quantity
	// Vented is heat the store could not accept (EnergyRate).
	Vented units.Quantity
}

// DispatchResult is the output of one simulation run.
type DispatchResult struct {
	Mode        Mode
	CHPCapacity units.Quantity
	TESCapacity units.Quantity
	Hours       []HourDispatch
}

// Series extracts one field of every hour.
func (r DispatchResult) Series(field func(HourDispatch) units.Quantity) []units.Quantity {
	out := make([]units.Quantity, len(r.Hours))
	for h, hd := range r.Hours {
		out[h] = field(hd)
	}
	return out
}
