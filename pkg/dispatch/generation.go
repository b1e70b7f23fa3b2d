package dispatch

import (
	"github.com/cogenplan/cogenplan/pkg/types"
	"github.com/cogenplan/cogenplan/pkg/units"
)

var hour = units.Hours(1)

// Generation is the CHP unit's response to one hour of demand.
type Generation struct {
	Electrical units.Quantity
	Thermal    units.Quantity
	Bought     units.Quantity
	Sold       units.Quantity
}

// Generate decides the CHP output for hour h. It has no state, so the
// sizing engine can use it to preview CHP heat without storage.
func Generate(mode types.Mode, unit types.CHPSpec, demand types.Demand, h int, netMetering bool) Generation {
	capacity := unit.Capacity.As(units.Power)
	minOut := unit.MinOutput()
	curve := unit.Curve
	elDemand := demand.Electrical(h)

	var el, th units.Quantity
	sell := false
	switch mode {
	case types.ModeELF:
		switch {
		case elDemand.Less(minOut):
			el = units.KW(0)
		case elDemand.Greater(capacity):
			el = capacity
		default:
			el = elDemand
		}
		th = curve.ElectricalToThermal(el)
	case types.ModeTLF:
		thDemand := demand.Thermal(h)
		thMin := curve.ElectricalToThermal(minOut)
		thMax := curve.ElectricalToThermal(capacity)
		switch {
		case thDemand.Less(thMin):
			el, th = units.KW(0), units.KWth(0)
		case thDemand.Greater(thMax):
			el, th = capacity, thMax
		default:
			th = thDemand
			el = units.Min(curve.ThermalToElectrical(thDemand), capacity)
		}
		sell = netMetering
	case types.ModePeak:
		if h < unit.RunHours() {
			el = capacity
		} else {
			el = units.KW(0)
		}
		th = curve.ElectricalToThermal(el)
		sell = true
	default:
		panic("dispatch: unknown mode " + mode.String())
	}

	g := Generation{
		Electrical: el,
		Thermal:    th,
		Bought:     units.Max(elDemand.Sub(el), units.KW(0)).Mul(hour),
		Sold:       units.KWh(0),
	}
	if sell {
		g.Sold = units.Max(el.Sub(elDemand), units.KW(0)).Mul(hour)
	}
	return g
}

// ThermalPreview returns the CHP heat output for every hour of demand
// with no storage attached.
func ThermalPreview(mode types.Mode, unit types.CHPSpec, demand types.Demand) []units.Quantity {
	out := make([]units.Quantity, demand.Hours())
	for h := range out {
		out[h] = Generate(mode, unit, demand, h, false).Thermal
	}
	return out
}
