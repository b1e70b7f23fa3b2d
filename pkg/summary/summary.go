package summary

import (
	"github.com/cogenplan/cogenplan/pkg/types"
	"github.com/cogenplan/cogenplan/pkg/units"
)

var hour = units.Hours(1)

// Summary holds the annual totals of one dispatch run. All totals are
// Energy quantities.
type Summary struct {
	Mode        types.Mode
	CHPCapacity units.Quantity
	TESCapacity units.Quantity

	ElectricDemand units.Quantity
	HeatDemand     units.Quantity

	CHPElectrical units.Quantity
	CHPThermal    units.Quantity
	CHPFuel       units.Quantity
	CHPRunHours   int

	BoilerOutput units.Quantity
	BoilerFuel   units.Quantity

	ElectricityBought units.Quantity
	ElectricitySold   units.Quantity

	TESCharged    units.Quantity
	TESDischarged units.Quantity
	Vented        units.Quantity

	// Hourly energy series used by the rate schedules.
	HourlyBought []units.Quantity
	HourlySold   []units.Quantity
	HourlyFuel   []units.Quantity
}

// TotalFuel is the fuel burned by the CHP unit and the boiler.
func (s Summary) TotalFuel() units.Quantity {
	return s.CHPFuel.Add(s.BoilerFuel)
}

// TESThroughput is the heat that moved in or out of storage.
func (s Summary) TESThroughput() units.Quantity {
	return s.TESCharged.Add(s.TESDischarged)
}

// Reduce totals a dispatch result.
func Reduce(demand types.Demand, result types.DispatchResult, unit types.CHPSpec, boiler types.AuxBoilerSpec) Summary {
	n := len(result.Hours)
	s := Summary{
		Mode:              result.Mode,
		CHPCapacity:       result.CHPCapacity.As(units.Power),
		TESCapacity:       result.TESCapacity.As(units.Energy),
		ElectricDemand:    demand.AnnualElectrical(),
		HeatDemand:        demand.AnnualThermal(),
		CHPElectrical:     units.KWh(0),
		CHPThermal:        units.KWh(0),
		CHPFuel:           units.KWh(0),
		BoilerOutput:      units.KWh(0),
		BoilerFuel:        units.KWh(0),
		ElectricityBought: units.KWh(0),
		ElectricitySold:   units.KWh(0),
		TESCharged:        units.KWh(0),
		TESDischarged:     units.KWh(0),
		Vented:            units.KWh(0),
		HourlyBought:      make([]units.Quantity, n),
		HourlySold:        make([]units.Quantity, n),
		HourlyFuel:        make([]units.Quantity, n),
	}

	for h, hd := range result.Hours {
		chpFuel := unit.Curve.ElectricalToFuel(hd.CHPElectrical).Mul(hour)
		abFuel := boilerFuel(hd.ABOutput, boiler)

		s.CHPElectrical = s.CHPElectrical.Add(hd.CHPElectrical.Mul(hour))
		s.CHPThermal = s.CHPThermal.Add(hd.CHPThermal.Mul(hour))
		s.CHPFuel = s.CHPFuel.Add(chpFuel)
		if hd.CHPElectrical.IsPositive() {
			s.CHPRunHours++
		}

		s.BoilerOutput = s.BoilerOutput.Add(hd.ABOutput.Mul(hour))
		s.BoilerFuel = s.BoilerFuel.Add(abFuel)

		s.ElectricityBought = s.ElectricityBought.Add(hd.Bought)
		s.ElectricitySold = s.ElectricitySold.Add(hd.Sold)

		flow := hd.TESFlow.Mul(hour)
		if flow.IsPositive() {
			s.TESCharged = s.TESCharged.Add(flow)
		} else {
			s.TESDischarged = s.TESDischarged.Sub(flow)
		}
		s.Vented = s.Vented.Add(hd.Vented.Mul(hour))

		s.HourlyBought[h] = hd.Bought
		s.HourlySold[h] = hd.Sold
		s.HourlyFuel[h] = chpFuel.Add(abFuel)
	}
	return s
}

// Baseline totals the building without a CHP unit: every kWh is bought
// and the boiler covers every hour of heat.
func Baseline(demand types.Demand, boiler types.AuxBoilerSpec) Summary {
	n := demand.Hours()
	s := Summary{
		CHPCapacity:       units.KW(0),
		TESCapacity:       units.KWh(0),
		ElectricDemand:    demand.AnnualElectrical(),
		HeatDemand:        demand.AnnualThermal(),
		CHPElectrical:     units.KWh(0),
		CHPThermal:        units.KWh(0),
		CHPFuel:           units.KWh(0),
		BoilerOutput:      units.KWh(0),
		BoilerFuel:        units.KWh(0),
		ElectricityBought: units.KWh(0),
		ElectricitySold:   units.KWh(0),
		TESCharged:        units.KWh(0),
		TESDischarged:     units.KWh(0),
		Vented:            units.KWh(0),
		HourlyBought:      make([]units.Quantity, n),
		HourlySold:        make([]units.Quantity, n),
		HourlyFuel:        make([]units.Quantity, n),
	}
	for h := range n {
		bought := demand.Electrical(h).Mul(hour)
		heat := demand.Thermal(h)
		fuel := boilerFuel(heat, boiler)

		s.BoilerOutput = s.BoilerOutput.Add(heat.Mul(hour))
		s.BoilerFuel = s.BoilerFuel.Add(fuel)
		s.ElectricityBought = s.ElectricityBought.Add(bought)

		s.HourlyBought[h] = bought
		s.HourlySold[h] = units.KWh(0)
		s.HourlyFuel[h] = fuel
	}
	return s
}

func boilerFuel(output units.Quantity, boiler types.AuxBoilerSpec) units.Quantity {
	if !output.IsPositive() || boiler.Efficiency <= 0 {
		return units.KWh(0)
	}
	return output.Mul(hour).Scale(1 / boiler.Efficiency)
}
