package analysis

import (
	"github.com/cogenplan/cogenplan/pkg/types"
)

// Record flattens the report into its stored form.
func (r Report) Record() types.Run {
	run := types.Run{
		ID:         r.RunID,
		BuildingID: r.BuildingID,
		CreatedAt:  r.CreatedAt,
		Scenario:   r.Scenario.Name,
		Location:   r.Scenario.Location(),
		Subregion:  string(r.Subregion),
		Baseline: types.BaselineRecord{
			ElectricDemandKWh: r.Baseline.ElectricDemand.KWh(),
			HeatDemandMMBtu:   r.Baseline.HeatDemand.MMBtu(),
			FuelMMBtu:         r.Baseline.TotalFuel().MMBtu(),
			ElectricCost:      r.BaselineCosts.Electric.TotalDollars(),
			FuelCost:          r.BaselineCosts.Fuel.TotalDollars(),
			EmissionsLbs:      r.BaselineEmissions.Total().Pounds(),
		},
		Modes: make([]types.ModeRecord, len(r.Modes)),
	}
	for i, m := range r.Modes {
		run.Modes[i] = m.Record()
	}
	return run
}

// Record flattens the mode report into its stored form.
func (m ModeReport) Record() types.ModeRecord {
	if m.Err != nil {
		return types.ModeRecord{Mode: m.Mode, Error: m.Err.Error()}
	}
	s := m.Summary
	e := m.Economics
	return types.ModeRecord{
		Mode: m.Mode,

		CHPCapacityKW:  s.CHPCapacity.KW(),
		TESCapacityKWh: s.TESCapacity.KWh(),

		CHPElectricalKWh:     s.CHPElectrical.KWh(),
		CHPThermalMMBtu:      s.CHPThermal.MMBtu(),
		CHPRunHours:          s.CHPRunHours,
		BoilerMMBtu:          s.BoilerOutput.MMBtu(),
		FuelMMBtu:            s.TotalFuel().MMBtu(),
		ElectricityBoughtKWh: s.ElectricityBought.KWh(),
		ElectricitySoldKWh:   s.ElectricitySold.KWh(),
		TESDischargedMMBtu:   s.TESDischarged.MMBtu(),
		VentedMMBtu:          s.Vented.MMBtu(),

		ElectricCost:  e.Proposed.Electric.TotalDollars(),
		FuelCost:      e.Proposed.Fuel.TotalDollars(),
		ExportRevenue: e.ExportRevenue.Round(2).InexactFloat64(),
		CHPInstalled:  e.CHPInstalled.Round(2).InexactFloat64(),
		TESInstalled:  e.TESInstalled.Round(2).InexactFloat64(),
		AnnualOM:      e.OM().Round(2).InexactFloat64(),
		Savings:       e.Savings.Round(2).InexactFloat64(),

		PaysBack:              e.PaysBack,
		SimplePaybackYears:    e.SimplePayback,
		IncentivePaybackYears: e.IncentivePayback,

		EmissionsLbs:          m.Emissions.Proposed.Total().Pounds(),
		EmissionsReductionLbs: m.Emissions.Reduction().Pounds(),

		Sensitivity: m.Sensitivity,
	}
}
