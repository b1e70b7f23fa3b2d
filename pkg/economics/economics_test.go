package economics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogenplan/cogenplan/pkg/summary"
	"github.com/cogenplan/cogenplan/pkg/types"
	"github.com/cogenplan/cogenplan/pkg/units"
)

func flat(q units.Quantity) []units.Quantity {
	out := make([]units.Quantity, types.HoursPerYear)
	for h := range out {
		out[h] = q
	}
	return out
}

func basicTariffs(t *testing.T, exportRate float64) Tariffs {
	t.Helper()
	tr, err := NewTariffs(types.Scenario{
		Apartments: 1,
		ElectricRate: types.ElectricRate{
			Schedule:     types.ScheduleBasic,
			Meter:        types.MeterMaster,
			EnergyCharge: 0.2,
			ExportRate:   exportRate,
		},
		FuelRate: types.FuelRate{
			Schedule:     types.ScheduleBasic,
			Meter:        types.MeterMaster,
			EnergyCharge: 10,
		},
	})
	require.NoError(t, err)
	return tr
}

func TestEvaluate(t *testing.T) {
	tr := basicTariffs(t, 0.05)

	baseline := summary.Summary{
		CHPCapacity:  units.KW(0),
		TESCapacity:  units.KWh(0),
		HourlyBought: flat(units.KWh(10)),
		HourlySold:   flat(units.KWh(0)),
		HourlyFuel:   flat(units.MMBtu(0.1)),
	}
	proposed := summary.Summary{
		CHPCapacity:     units.KW(20),
		TESCapacity:     units.KWh(100),
		CHPElectrical:   units.KWh(10000),
		TESCharged:      units.KWh(500),
		TESDischarged:   units.KWh(500),
		ElectricitySold: units.KWh(8760),
		HourlyBought:    flat(units.KWh(2)),
		HourlySold:      flat(units.KWh(1)),
		HourlyFuel:      flat(units.MMBtu(0.15)),
	}
	unit := types.CHPSpec{InstalledCost: units.DollarsPerKW(2000), OMCost: units.DollarsPerKWh(0.02)}
	tes := types.TESSpec{InstalledCost: units.DollarsPerKWh(50), OMCost: units.DollarsPerKWh(0.01)}

	r, err := Evaluate(tr, baseline, proposed, unit, tes, 0.25)
	require.NoError(t, err)

	assert.InDelta(t, 17520.0, r.Baseline.Electric.Total().InexactFloat64(), 1e-6)
	assert.InDelta(t, 8760.0, r.Baseline.Fuel.Total().InexactFloat64(), 1e-3)
	assert.InDelta(t, 3504.0, r.Proposed.Electric.Total().InexactFloat64(), 1e-6)
	assert.InDelta(t, 13140.0, r.Proposed.Fuel.Total().InexactFloat64(), 1e-3)
	assert.InDelta(t, 438.0, r.ExportRevenue.InexactFloat64(), 1e-6)

	assert.InDelta(t, 40000.0, r.CHPInstalled.InexactFloat64(), 1e-9)
	assert.InDelta(t, 5000.0, r.TESInstalled.InexactFloat64(), 1e-9)
	assert.InDelta(t, 200.0, r.CHPOM.InexactFloat64(), 1e-9)
	assert.InDelta(t, 10.0, r.TESOM.InexactFloat64(), 1e-9)

	savings := 17520.0 + 8760 - 3504 - 13140 + 438
	assert.InDelta(t, savings, r.Savings.InexactFloat64(), 1e-3)
	require.True(t, r.PaysBack)
	assert.InDelta(t, 45000/(savings-210), r.SimplePayback, 1e-6)
	assert.InDelta(t, 45000*0.75/(savings-210), r.IncentivePayback, 1e-6)

	t.Run("payback model agrees", func(t *testing.T) {
		m := NewPaybackModel(r, 50)
		got := m.Payback(
			r.Proposed.Fuel.TotalDollars(),
			r.Proposed.Electric.TotalDollars(),
			100,
			0.25,
		)
		assert.InDelta(t, r.IncentivePayback, got, 1e-3)
	})
}

func TestEvaluateNoSavings(t *testing.T) {
	tr := basicTariffs(t, 0)
	s := summary.Summary{
		CHPCapacity:   units.KW(10),
		TESCapacity:   units.KWh(0),
		CHPElectrical: units.KWh(1000),
		HourlyBought:  flat(units.KWh(1)),
		HourlySold:    flat(units.KWh(0)),
		HourlyFuel:    flat(units.MMBtu(0.01)),
	}
	unit := types.CHPSpec{InstalledCost: units.DollarsPerKW(1000), OMCost: units.DollarsPerKWh(0.01)}

	r, err := Evaluate(tr, s, s, unit, types.TESSpec{}, 0)
	require.NoError(t, err)
	assert.False(t, r.PaysBack)
	assert.Zero(t, r.SimplePayback)
	assert.True(t, r.TESInstalled.IsZero())
	assert.True(t, r.ExportRevenue.IsZero())
}

func TestEvaluateInvalidIncentive(t *testing.T) {
	_, err := Evaluate(basicTariffs(t, 0), summary.Summary{}, summary.Summary{}, types.CHPSpec{}, types.TESSpec{}, 1.5)
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestPaybackModel(t *testing.T) {
	m := PaybackModel{
		BaselineThermalCost:    1000,
		BaselineElectricalCost: 2000,
		CHPInstalled:           10000,
		CHPOM:                  100,
		TESCostPerKWh:          10,
	}
	// savings 200 + 1000 less 100 O&M against 10000 + 100*10 installed
	assert.InDelta(t, 10.0, m.Payback(800, 1000, 100, 0), 1e-9)
	assert.InDelta(t, 5.0, m.Payback(800, 1000, 100, 0.5), 1e-9)
	assert.Less(t, m.Payback(1500, 2000, 0, 0), 0.0)
	assert.True(t, math.IsNaN(m.Payback(1000, 1900, 0, 0)))
}
