package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogenplan/cogenplan/pkg/chp"
	"github.com/cogenplan/cogenplan/pkg/dispatch"
	"github.com/cogenplan/cogenplan/pkg/types"
	"github.com/cogenplan/cogenplan/pkg/units"
)

func demand(t *testing.T, el, th float64) types.Demand {
	t.Helper()
	elSeries := make([]units.Quantity, types.HoursPerYear)
	thSeries := make([]units.Quantity, types.HoursPerYear)
	for h := range types.HoursPerYear {
		elSeries[h] = units.KW(el)
		if h%24 < 12 {
			elSeries[h] = units.KW(el * 2)
		}
		thSeries[h] = units.KWth(th)
	}
	d, err := types.NewDemand(elSeries, thSeries)
	require.NoError(t, err)
	return d
}

func TestReduce(t *testing.T) {
	d := demand(t, 10, 40)
	unit := types.CHPSpec{
		Capacity: units.KW(15),
		Curve: chp.MustCurve(chp.Coefficients{
			Thermal: chp.Polynomial{0, 2},
			Fuel:    chp.Polynomial{1, 3},
			Inverse: chp.Polynomial{0, 0.5},
		}),
	}
	boiler := types.AuxBoilerSpec{Capacity: units.KWth(100), Efficiency: 0.8}
	r := dispatch.Simulator{CHP: unit, Boiler: boiler, TES: types.TESSpec{}}.MustRun(types.ModeELF, d)

	s := Reduce(d, r, unit, boiler)

	days := float64(types.HoursPerYear / 24)
	// day: 20 demanded, 15 generated, 5 bought. night: 10 generated.
	assert.InDelta(t, days*(12*15+12*10), s.CHPElectrical.KWh(), 1e-6)
	assert.InDelta(t, days*12*5, s.ElectricityBought.KWh(), 1e-6)
	assert.Equal(t, 0.0, s.ElectricitySold.KWh())
	assert.InDelta(t, days*(12*30+12*20), s.CHPThermal.KWh(), 1e-6)
	assert.InDelta(t, days*(12*(1+45)+12*(1+30)), s.CHPFuel.KWh(), 1e-6)
	assert.Equal(t, types.HoursPerYear, s.CHPRunHours)

	// boiler covers 10 kWth by day and 20 by night
	assert.InDelta(t, days*(12*10+12*20), s.BoilerOutput.KWh(), 1e-6)
	assert.InDelta(t, s.BoilerOutput.KWh()/0.8, s.BoilerFuel.KWh(), 1e-6)
	assert.InDelta(t, s.CHPFuel.KWh()+s.BoilerFuel.KWh(), s.TotalFuel().KWh(), 1e-9)
	assert.Equal(t, 0.0, s.TESThroughput().KWh())

	require.Len(t, s.HourlyFuel, types.HoursPerYear)
	assert.InDelta(t, 46+12.5, s.HourlyFuel[0].KWh(), 1e-9)
	assert.InDelta(t, 5.0, s.HourlyBought[0].KWh(), 1e-9)
}

func TestBaseline(t *testing.T) {
	d := demand(t, 10, 40)
	boiler := types.AuxBoilerSpec{Capacity: units.KWth(100), Efficiency: 0.8}
	s := Baseline(d, boiler)

	assert.InDelta(t, d.AnnualElectrical().KWh(), s.ElectricityBought.KWh(), 1e-6)
	assert.InDelta(t, 40.0*types.HoursPerYear, s.BoilerOutput.KWh(), 1e-6)
	assert.InDelta(t, 50.0*types.HoursPerYear, s.BoilerFuel.KWh(), 1e-6)
	assert.Equal(t, 0.0, s.CHPElectrical.KWh())
	assert.InDelta(t, 50.0, s.HourlyFuel[5].KWh(), 1e-9)
}
