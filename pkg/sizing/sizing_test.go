package sizing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogenplan/cogenplan/pkg/chp"
	"github.com/cogenplan/cogenplan/pkg/dispatch"
	"github.com/cogenplan/cogenplan/pkg/types"
	"github.com/cogenplan/cogenplan/pkg/units"
)

var linearCurve = chp.MustCurve(chp.Coefficients{
	Thermal: chp.Polynomial{0, 2},
	Fuel:    chp.Polynomial{0, 3},
	Inverse: chp.Polynomial{0, 0.5},
})

func makeDemand(t *testing.T, el, th func(h int) float64) types.Demand {
	t.Helper()
	elSeries := make([]units.Quantity, types.HoursPerYear)
	thSeries := make([]units.Quantity, types.HoursPerYear)
	for h := range types.HoursPerYear {
		elSeries[h] = units.KW(el(h))
		thSeries[h] = units.KWth(th(h))
	}
	d, err := types.NewDemand(elSeries, thSeries)
	require.NoError(t, err)
	return d
}

func dayNight(day, night float64) func(int) float64 {
	return func(h int) float64 {
		if h%24 < 12 {
			return day
		}
		return night
	}
}

func engine() Engine {
	return Engine{
		CHP:            types.CHPSpec{Curve: linearCurve},
		Boiler:         types.AuxBoilerSpec{Capacity: units.KWth(200), Efficiency: 0.8},
		GridEfficiency: 0.33,
		PeakCandidates: []units.Quantity{units.KW(10), units.KW(20), units.KW(30)},
	}
}

func kws(vals ...float64) []units.Quantity {
	out := make([]units.Quantity, len(vals))
	for i, v := range vals {
		out[i] = units.KW(v)
	}
	return out
}

func TestMaxRectangle(t *testing.T) {
	t.Run("step profile", func(t *testing.T) {
		got := MaxRectangle(kws(10, 10, 10, 5, 5, 5, 5, 5))
		assert.Equal(t, units.KW(5), got)
	})

	t.Run("order does not matter", func(t *testing.T) {
		got := MaxRectangle(kws(5, 10, 5, 10, 5, 5, 10, 5))
		assert.Equal(t, units.KW(5), got)
	})

	t.Run("short peak", func(t *testing.T) {
		// 1/4 * 100 = 25 beats 4/4 * 1
		assert.Equal(t, units.KW(25), MaxRectangle(kws(100, 1, 1, 1)))
	})

	t.Run("flat profile", func(t *testing.T) {
		assert.Equal(t, units.KW(7), MaxRectangle(kws(7, 7, 7)))
	})

	t.Run("keeps dimension", func(t *testing.T) {
		got := MaxRectangle([]units.Quantity{units.KWth(4), units.KWth(4)})
		assert.Equal(t, units.EnergyRate, got.Dim())
	})

	t.Run("does not reorder input", func(t *testing.T) {
		in := kws(1, 3, 2)
		MaxRectangle(in)
		assert.Equal(t, kws(1, 3, 2), in)
	})
}

func TestSizeCHP(t *testing.T) {
	ctx := context.Background()
	demand := makeDemand(t, dayNight(30, 10), dayNight(60, 20))
	e := engine()

	t.Run("ELF", func(t *testing.T) {
		size, err := e.SizeCHP(ctx, types.ModeELF, demand)
		require.NoError(t, err)
		// half the hours at 30 gives 15, every hour at 10 gives 10
		assert.InDelta(t, 15.0, size.KW(), 1e-9)
	})

	t.Run("TLF", func(t *testing.T) {
		size, err := e.SizeCHP(ctx, types.ModeTLF, demand)
		require.NoError(t, err)
		// thermal rectangle is 30 kWth, half of that in kW
		assert.InDelta(t, 15.0, size.KW(), 1e-9)
	})

	t.Run("Peak picks minimum PES", func(t *testing.T) {
		e := engine()
		e.CHP.Curve = chp.MustCurve(chp.DefaultCoefficients())
		e.PeakCandidates = types.Scenario{CHP: types.CHPSettings{CandidateMinKW: 10, CandidateMaxKW: 100, CandidateStepKW: 5}}.PeakCandidates()
		size, err := e.SizeCHP(ctx, types.ModePeak, demand)
		require.NoError(t, err)

		minPES := 2.0
		for _, c := range e.PeakCandidates {
			pes, ok := PES(e.CHP.Curve, c, e.Boiler.Efficiency, e.GridEfficiency)
			require.True(t, ok)
			minPES = min(minPES, pes)
		}
		pes, _ := PES(e.CHP.Curve, size, e.Boiler.Efficiency, e.GridEfficiency)
		assert.Equal(t, minPES, pes)
	})

	t.Run("Peak rejects zero grid efficiency", func(t *testing.T) {
		e := engine()
		e.GridEfficiency = 0
		_, err := e.SizeCHP(ctx, types.ModePeak, demand)
		assert.ErrorIs(t, err, types.ErrInvalidConfig)
	})

	t.Run("Peak rejects zero boiler efficiency", func(t *testing.T) {
		e := engine()
		e.Boiler.Efficiency = 0
		_, err := e.SizeCHP(ctx, types.ModePeak, demand)
		assert.ErrorIs(t, err, types.ErrInvalidConfig)
	})

	t.Run("Peak without candidates", func(t *testing.T) {
		e := engine()
		e.PeakCandidates = nil
		_, err := e.SizeCHP(ctx, types.ModePeak, demand)
		assert.ErrorIs(t, err, ErrNoCandidates)
	})

	t.Run("idempotent", func(t *testing.T) {
		for _, mode := range types.AllModes {
			a, err := e.SizeCHP(ctx, mode, demand)
			require.NoError(t, err)
			b, err := e.SizeCHP(ctx, mode, demand)
			require.NoError(t, err)
			assert.Equal(t, a, b, mode.String())
		}
	})
}

func TestPES(t *testing.T) {
	// ηel = 1/3, ηth = 2/3
	pes, ok := PES(linearCurve, units.KW(10), 0.8, 0.33)
	require.True(t, ok)
	assert.InDelta(t, 1-1/((2.0/3)/0.8+(1.0/3)/0.33), pes, 1e-12)

	_, ok = PES(linearCurve, units.KW(0), 0.8, 0.33)
	assert.False(t, ok)
}

func TestSizeTES(t *testing.T) {
	ctx := context.Background()
	e := engine()

	t.Run("balanced day", func(t *testing.T) {
		// a 25 kW unit makes 50 kWth by day, 10 kWth by night
		demand := makeDemand(t, dayNight(30, 5), dayNight(40, 20))
		size, err := e.SizeTES(ctx, types.ModeELF, units.KW(25), demand)
		require.NoError(t, err)
		assert.InDelta(t, 120.0, size.KWh(), 1e-9)

		// storage of that size leaves nothing for the boiler
		sim := dispatch.Simulator{
			CHP:    e.CHP.WithCapacity(units.KW(25)),
			Boiler: e.Boiler,
			TES:    types.TESSpec{}.WithCapacity(size, 0),
		}
		r, err := sim.Run(ctx, types.ModeELF, demand)
		require.NoError(t, err)
		var ab, vented float64
		for _, hd := range r.Hours {
			ab += hd.ABOutput.KWth()
			vented += hd.Vented.KWth()
		}
		assert.InDelta(t, 0.0, ab, 1e-6)
		assert.InDelta(t, 0.0, vented, 1e-6)
	})

	t.Run("limited by deficit", func(t *testing.T) {
		// surplus 10 kWth by day, deficit 2 kWth by night
		demand := makeDemand(t, dayNight(30, 5), dayNight(40, 12))
		size, err := e.SizeTES(ctx, types.ModeELF, units.KW(25), demand)
		require.NoError(t, err)
		assert.InDelta(t, 24.0, size.KWh(), 1e-9)
	})

	t.Run("TLF never has surplus", func(t *testing.T) {
		demand := makeDemand(t, dayNight(30, 5), dayNight(40, 20))
		size, err := e.SizeTES(ctx, types.ModeTLF, units.KW(25), demand)
		require.NoError(t, err)
		assert.Equal(t, 0.0, size.KWh())
	})

	t.Run("zero chp", func(t *testing.T) {
		demand := makeDemand(t, dayNight(30, 5), dayNight(40, 20))
		size, err := e.SizeTES(ctx, types.ModeELF, units.KW(0), demand)
		require.NoError(t, err)
		assert.Equal(t, units.KWh(0), size)
	})

	t.Run("idempotent", func(t *testing.T) {
		demand := makeDemand(t, dayNight(30, 5), dayNight(40, 20))
		a, err := e.SizeTES(ctx, types.ModePeak, units.KW(20), demand)
		require.NoError(t, err)
		b, err := e.SizeTES(ctx, types.ModePeak, units.KW(20), demand)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}
