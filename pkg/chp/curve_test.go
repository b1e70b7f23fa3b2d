package chp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogenplan/cogenplan/pkg/units"
)

func TestPolynomialEval(t *testing.T) {
	p := Polynomial{1, 2, 3}
	assert.Equal(t, 1.0, p.Eval(0))
	assert.Equal(t, 6.0, p.Eval(1))
	assert.Equal(t, 17.0, p.Eval(2))
	assert.Equal(t, 0.0, Polynomial(nil).Eval(5))
}

func TestDefaultCurve(t *testing.T) {
	curve, err := NewCurve(DefaultCoefficients())
	require.NoError(t, err)

	t.Run("zero in zero out", func(t *testing.T) {
		assert.Equal(t, units.KWth(0), curve.ElectricalToThermal(units.KW(0)))
		assert.Equal(t, units.KWth(0), curve.ElectricalToFuel(units.KW(0)))
		assert.Equal(t, units.KW(0), curve.ThermalToElectrical(units.KWth(0)))
	})

	t.Run("reference values", func(t *testing.T) {
		th := curve.ElectricalToThermal(units.KW(50))
		assert.InDelta(t, -0.0216*2500+3.6225*50+5.0367, th.KWth(), 1e-9)
		fuel := curve.ElectricalToFuel(units.KW(50))
		assert.InDelta(t, 3.309*50+20.525, fuel.KWth(), 1e-9)
	})

	t.Run("inverse is increasing", func(t *testing.T) {
		low := curve.ThermalToElectrical(curve.ElectricalToThermal(units.KW(30)))
		high := curve.ThermalToElectrical(curve.ElectricalToThermal(units.KW(50)))
		assert.True(t, high.Greater(low))
	})
}

func TestDerivedInverse(t *testing.T) {
	curve, err := NewCurve(Coefficients{
		Thermal:       Polynomial{0, 2},
		Fuel:          Polynomial{0, 3},
		MaxElectrical: 100,
	})
	require.NoError(t, err)
	assert.InDelta(t, 25.0, curve.ThermalToElectrical(units.KWth(50)).KW(), 1e-9)
	inv := curve.Coefficients().Inverse
	require.Len(t, inv, 2)
	assert.InDelta(t, 0.5, inv[1], 1e-9)
}

func TestNegativeInverseClamps(t *testing.T) {
	curve := MustCurve(Coefficients{
		Thermal: Polynomial{0, 2},
		Fuel:    Polynomial{0, 3},
		Inverse: Polynomial{-5, 0.5},
	})
	assert.Equal(t, 0.0, curve.ThermalToElectrical(units.KWth(4)).KW())
	assert.Equal(t, 5.0, curve.ThermalToElectrical(units.KWth(20)).KW())
}

func TestNewCurveErrors(t *testing.T) {
	_, err := NewCurve(Coefficients{Fuel: Polynomial{1}})
	assert.Error(t, err)

	_, err = NewCurve(Coefficients{Thermal: Polynomial{1, 2}, Fuel: Polynomial{1, 2, 3}})
	assert.Error(t, err)

	_, err = NewCurve(Coefficients{Thermal: Polynomial{0, 2}, Fuel: Polynomial{0, 3}})
	assert.Error(t, err, "inverse cannot be derived without a max output")

	curve, err := NewCurve(Coefficients{Thermal: Polynomial{0, 2}, Fuel: Polynomial{0, 3}, Inverse: Polynomial{0, 0.5}})
	require.NoError(t, err)
	assert.Equal(t, 5.0, curve.ThermalToElectrical(units.KWth(10)).KW())
}

func TestFit(t *testing.T) {
	var points []PartLoadPoint
	for _, p := range []float64{20, 40, 60, 80, 100} {
		points = append(points, PartLoadPoint{
			Electrical: p,
			Thermal:    1 + 2*p - 0.01*p*p,
			Fuel:       10 + 3*p,
		})
	}
	c, err := Fit(points)
	require.NoError(t, err)
	require.Len(t, c.Thermal, 3)
	assert.InDelta(t, 1.0, c.Thermal[0], 1e-6)
	assert.InDelta(t, 2.0, c.Thermal[1], 1e-6)
	assert.InDelta(t, -0.01, c.Thermal[2], 1e-8)
	assert.InDelta(t, 10.0, c.Fuel[0], 1e-6)
	assert.InDelta(t, 3.0, c.Fuel[1], 1e-8)
	assert.Equal(t, 100.0, c.MaxElectrical)
	require.Len(t, c.Inverse, 2)
	assert.Greater(t, c.Inverse[1], 0.0)

	_, err = Fit(points[:2])
	assert.ErrorIs(t, err, ErrInsufficientData)
}
