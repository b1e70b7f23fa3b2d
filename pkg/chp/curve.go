package chp

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/cogenplan/cogenplan/pkg/units"
)

// ErrInsufficientData is returned by Fit when there are too few part-load
// points to determine the polynomials.
var ErrInsufficientData = errors.New("insufficient part-load data")

// Polynomial holds coefficients in ascending order: p[0] + p[1]x + p[2]x².
type Polynomial []float64

// Eval evaluates the polynomial at x using Horner's method.
func (p Polynomial) Eval(x float64) float64 {
	var y float64
	for i := len(p) - 1; i >= 0; i-- {
		y = y*x + p[i]
	}
	return y
}

// Coefficients describes a CHP unit's part-load behaviour. All values are
// in kW: electrical output on the x axis for Thermal and Fuel, thermal
// output on the x axis for Inverse.
type Coefficients struct {
	Thermal Polynomial `json:"thermal" yaml:"thermal"`
	Fuel    Polynomial `json:"fuel" yaml:"fuel"`
	// Inverse maps thermal output back to electrical output. When empty it
	// is fitted from Thermal over [0, MaxElectrical].
	Inverse       Polynomial `json:"inverse,omitempty" yaml:"inverse,omitempty"`
	MaxElectrical float64    `json:"maxElectrical" yaml:"max_electrical"`
}

// DefaultCoefficients returns the reference microturbine fit.
func DefaultCoefficients() Coefficients {
	return Coefficients{
		Thermal:       Polynomial{5.0367, 3.6225, -0.0216},
		Fuel:          Polynomial{20.525, 3.309},
		MaxElectrical: 100,
	}
}

// Curve maps between electrical output, thermal output and fuel input of
// a CHP unit. A zero input always maps to a zero output and negative
// results are clamped to zero.
type Curve struct {
	thermal Polynomial
	fuel    Polynomial
	inverse Polynomial
}

// NewCurve validates c and returns the Curve it describes.
func NewCurve(c Coefficients) (Curve, error) {
	if len(c.Thermal) == 0 || len(c.Thermal) > 3 {
		return Curve{}, fmt.Errorf("thermal polynomial must have 1 to 3 coefficients, got %d", len(c.Thermal))
	}
	if len(c.Fuel) == 0 || len(c.Fuel) > 2 {
		return Curve{}, fmt.Errorf("fuel polynomial must have 1 or 2 coefficients, got %d", len(c.Fuel))
	}
	curve := Curve{
		thermal: append(Polynomial(nil), c.Thermal...),
		fuel:    append(Polynomial(nil), c.Fuel...),
		inverse: append(Polynomial(nil), c.Inverse...),
	}
	if len(curve.inverse) > 0 {
		return curve, nil
	}
	if c.MaxElectrical <= 0 {
		return Curve{}, errors.New("max electrical output must be positive to derive the inverse curve")
	}

	const samples = 50
	x := make([]float64, samples)
	y := make([]float64, samples)
	for i := range samples {
		p := c.MaxElectrical * float64(i+1) / samples
		x[i] = curve.thermal.Eval(p)
		y[i] = p
	}
	inv, err := leastSquares(x, y, 1)
	if err != nil {
		return Curve{}, fmt.Errorf("error fitting inverse curve: %w", err)
	}
	curve.inverse = inv
	return curve, nil
}

// MustCurve is like NewCurve but panics on error.
func MustCurve(c Coefficients) Curve {
	curve, err := NewCurve(c)
	if err != nil {
		panic(err)
	}
	return curve
}

// Coefficients returns the polynomials backing the curve, including the
// fitted inverse.
func (c Curve) Coefficients() Coefficients {
	return Coefficients{
		Thermal: append(Polynomial(nil), c.thermal...),
		Fuel:    append(Polynomial(nil), c.fuel...),
		Inverse: append(Polynomial(nil), c.inverse...),
	}
}

func eval(p Polynomial, x float64) float64 {
	if x == 0 {
		return 0
	}
	return max(0, p.Eval(x))
}

// ElectricalToThermal returns the recoverable heat at electrical output p.
func (c Curve) ElectricalToThermal(p units.Quantity) units.Quantity {
	return units.KWth(eval(c.thermal, p.KW()))
}

// ElectricalToFuel returns the fuel input rate at electrical output p.
func (c Curve) ElectricalToFuel(p units.Quantity) units.Quantity {
	return units.KWth(eval(c.fuel, p.KW()))
}

// ThermalToElectrical returns the electrical output that produces heat
// rate h.
func (c Curve) ThermalToElectrical(h units.Quantity) units.Quantity {
	return units.KW(eval(c.inverse, h.KWth()))
}

// PartLoadPoint is one row of manufacturer part-load data, all in kW.
type PartLoadPoint struct {
	Electrical float64 `json:"electrical" yaml:"electrical"`
	Thermal    float64 `json:"thermal" yaml:"thermal"`
	Fuel       float64 `json:"fuel" yaml:"fuel"`
}

// Fit derives curve coefficients from part-load data by least squares: a
// second order thermal polynomial, first order fuel and inverse
// polynomials.
func Fit(points []PartLoadPoint) (Coefficients, error) {
	if len(points) < 3 {
		return Coefficients{}, fmt.Errorf("%w: need at least 3 points, got %d", ErrInsufficientData, len(points))
	}
	el := make([]float64, len(points))
	th := make([]float64, len(points))
	fuel := make([]float64, len(points))
	var maxEl float64
	for i, p := range points {
		el[i] = p.Electrical
		th[i] = p.Thermal
		fuel[i] = p.Fuel
		maxEl = max(maxEl, p.Electrical)
	}

	thermal, err := leastSquares(el, th, 2)
	if err != nil {
		return Coefficients{}, fmt.Errorf("error fitting thermal curve: %w", err)
	}
	fuelFit, err := leastSquares(el, fuel, 1)
	if err != nil {
		return Coefficients{}, fmt.Errorf("error fitting fuel curve: %w", err)
	}
	inverse, err := leastSquares(th, el, 1)
	if err != nil {
		return Coefficients{}, fmt.Errorf("error fitting inverse curve: %w", err)
	}
	return Coefficients{
		Thermal:       thermal,
		Fuel:          fuelFit,
		Inverse:       inverse,
		MaxElectrical: maxEl,
	}, nil
}

func leastSquares(x, y []float64, degree int) (Polynomial, error) {
	cols := degree + 1
	a := mat.NewDense(len(x), cols, nil)
	for i, xi := range x {
		v := 1.0
		for j := range cols {
			a.Set(i, j, v)
			v *= xi
		}
	}
	b := mat.NewVecDense(len(y), append([]float64(nil), y...))

	var coef mat.VecDense
	if err := coef.SolveVec(a, b); err != nil {
		return nil, err
	}
	out := make(Polynomial, cols)
	for j := range cols {
		out[j] = coef.AtVec(j)
	}
	return out, nil
}
