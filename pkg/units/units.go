package units

import (
	"fmt"
	"math"
)

// Dimension tags a Quantity with the physical or monetary quantity it
// measures. Arithmetic between mismatched dimensions panics.
type Dimension int

const (
	Dimensionless Dimension = iota
	// Power is electrical power, stored in kW.
	Power
	// EnergyRate is a thermal power (heat rate), stored in kW thermal.
	EnergyRate
	// Energy is stored in kWh. Electrical and thermal energy share it.
	Energy
	// Time is stored in hours.
	Time
	// Currency is stored in USD.
	Currency
	// CurrencyRate is a price per unit energy, stored in USD/kWh.
	CurrencyRate
	// CurrencyPerPower is a price per unit capacity, stored in USD/kW.
	CurrencyPerPower
	// Mass is stored in pounds.
	Mass
	// EmissionFactor is mass per unit energy, stored in lb/kWh.
	EmissionFactor
)

func (d Dimension) String() string {
	switch d {
	case Dimensionless:
		return "dimensionless"
	case Power:
		return "power"
	case EnergyRate:
		return "energy_rate"
	case Energy:
		return "energy"
	case Time:
		return "time"
	case Currency:
		return "currency"
	case CurrencyRate:
		return "currency_rate"
	case CurrencyPerPower:
		return "currency_per_power"
	case Mass:
		return "mass"
	case EmissionFactor:
		return "emission_factor"
	default:
		return fmt.Sprintf("dimension(%d)", int(d))
	}
}

const (
	// BtuPerKWh is the number of Btu in one kWh.
	BtuPerKWh   = 3412.141633
	btuPerMMBtu = 1e6
)

// Quantity is a magnitude tagged with its Dimension. The zero value is a
// dimensionless zero.
type Quantity struct {
	value float64
	dim   Dimension
}

// New returns a Quantity with the given magnitude in the canonical unit
// of dim.
func New(v float64, dim Dimension) Quantity {
	return Quantity{value: v, dim: dim}
}

// Zero returns a zero-valued Quantity of the given dimension.
func Zero(dim Dimension) Quantity {
	return Quantity{dim: dim}
}

// Scalar returns a dimensionless quantity.
func Scalar(v float64) Quantity { return Quantity{v, Dimensionless} }

// KW returns an electrical power in kW.
func KW(v float64) Quantity { return Quantity{v, Power} }

// KWth returns a heat rate in kW thermal.
func KWth(v float64) Quantity { return Quantity{v, EnergyRate} }

// BtuPerHour returns a heat rate given in Btu/h.
func BtuPerHour(v float64) Quantity { return Quantity{v / BtuPerKWh, EnergyRate} }

// KWh returns an energy in kWh.
func KWh(v float64) Quantity { return Quantity{v, Energy} }

// Btu returns an energy given in Btu.
func Btu(v float64) Quantity { return Quantity{v / BtuPerKWh, Energy} }

// MMBtu returns an energy given in MMBtu.
func MMBtu(v float64) Quantity { return Quantity{v * btuPerMMBtu / BtuPerKWh, Energy} }

// Hours returns a duration in hours.
func Hours(v float64) Quantity { return Quantity{v, Time} }

// Dollars returns an amount of money.
func Dollars(v float64) Quantity { return Quantity{v, Currency} }

// DollarsPerKWh returns an energy price.
func DollarsPerKWh(v float64) Quantity { return Quantity{v, CurrencyRate} }

// DollarsPerMMBtu returns a fuel price, stored per kWh.
func DollarsPerMMBtu(v float64) Quantity { return Quantity{v * BtuPerKWh / btuPerMMBtu, CurrencyRate} }

// DollarsPerKW returns a capacity price such as installed cost.
func DollarsPerKW(v float64) Quantity { return Quantity{v, CurrencyPerPower} }

// Pounds returns a mass in lb.
func Pounds(v float64) Quantity { return Quantity{v, Mass} }

// PoundsPerMWh returns an emission factor given in lb/MWh.
func PoundsPerMWh(v float64) Quantity { return Quantity{v / 1000, EmissionFactor} }

// PoundsPerMMBtu returns an emission factor given in lb/MMBtu.
func PoundsPerMMBtu(v float64) Quantity { return Quantity{v * BtuPerKWh / btuPerMMBtu, EmissionFactor} }

// Value returns the magnitude in the canonical unit of the dimension.
func (q Quantity) Value() float64 { return q.value }

// Dim returns the dimension tag.
func (q Quantity) Dim() Dimension { return q.dim }

func (q Quantity) must(dim Dimension) float64 {
	if q.dim != dim {
		panic(fmt.Sprintf("units: expected %s, got %s", dim, q.dim))
	}
	return q.value
}

// KW returns q in kW. It panics unless q is a Power.
func (q Quantity) KW() float64 { return q.must(Power) }

// KWth returns q in kW thermal. It panics unless q is an EnergyRate.
func (q Quantity) KWth() float64 { return q.must(EnergyRate) }

// BtuPerHour returns q in Btu/h. It panics unless q is an EnergyRate.
func (q Quantity) BtuPerHour() float64 { return q.must(EnergyRate) * BtuPerKWh }

// KWh returns q in kWh. It panics unless q is an Energy.
func (q Quantity) KWh() float64 { return q.must(Energy) }

// Btu returns q in Btu. It panics unless q is an Energy.
func (q Quantity) Btu() float64 { return q.must(Energy) * BtuPerKWh }

// MMBtu returns q in MMBtu. It panics unless q is an Energy.
func (q Quantity) MMBtu() float64 { return q.must(Energy) * BtuPerKWh / btuPerMMBtu }

// Hours returns q in hours. It panics unless q is a Time.
func (q Quantity) Hours() float64 { return q.must(Time) }

// Dollars returns q in $. It panics unless q is a Currency.
func (q Quantity) Dollars() float64 { return q.must(Currency) }

// Pounds returns q in lb. It panics unless q is a Mass.
func (q Quantity) Pounds() float64 { return q.must(Mass) }

// Scalar returns q as a plain number. It panics unless q is Dimensionless.
func (q Quantity) Scalar() float64 { return q.must(Dimensionless) }

func sameDim(op string, a, b Quantity) {
	if a.dim != b.dim {
		panic(fmt.Sprintf("units: %s of %s and %s", op, a.dim, b.dim))
	}
}

// Add returns q + o. Both must share a dimension.
func (q Quantity) Add(o Quantity) Quantity {
	sameDim("add", q, o)
	return Quantity{q.value + o.value, q.dim}
}

// Sub returns q - o. Both must share a dimension.
func (q Quantity) Sub(o Quantity) Quantity {
	sameDim("sub", q, o)
	return Quantity{q.value - o.value, q.dim}
}

// Scale multiplies the magnitude by a plain factor.
func (q Quantity) Scale(f float64) Quantity {
	return Quantity{q.value * f, q.dim}
}

func (q Quantity) Neg() Quantity { return Quantity{-q.value, q.dim} }
func (q Quantity) Abs() Quantity { return Quantity{math.Abs(q.value), q.dim} }

func (q Quantity) IsZero() bool { return q.value == 0 }
func (q Quantity) IsPositive() bool { return q.value > 0 }
func (q Quantity) IsNegative() bool { return q.value < 0 }

// Cmp returns -1, 0 or 1 comparing q to o.
func (q Quantity) Cmp(o Quantity) int {
	sameDim("compare", q, o)
	switch {
	case q.value < o.value:
		return -1
	case q.value > o.value:
		return 1
	default:
		return 0
	}
}

func (q Quantity) Less(o Quantity) bool { return q.Cmp(o) < 0 }
func (q Quantity) Greater(o Quantity) bool { return q.Cmp(o) > 0 }

// Ratio returns q / o as a plain number. Both must share a dimension.
func (q Quantity) Ratio(o Quantity) float64 {
	sameDim("ratio", q, o)
	return q.value / o.value
}

// Max returns the larger of a and b.
func Max(a, b Quantity) Quantity {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// Min returns the smaller of a and b.
func Min(a, b Quantity) Quantity {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Sum adds up qs, returning a zero of dim when qs is empty.
func Sum(dim Dimension, qs []Quantity) Quantity {
	total := Zero(dim)
	for _, q := range qs {
		total = total.Add(q)
	}
	return total
}

var products = map[[2]Dimension]Dimension{
	{Power, Time}:             Energy,
	{EnergyRate, Time}:        Energy,
	{Energy, CurrencyRate}:    Currency,
	{Power, CurrencyPerPower}: Currency,
	{Energy, EmissionFactor}:  Mass,
}

// Mul multiplies two quantities. Only products with a defined result
// dimension are allowed; anything else panics.
func (q Quantity) Mul(o Quantity) Quantity {
	if q.dim == Dimensionless {
		return Quantity{q.value * o.value, o.dim}
	}
	if o.dim == Dimensionless {
		return Quantity{q.value * o.value, q.dim}
	}
	if d, ok := products[[2]Dimension{q.dim, o.dim}]; ok {
		return Quantity{q.value * o.value, d}
	}
	if d, ok := products[[2]Dimension{o.dim, q.dim}]; ok {
		return Quantity{q.value * o.value, d}
	}
	panic(fmt.Sprintf("units: undefined product %s * %s", q.dim, o.dim))
}

var quotients = map[[2]Dimension]Dimension{
	{Currency, Energy}:   CurrencyRate,
	{Currency, Power}:    CurrencyPerPower,
	{Mass, Energy}:       EmissionFactor,
	{Energy, Power}:      Time,
	{Energy, EnergyRate}: Time,
}

// Div divides q by o. Same dimensions give a dimensionless ratio.
// Energy/Time is ambiguous and must go through PerHourAsPower or
// PerHourAsHeatRate.
func (q Quantity) Div(o Quantity) Quantity {
	if q.dim == o.dim {
		return Quantity{q.value / o.value, Dimensionless}
	}
	if o.dim == Dimensionless {
		return Quantity{q.value / o.value, q.dim}
	}
	if d, ok := quotients[[2]Dimension{q.dim, o.dim}]; ok {
		return Quantity{q.value / o.value, d}
	}
	panic(fmt.Sprintf("units: undefined quotient %s / %s", q.dim, o.dim))
}

// AsHeatRate reinterprets an electrical power as a heat rate.
func (q Quantity) AsHeatRate() Quantity {
	return Quantity{q.must(Power), EnergyRate}
}

// AsPower reinterprets a heat rate as an electrical power.
func (q Quantity) AsPower() Quantity {
	return Quantity{q.must(EnergyRate), Power}
}

// PerHourAsPower returns the constant electrical power that delivers
// this energy over one hour.
func (q Quantity) PerHourAsPower() Quantity {
	return Quantity{q.must(Energy), Power}
}

// PerHourAsHeatRate returns the constant heat rate that delivers this
// energy over one hour.
func (q Quantity) PerHourAsHeatRate() Quantity {
	return Quantity{q.must(Energy), EnergyRate}
}

func (q Quantity) String() string {
	switch q.dim {
	case Dimensionless:
		return fmt.Sprintf("%g", q.value)
	case Power:
		return fmt.Sprintf("%g kW", q.value)
	case EnergyRate:
		return fmt.Sprintf("%g kWth", q.value)
	case Energy:
		return fmt.Sprintf("%g kWh", q.value)
	case Time:
		return fmt.Sprintf("%g h", q.value)
	case Currency:
		return fmt.Sprintf("$%.2f", q.value)
	case CurrencyRate:
		return fmt.Sprintf("$%g/kWh", q.value)
	case CurrencyPerPower:
		return fmt.Sprintf("$%g/kW", q.value)
	case Mass:
		return fmt.Sprintf("%g lb", q.value)
	case EmissionFactor:
		return fmt.Sprintf("%g lb/kWh", q.value)
	default:
		return fmt.Sprintf("%g %s", q.value, q.dim)
	}
}

// As returns q checked against dim. The zero Quantity is accepted as a
// zero of any dimension, so unset struct fields read as zero.
func (q Quantity) As(dim Dimension) Quantity {
	if q.dim == Dimensionless && q.value == 0 {
		return Zero(dim)
	}
	q.must(dim)
	return q
}
