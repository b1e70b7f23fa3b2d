package types

import (
	"fmt"

	"github.com/cogenplan/cogenplan/pkg/chp"
	"github.com/cogenplan/cogenplan/pkg/units"
)

// CHPSpec describes a combined heat and power unit.
type CHPSpec struct {
	// Capacity is the rated electrical output. It is zero until sized.
	Capacity units.Quantity
	// TurndownRatio is capacity over minimum stable output. Zero disables
	// the lower bound.
	TurndownRatio float64
	Curve         chp.Curve
	// AvailableHours limits how many hours of the year the unit may run in
	// Peak mode. Zero means the whole year.
	AvailableHours int
	InstalledCost  units.Quantity
	OMCost         units.Quantity
}

// MinOutput returns the minimum stable electrical output.
func (c CHPSpec) MinOutput() units.Quantity {
	if c.TurndownRatio == 0 {
		return units.KW(0)
	}
	return c.Capacity.As(units.Power).Scale(1 / c.TurndownRatio)
}

// WithCapacity returns a copy of c sized to capacity.
func (c CHPSpec) WithCapacity(capacity units.Quantity) CHPSpec {
	c.Capacity = units.KW(capacity.KW())
	return c
}

// RunHours returns the number of hours the unit is allowed to run.
func (c CHPSpec) RunHours() int {
	if c.AvailableHours <= 0 || c.AvailableHours > HoursPerYear {
		return HoursPerYear
	}
	return c.AvailableHours
}

// Validate checks the parameters that do not depend on sizing.
func (c CHPSpec) Validate() error {
	if c.TurndownRatio < 0 {
		return fmt.Errorf("%w: chp turndown ratio must not be negative", ErrInvalidConfig)
	}
	if c.TurndownRatio > 0 && c.TurndownRatio < 1 {
		return fmt.Errorf("%w: chp turndown ratio must be at least 1", ErrInvalidConfig)
	}
	if c.AvailableHours < 0 || c.AvailableHours > HoursPerYear {
		return fmt.Errorf("%w: chp available hours must be between 0 and %d", ErrInvalidConfig, HoursPerYear)
	}
	if c.Capacity.IsNegative() {
		return fmt.Errorf("%w: chp capacity must not be negative", ErrInvalidConfig)
	}
	return nil
}

// AuxBoilerSpec describes the auxiliary boiler that covers residual heat.
type AuxBoilerSpec struct {
	Capacity      units.Quantity
	Efficiency    float64
	TurndownRatio float64
}

// MinOutput returns the minimum firing rate.
func (b AuxBoilerSpec) MinOutput() units.Quantity {
	if b.TurndownRatio == 0 {
		return units.KWth(0)
	}
	return b.Capacity.As(units.EnergyRate).Scale(1 / b.TurndownRatio)
}

// Validate checks the boiler parameters.
func (b AuxBoilerSpec) Validate() error {
	if b.Efficiency <= 0 || b.Efficiency > 1 {
		return fmt.Errorf("%w: boiler efficiency must be in (0, 1], got %v", ErrInvalidConfig, b.Efficiency)
	}
	if b.TurndownRatio < 0 {
		return fmt.Errorf("%w: boiler turndown ratio must not be negative", ErrInvalidConfig)
	}
	if b.TurndownRatio > 0 && b.TurndownRatio < 1 {
		return fmt.Errorf("%w: boiler turndown ratio must be at least 1", ErrInvalidConfig)
	}
	if b.Capacity.IsNegative() {
		return fmt.Errorf("%w: boiler capacity must not be negative", ErrInvalidConfig)
	}
	return nil
}

// TESSpec describes a thermal energy store. A zero Capacity passes heat
// straight through.
type TESSpec struct {
	Capacity       units.Quantity
	StartingCharge units.Quantity
	// MaxDischargeRate limits the heat drawn per hour. Zero is unlimited.
	MaxDischargeRate units.Quantity
	InstalledCost    units.Quantity
	OMCost           units.Quantity
}

// WithCapacity returns a copy sized to capacity and charged to startSOC.
func (t TESSpec) WithCapacity(capacity units.Quantity, startSOC float64) TESSpec {
	t.Capacity = units.KWh(capacity.KWh())
	t.StartingCharge = t.Capacity.Scale(min(max(startSOC, 0), 1))
	return t
}

// Validate checks that the starting charge fits in the store.
func (t TESSpec) Validate() error {
	capacity := t.Capacity.As(units.Energy)
	start := t.StartingCharge.As(units.Energy)
	if capacity.IsNegative() {
		return fmt.Errorf("%w: tes capacity must not be negative", ErrInvalidConfig)
	}
	if start.IsNegative() || start.Greater(capacity) {
		return fmt.Errorf("%w: tes starting charge %s outside [0, %s]", ErrInvalidConfig, start, capacity)
	}
	if t.MaxDischargeRate.IsNegative() {
		return fmt.Errorf("%w: tes discharge rate must not be negative", ErrInvalidConfig)
	}
	return nil
}
