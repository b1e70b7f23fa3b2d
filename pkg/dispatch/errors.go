package dispatch

import (
	"errors"
	"fmt"

	"github.com/cogenplan/cogenplan/pkg/units"
)

// ErrFatal matches every error that aborts a simulation run.
var ErrFatal = errors.New("dispatch aborted")

// CapacityError is returned when the auxiliary boiler cannot cover the
// residual heat demand of an hour.
type CapacityError struct {
	Hour     int
	Required units.Quantity
	Capacity units.Quantity
}

// Shortfall is the heat rate the boiler could not supply.
func (e *CapacityError) Shortfall() units.Quantity {
	return e.Required.Sub(e.Capacity)
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("hour %d: boiler output %.3f Btu/h exceeds capacity %.3f Btu/h by %.3f Btu/h",
		e.Hour, e.Required.BtuPerHour(), e.Capacity.BtuPerHour(), e.Shortfall().BtuPerHour())
}

// Is reports whether target is ErrFatal.
func (e *CapacityError) Is(target error) bool {
	return target == ErrFatal
}

// ConsistencyError is returned when CHP heat plus storage discharge
// exceeds the heat demand, which means the dispatch logic is broken.
type ConsistencyError struct {
	Hour     int
	Supplied units.Quantity
	Demand   units.Quantity
}

// Excess is the heat supplied beyond demand.
func (e *ConsistencyError) Excess() units.Quantity {
	return e.Supplied.Sub(e.Demand)
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("hour %d: chp and storage supplied %.3f kWth against demand %.3f kWth",
		e.Hour, e.Supplied.KWth(), e.Demand.KWth())
}

// Is reports whether target is ErrFatal.
func (e *ConsistencyError) Is(target error) bool {
	return target == ErrFatal
}
