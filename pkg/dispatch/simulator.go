package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cogenplan/cogenplan/pkg/log"
	"github.com/cogenplan/cogenplan/pkg/types"
	"github.com/cogenplan/cogenplan/pkg/units"
)

// consistencyTolerance is the heat rate (kWth) by which CHP heat plus
// storage discharge may exceed demand before the run is aborted.
const consistencyTolerance = 1e-4

// Simulator runs the hour-by-hour energy balance of a sized CHP unit,
// thermal store and auxiliary boiler. A Simulator holds no state between
// runs, so one value can serve concurrent runs.
type Simulator struct {
	CHP    types.CHPSpec
	Boiler types.AuxBoilerSpec
	TES    types.TESSpec
	// NetMetering lets TLF sell surplus electricity.
	NetMetering bool
}

// Run simulates every hour of demand in order under mode. The store
// carries its charge from one hour to the next; nothing looks ahead.
func (s Simulator) Run(ctx context.Context, mode types.Mode, demand types.Demand) (types.DispatchResult, error) {
	if err := s.TES.Validate(); err != nil {
		return types.DispatchResult{}, err
	}
	if err := s.Boiler.Validate(); err != nil {
		return types.DispatchResult{}, err
	}

	store := newStorage(s.TES)
	abCapacity := s.Boiler.Capacity.As(units.EnergyRate)
	abMin := s.Boiler.MinOutput()

	result := types.DispatchResult{
		Mode:        mode,
		CHPCapacity: s.CHP.Capacity.As(units.Power),
		TESCapacity: store.capacity,
		Hours:       make([]types.HourDispatch, demand.Hours()),
	}

	var ventedHours, clampedHours int
	for h := range demand.Hours() {
		if h%24 == 0 {
			if err := ctx.Err(); err != nil {
				return types.DispatchResult{}, err
			}
		}

		gen := Generate(mode, s.CHP, demand, h, s.NetMetering)
		thDemand := demand.Thermal(h)
		flow := store.step(gen.Thermal.Sub(thDemand))

		contribution := units.Min(gen.Thermal, thDemand)
		discharge := units.Max(flow.rate.Neg(), units.KWth(0))
		if err := checkBalance(h, gen.Thermal, discharge, thDemand); err != nil {
			return types.DispatchResult{}, err
		}

		ab := units.Max(thDemand.Sub(contribution).Sub(discharge), units.KWth(0))
		if ab.IsPositive() && ab.Less(abMin) {
			ab = abMin
			clampedHours++
		}
		if ab.Value() > abCapacity.Value()+1e-9 {
			return types.DispatchResult{}, &CapacityError{Hour: h, Required: ab, Capacity: abCapacity}
		}
		if flow.vented.IsPositive() {
			ventedHours++
		}

		result.Hours[h] = types.HourDispatch{
			CHPElectrical: gen.Electrical,
			CHPThermal:    gen.Thermal,
			TESFlow:       flow.rate,
			TESSOC:        store.soc(),
			ABOutput:      ab,
			Bought:        gen.Bought,
			Sold:          gen.Sold,
			Vented:        flow.vented,
		}
	}

	log.Ctx(ctx).DebugContext(
		ctx,
		"dispatch simulated",
		slog.String("mode", mode.String()),
		slog.Float64("chpKW", result.CHPCapacity.KW()),
		slog.Float64("tesKWH", result.TESCapacity.KWh()),
		slog.Int("ventedHours", ventedHours),
		slog.Int("boilerClampedHours", clampedHours),
	)
	return result, nil
}

// MustRun is like Run but panics on error. It is meant for tests and
// fixtures whose inputs are known to be valid.
func (s Simulator) MustRun(mode types.Mode, demand types.Demand) types.DispatchResult {
	r, err := s.Run(context.Background(), mode, demand)
	if err != nil {
		panic(fmt.Sprintf("dispatch: %v", err))
	}
	return r
}

// checkBalance fails when CHP heat and store discharge together exceed the
// demand of hour h. The store only discharges to cover a CHP shortfall, so
// the raw CHP output is counted whenever discharge is positive.
func checkBalance(h int, chpThermal, discharge, demand units.Quantity) error {
	supplied := units.Min(chpThermal, demand)
	if discharge.IsPositive() {
		supplied = chpThermal.Add(discharge)
	}
	if supplied.Value() > demand.Value()+consistencyTolerance {
		return &ConsistencyError{Hour: h, Supplied: supplied, Demand: demand}
	}
	return nil
}
