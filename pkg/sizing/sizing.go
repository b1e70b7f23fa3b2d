package sizing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/cogenplan/cogenplan/pkg/chp"
	"github.com/cogenplan/cogenplan/pkg/dispatch"
	"github.com/cogenplan/cogenplan/pkg/log"
	"github.com/cogenplan/cogenplan/pkg/types"
	"github.com/cogenplan/cogenplan/pkg/units"
)

// ErrNoCandidates is returned when Peak sizing has no candidate sizes
// that produce a finite PES.
var ErrNoCandidates = errors.New("no usable peak candidate sizes")

// Engine picks CHP and TES sizes for a building. It is pure: the same
// inputs always give the same sizes.
type Engine struct {
	// CHP is the unsized unit; its capacity is ignored.
	CHP            types.CHPSpec
	Boiler         types.AuxBoilerSpec
	GridEfficiency float64
	// PeakCandidates are the electrical sizes evaluated in Peak mode.
	PeakCandidates []units.Quantity
}

// MaxRectangle sorts values in descending order and returns the largest
// product of rank fraction and value, max over i of (i/n)·sorted[i-1].
// The result keeps the dimension of values.
func MaxRectangle(values []units.Quantity) units.Quantity {
	if len(values) == 0 {
		return units.Quantity{}
	}
	sorted := slices.Clone(values)
	slices.SortFunc(sorted, func(a, b units.Quantity) int { return b.Cmp(a) })

	n := float64(len(sorted))
	best := units.Zero(sorted[0].Dim())
	for i, v := range sorted {
		best = units.Max(best, v.Scale(float64(i+1)/n))
	}
	return best
}

// SizeCHP returns the electrical capacity for mode.
func (e Engine) SizeCHP(ctx context.Context, mode types.Mode, demand types.Demand) (units.Quantity, error) {
	switch mode {
	case types.ModeELF:
		size := MaxRectangle(demand.ElectricalSeries())
		log.Ctx(ctx).DebugContext(ctx, "sized chp for electrical load", slog.Float64("kw", size.KW()))
		return size, nil
	case types.ModeTLF:
		thermal := MaxRectangle(demand.ThermalSeries())
		size := e.CHP.Curve.ThermalToElectrical(thermal)
		log.Ctx(ctx).DebugContext(
			ctx,
			"sized chp for thermal load",
			slog.Float64("thermalKW", thermal.KWth()),
			slog.Float64("kw", size.KW()),
		)
		return size, nil
	case types.ModePeak:
		return e.sizePeak(ctx)
	default:
		return units.Quantity{}, fmt.Errorf("%w: unknown mode %v", types.ErrInvalidConfig, mode)
	}
}

func (e Engine) sizePeak(ctx context.Context) (units.Quantity, error) {
	if e.GridEfficiency <= 0 {
		return units.Quantity{}, fmt.Errorf("%w: grid efficiency must be positive", types.ErrInvalidConfig)
	}
	if e.Boiler.Efficiency <= 0 {
		return units.Quantity{}, fmt.Errorf("%w: boiler efficiency must be positive", types.ErrInvalidConfig)
	}

	var best units.Quantity
	bestPES := 0.0
	found := false
	for _, size := range e.PeakCandidates {
		pes, ok := PES(e.CHP.Curve, size, e.Boiler.Efficiency, e.GridEfficiency)
		if !ok {
			continue
		}
		if !found || pes < bestPES {
			best, bestPES, found = size, pes, true
		}
	}
	if !found {
		return units.Quantity{}, ErrNoCandidates
	}
	// minimum, not maximum, savings
	log.Ctx(ctx).WarnContext(
		ctx,
		"peak size selected by minimum primary energy savings",
		slog.Float64("kw", best.KW()),
		slog.Float64("pes", bestPES),
	)
	return best, nil
}

// PES returns the primary energy savings of running a unit at size
// against a boiler and the grid:
//
//	1 - 1/(ηth/ηboiler + ηel/ηgrid)
//
// ok is false when the curve needs no fuel at size.
func PES(curve chp.Curve, size units.Quantity, boilerEff, gridEff float64) (pes float64, ok bool) {
	fuel := curve.ElectricalToFuel(size)
	if !fuel.IsPositive() {
		return 0, false
	}
	thermal := curve.ElectricalToThermal(size)
	elEff := size.KW() / fuel.KWth()
	thEff := thermal.Ratio(fuel)
	nominal := thEff/boilerEff + elEff/gridEff
	if nominal == 0 {
		return 0, false
	}
	return 1 - 1/nominal, true
}

// SizeTES returns the storage capacity for a unit of chpSize under mode.
// It previews the CHP heat output hour by hour, totals the surplus and
// deficit of each day, and keeps the largest daily amount that could be
// shifted from surplus to deficit.
func (e Engine) SizeTES(ctx context.Context, mode types.Mode, chpSize units.Quantity, demand types.Demand) (units.Quantity, error) {
	if chpSize.IsNegative() {
		return units.Quantity{}, fmt.Errorf("%w: chp size must not be negative", types.ErrInvalidConfig)
	}
	if !chpSize.IsPositive() {
		return units.KWh(0), nil
	}
	preview := dispatch.ThermalPreview(mode, e.CHP.WithCapacity(chpSize), demand)

	best := units.KWh(0)
	bestDay := -1
	for start := 0; start+24 <= demand.Hours(); start += 24 {
		excess := units.KWh(0)
		deficit := units.KWh(0)
		for h := start; h < start+24; h++ {
			net := preview[h].Sub(demand.Thermal(h)).Mul(units.Hours(1))
			if net.IsPositive() {
				excess = excess.Add(net)
			} else {
				deficit = deficit.Sub(net)
			}
		}
		if daily := units.Min(excess, deficit); daily.Greater(best) {
			best = daily
			bestDay = start / 24
		}
	}
	log.Ctx(ctx).DebugContext(
		ctx,
		"sized thermal storage",
		slog.String("mode", mode.String()),
		slog.Float64("kwh", best.KWh()),
		slog.Int("day", bestDay),
	)
	return best, nil
}
