// Package analysis runs the full techno-economic evaluation of a scenario:
// sizing, dispatch, costs, emissions and sensitivity for every mode.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cogenplan/cogenplan/pkg/dispatch"
	"github.com/cogenplan/cogenplan/pkg/economics"
	"github.com/cogenplan/cogenplan/pkg/emissions"
	"github.com/cogenplan/cogenplan/pkg/log"
	"github.com/cogenplan/cogenplan/pkg/sensitivity"
	"github.com/cogenplan/cogenplan/pkg/sizing"
	"github.com/cogenplan/cogenplan/pkg/summary"
	"github.com/cogenplan/cogenplan/pkg/types"
	"github.com/cogenplan/cogenplan/pkg/units"
)

// Runner evaluates a scenario against a demand profile.
type Runner struct {
	Scenario types.Scenario
	Demand   types.Demand
	// Modes to evaluate. Empty evaluates every mode.
	Modes []types.Mode
	// SensitivitySamples overrides the scenario's sample count. Negative
	// disables the sensitivity analysis.
	SensitivitySamples int
	// Workers bounds concurrent sensitivity evaluations per mode.
	Workers int

	now func() time.Time
}

// ModeReport is everything computed for one mode. Err is set when the
// mode could not be evaluated; the other fields are then incomplete.
type ModeReport struct {
	Mode        types.Mode
	Err         error
	CHP         types.CHPSpec
	TES         types.TESSpec
	Dispatch    types.DispatchResult
	Summary     summary.Summary
	Economics   economics.Result
	Emissions   emissions.Comparison
	Sensitivity []types.SensitivityIndex
}

// Report is the outcome of one Run.
type Report struct {
	RunID      string
	BuildingID string
	CreatedAt  time.Time
	Scenario   types.Scenario
	Subregion  emissions.Subregion

	Baseline          summary.Summary
	BaselineCosts     economics.Costs
	BaselineEmissions emissions.Emissions

	Modes []ModeReport
}

// shared holds what every mode reads but never writes.
type shared struct {
	chp        types.CHPSpec
	boiler     types.AuxBoilerSpec
	tes        types.TESSpec
	tariffs    economics.Tariffs
	subregion  emissions.Subregion
	gridFactor units.Quantity
	baseline   summary.Summary
}

// Run evaluates every requested mode concurrently. A mode that fails
// records its error in its ModeReport without affecting the others; Run
// itself only fails on an invalid scenario or a canceled context.
func (r *Runner) Run(ctx context.Context, buildingID string) (Report, error) {
	modes := r.Modes
	if len(modes) == 0 {
		modes = types.AllModes
	}
	now := time.Now
	if r.now != nil {
		now = r.now
	}

	report := Report{
		RunID:      uuid.NewString(),
		BuildingID: buildingID,
		CreatedAt:  now().UTC(),
		Scenario:   r.Scenario,
		Modes:      make([]ModeReport, len(modes)),
	}
	ctx = log.WithAttrs(ctx, slog.String("runID", report.RunID), slog.String("buildingID", buildingID))

	sh, err := r.prepare()
	if err != nil {
		return Report{}, err
	}
	report.Subregion = sh.subregion
	report.Baseline = sh.baseline
	report.BaselineCosts = sh.tariffs.Bills(sh.baseline)
	report.BaselineEmissions = emissions.Of(sh.baseline, sh.gridFactor)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i, mode := range modes {
		g.Go(func() error {
			mctx := log.WithAttrs(gctx, slog.String("mode", mode.String()))
			mr := r.runMode(mctx, mode, sh)
			report.Modes[i] = mr
			if mr.Err != nil {
				if err := gctx.Err(); err != nil {
					return err
				}
				log.Ctx(mctx).ErrorContext(mctx, "mode failed", slog.Any("error", mr.Err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	log.Ctx(ctx).InfoContext(
		ctx,
		"analysis complete",
		slog.Int("modes", len(modes)),
		slog.Duration("duration", time.Since(start)),
	)
	return report, nil
}

func (r *Runner) prepare() (shared, error) {
	s := r.Scenario
	if err := s.Validate(); err != nil {
		return shared{}, err
	}
	chpSpec, err := s.CHPSpec()
	if err != nil {
		return shared{}, err
	}
	boiler, err := s.BoilerSpec(r.Demand.PeakThermal())
	if err != nil {
		return shared{}, err
	}
	tariffs, err := economics.NewTariffs(s)
	if err != nil {
		return shared{}, err
	}
	sub, err := emissions.Resolve(s.City, s.State, s.GridSubregion)
	if err != nil {
		return shared{}, fmt.Errorf("%w: %w", types.ErrInvalidConfig, err)
	}
	factor, err := emissions.GridFactor(sub)
	if err != nil {
		return shared{}, err
	}
	return shared{
		chp:        chpSpec,
		boiler:     boiler,
		tes:        s.TESSpec(),
		tariffs:    tariffs,
		subregion:  sub,
		gridFactor: factor,
		baseline:   summary.Baseline(r.Demand, boiler),
	}, nil
}

func (r *Runner) runMode(ctx context.Context, mode types.Mode, sh shared) ModeReport {
	mr := ModeReport{Mode: mode}
	fail := func(stage string, err error) ModeReport {
		mr.Err = fmt.Errorf("%s %s: %w", mode, stage, err)
		return mr
	}

	engine := sizing.Engine{
		CHP:            sh.chp,
		Boiler:         sh.boiler,
		GridEfficiency: r.Scenario.GridEfficiency,
		PeakCandidates: r.Scenario.PeakCandidates(),
	}
	size, err := engine.SizeCHP(ctx, mode, r.Demand)
	if err != nil {
		return fail("chp sizing", err)
	}
	mr.CHP = sh.chp.WithCapacity(size)

	tesSize := units.KWh(0)
	if !r.Scenario.TES.Disabled {
		tesSize, err = engine.SizeTES(ctx, mode, size, r.Demand)
		if err != nil {
			return fail("tes sizing", err)
		}
	}
	mr.TES = sh.tes.WithCapacity(tesSize, r.Scenario.TES.StartSOC)

	sim := dispatch.Simulator{
		CHP:         mr.CHP,
		Boiler:      sh.boiler,
		TES:         mr.TES,
		NetMetering: r.Scenario.NetMetering,
	}
	mr.Dispatch, err = sim.Run(ctx, mode, r.Demand)
	if err != nil {
		return fail("dispatch", err)
	}
	mr.Summary = summary.Reduce(r.Demand, mr.Dispatch, mr.CHP, sh.boiler)

	mr.Economics, err = economics.Evaluate(sh.tariffs, sh.baseline, mr.Summary, mr.CHP, mr.TES, r.Scenario.IncentivePercent)
	if err != nil {
		return fail("economics", err)
	}
	mr.Emissions = emissions.Compare(sh.baseline, mr.Summary, sh.gridFactor)

	if samples := r.samples(); samples > 0 {
		mr.Sensitivity, err = r.sensitivity(ctx, mr, samples)
		if err != nil {
			return fail("sensitivity", err)
		}
	}

	log.Ctx(ctx).DebugContext(
		ctx,
		"mode evaluated",
		slog.Float64("chpKW", size.KW()),
		slog.Float64("tesKWh", tesSize.KWh()),
		slog.Bool("paysBack", mr.Economics.PaysBack),
		slog.Float64("simplePayback", mr.Economics.SimplePayback),
	)
	return mr
}

func (r *Runner) samples() int {
	switch {
	case r.SensitivitySamples < 0:
		return 0
	case r.SensitivitySamples > 0:
		return r.SensitivitySamples
	default:
		return r.Scenario.Sensitivity.Samples
	}
}

// sensitivity varies the new utility costs, storage size and incentive
// around their evaluated values and reports their effect on payback.
func (r *Runner) sensitivity(ctx context.Context, mr ModeReport, samples int) ([]types.SensitivityIndex, error) {
	dev := r.Scenario.Sensitivity.Deviation
	econ := mr.Economics
	model := economics.NewPaybackModel(econ, mr.TES.InstalledCost.As(units.CurrencyRate).Value())

	thermal := econ.Proposed.Fuel.TotalDollars()
	electrical := econ.Proposed.Electric.TotalDollars()
	tesKWh := mr.TES.Capacity.KWh()
	incentive := r.Scenario.IncentivePercent

	params := make([]sensitivity.Parameter, 4)
	params[0].Name = "thermalCost"
	params[0].Lower, params[0].Upper = sensitivity.Bounds(thermal, thermal*dev, false)
	params[1].Name = "electricalCost"
	params[1].Lower, params[1].Upper = sensitivity.Bounds(electrical, electrical*dev, false)
	params[2].Name = "tesSize"
	params[2].Lower, params[2].Upper = sensitivity.Bounds(tesKWh, tesKWh*dev, false)
	params[3].Name = "incentive"
	params[3].Lower, params[3].Upper = sensitivity.Bounds(incentive, dev, false)
	params[3].Upper = min(params[3].Upper, 1)

	indices, err := sensitivity.Analyze(ctx, params, func(x []float64) float64 {
		return model.Payback(x[0], x[1], x[2], x[3])
	}, sensitivity.Options{
		Samples: samples,
		Seed:    r.Scenario.Sensitivity.Seed,
		Workers: r.Workers,
	})
	if err != nil {
		return nil, err
	}

	out := make([]types.SensitivityIndex, len(indices))
	for i, idx := range indices {
		out[i] = types.SensitivityIndex{
			Parameter: idx.Name,
			Lower:     params[i].Lower,
			Upper:     params[i].Upper,
			First:     idx.First,
			Total:     idx.Total,
		}
	}
	return out, nil
}
