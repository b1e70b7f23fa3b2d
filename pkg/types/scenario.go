package types

import (
	"fmt"
	"strings"

	"github.com/cogenplan/cogenplan/pkg/chp"
	"github.com/cogenplan/cogenplan/pkg/units"
)

// CurrentScenarioVersion is the current version of the scenario struct.
// Increment this value when adding new fields that require default values.
const CurrentScenarioVersion = 3

// Scenario is everything about a building and its retrofit options that
// an analysis needs besides the demand data. It is loaded from YAML by the
// CLI and stored as JSON by the server.
type Scenario struct {
	Name string `json:"name" yaml:"name"`

	// Location selects the grid emissions subregion.
	City  string `json:"city" yaml:"city"`
	State string `json:"state" yaml:"state"`
	// GridSubregion overrides the subregion derived from City and State.
	GridSubregion string `json:"gridSubregion,omitempty" yaml:"grid_subregion,omitempty"`

	Apartments int `json:"apartments" yaml:"apartments"`
	// NetMetering credits surplus TLF electricity. Peak mode always sells.
	NetMetering bool `json:"netMetering" yaml:"net_metering"`
	// GridEfficiency is the delivered efficiency of grid electricity used
	// in primary energy savings.
	GridEfficiency float64 `json:"gridEfficiency" yaml:"grid_efficiency"`

	Demand DemandSource   `json:"demand" yaml:"demand"`
	CHP    CHPSettings    `json:"chp" yaml:"chp"`
	Boiler BoilerSettings `json:"boiler" yaml:"boiler"`
	TES    TESSettings    `json:"tes" yaml:"tes"`

	ElectricRate ElectricRate `json:"electricRate" yaml:"electric_rate"`
	FuelRate     FuelRate     `json:"fuelRate" yaml:"fuel_rate"`

	// IncentivePercent is the share of installed cost covered by
	// incentives, in [0, 1].
	IncentivePercent float64 `json:"incentivePercent" yaml:"incentive_percent"`

	Sensitivity SensitivitySettings `json:"sensitivity" yaml:"sensitivity"`
}

// DemandSource locates the hourly demand CSV.
type DemandSource struct {
	File       string `json:"file" yaml:"file"`
	HeaderRows int    `json:"headerRows" yaml:"header_rows"`
	// ElectricColumn holds kWh per hour, ThermalColumn Btu per hour.
	ElectricColumn int `json:"electricColumn" yaml:"electric_column"`
	ThermalColumn  int `json:"thermalColumn" yaml:"thermal_column"`
}

// CHPSettings configures the CHP unit before sizing.
type CHPSettings struct {
	TurndownRatio       float64 `json:"turndownRatio" yaml:"turndown_ratio"`
	AvailableHours      int     `json:"availableHours" yaml:"available_hours"`
	InstalledCostPerKW  float64 `json:"installedCostPerKW" yaml:"installed_cost_per_kw"`
	OMCostDollarsPerKWH float64 `json:"omCostDollarsPerKWH" yaml:"om_cost_dollars_per_kwh"`
	// Curve is used as-is unless PartLoad data is given, in which case
	// the curve is fitted from it.
	Curve    chp.Coefficients    `json:"curve" yaml:"curve"`
	PartLoad []chp.PartLoadPoint `json:"partLoad,omitempty" yaml:"part_load,omitempty"`
	// Peak mode candidate sizes in kW.
	CandidateMinKW  float64 `json:"candidateMinKW" yaml:"candidate_min_kw"`
	CandidateMaxKW  float64 `json:"candidateMaxKW" yaml:"candidate_max_kw"`
	CandidateStepKW float64 `json:"candidateStepKW" yaml:"candidate_step_kw"`
}

// BoilerSettings configures the auxiliary boiler.
type BoilerSettings struct {
	// CapacityBtuPerHour of zero sizes the boiler to the peak heat demand.
	CapacityBtuPerHour float64 `json:"capacityBtuPerHour" yaml:"capacity_btu_per_hour"`
	Efficiency         float64 `json:"efficiency" yaml:"efficiency"`
	TurndownRatio      float64 `json:"turndownRatio" yaml:"turndown_ratio"`
}

// TESSettings configures thermal storage before sizing.
type TESSettings struct {
	Disabled bool `json:"disabled" yaml:"disabled"`
	// StartSOC is the initial state of charge in [0, 1].
	StartSOC               float64 `json:"startSOC" yaml:"start_soc"`
	MaxDischargeBtuPerHour float64 `json:"maxDischargeBtuPerHour" yaml:"max_discharge_btu_per_hour"`
	InstalledCostPerKWH    float64 `json:"installedCostPerKWH" yaml:"installed_cost_per_kwh"`
	OMCostDollarsPerKWH    float64 `json:"omCostDollarsPerKWH" yaml:"om_cost_dollars_per_kwh"`
}

// SensitivitySettings configures the global sensitivity analysis.
type SensitivitySettings struct {
	// Deviation is the relative half-width of every parameter range.
	Deviation float64 `json:"deviation" yaml:"deviation"`
	Samples   int     `json:"samples" yaml:"samples"`
	Seed      uint64  `json:"seed" yaml:"seed"`
}

// MigrateScenario migrates the scenario to the current version.
// It returns the migrated scenario, a boolean indicating if changes were
// made, and an error if migration failed.
func MigrateScenario(s Scenario, currentVersion int) (Scenario, bool, error) {
	if currentVersion >= CurrentScenarioVersion {
		return s, false, nil
	}

	migrated := false
	for version := currentVersion + 1; version <= CurrentScenarioVersion; version++ {
		switch version {
		case 1:
			// version 1: initial defaults
			if s.GridEfficiency == 0 {
				s.GridEfficiency = 0.33
				migrated = true
			}
			if s.Boiler.Efficiency == 0 {
				s.Boiler.Efficiency = 0.8
				migrated = true
			}
			if len(s.CHP.Curve.Thermal) == 0 && len(s.CHP.PartLoad) == 0 {
				s.CHP.Curve = chp.DefaultCoefficients()
				migrated = true
			}
			if s.Apartments == 0 {
				s.Apartments = 1
				migrated = true
			}
		case 2:
			// version 2: add peak candidate list
			if s.CHP.CandidateStepKW == 0 {
				s.CHP.CandidateMinKW = 10
				s.CHP.CandidateMaxKW = 100
				s.CHP.CandidateStepKW = 5
				migrated = true
			}
		case 3:
			// version 3: add sensitivity analysis
			if s.Sensitivity.Deviation == 0 {
				s.Sensitivity.Deviation = 0.1
				migrated = true
			}
			if s.Sensitivity.Samples == 0 {
				s.Sensitivity.Samples = 256
				migrated = true
			}
		default:
			return s, false, fmt.Errorf("unknown scenario version: %d", version)
		}
	}

	return s, migrated, nil
}

// Validate checks the scenario fields that do not depend on demand data.
func (s Scenario) Validate() error {
	if s.GridEfficiency <= 0 {
		return fmt.Errorf("%w: grid efficiency must be positive", ErrInvalidConfig)
	}
	if s.Apartments < 1 {
		return fmt.Errorf("%w: apartments must be at least 1", ErrInvalidConfig)
	}
	if s.IncentivePercent < 0 || s.IncentivePercent > 1 {
		return fmt.Errorf("%w: incentive percent must be in [0, 1]", ErrInvalidConfig)
	}
	if s.TES.StartSOC < 0 || s.TES.StartSOC > 1 {
		return fmt.Errorf("%w: tes start soc must be in [0, 1]", ErrInvalidConfig)
	}
	if s.CHP.CandidateStepKW <= 0 || s.CHP.CandidateMinKW <= 0 || s.CHP.CandidateMaxKW < s.CHP.CandidateMinKW {
		return fmt.Errorf("%w: invalid peak candidate range", ErrInvalidConfig)
	}
	if _, err := s.BoilerSpec(units.KWth(0)); err != nil {
		return err
	}
	if _, err := s.CHPSpec(); err != nil {
		return err
	}
	if err := s.ElectricRate.Validate(); err != nil {
		return fmt.Errorf("electric rate: %w", err)
	}
	if err := s.FuelRate.Validate(); err != nil {
		return fmt.Errorf("fuel rate: %w", err)
	}
	return nil
}

// CHPSpec describes the unsized CHP unit, fitting the curve from
// part-load data when present.
func (s Scenario) CHPSpec() (CHPSpec, error) {
	coeffs := s.CHP.Curve
	if len(s.CHP.PartLoad) > 0 {
		fitted, err := chp.Fit(s.CHP.PartLoad)
		if err != nil {
			return CHPSpec{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		coeffs = fitted
	}
	curve, err := chp.NewCurve(coeffs)
	if err != nil {
		return CHPSpec{}, fmt.Errorf("%w: chp curve: %w", ErrInvalidConfig, err)
	}
	spec := CHPSpec{
		Capacity:       units.KW(0),
		TurndownRatio:  s.CHP.TurndownRatio,
		Curve:          curve,
		AvailableHours: s.CHP.AvailableHours,
		InstalledCost:  units.DollarsPerKW(s.CHP.InstalledCostPerKW),
		OMCost:         units.DollarsPerKWh(s.CHP.OMCostDollarsPerKWH),
	}
	if err := spec.Validate(); err != nil {
		return CHPSpec{}, err
	}
	return spec, nil
}

// BoilerSpec describes the boiler. peakThermal is used when no
// capacity is configured.
func (s Scenario) BoilerSpec(peakThermal units.Quantity) (AuxBoilerSpec, error) {
	capacity := units.BtuPerHour(s.Boiler.CapacityBtuPerHour)
	if s.Boiler.CapacityBtuPerHour == 0 {
		capacity = peakThermal
	}
	spec := AuxBoilerSpec{
		Capacity:      capacity,
		Efficiency:    s.Boiler.Efficiency,
		TurndownRatio: s.Boiler.TurndownRatio,
	}
	if err := spec.Validate(); err != nil {
		return AuxBoilerSpec{}, err
	}
	return spec, nil
}

// TESSpec describes the unsized store.
func (s Scenario) TESSpec() TESSpec {
	return TESSpec{
		Capacity:         units.KWh(0),
		StartingCharge:   units.KWh(0),
		MaxDischargeRate: units.BtuPerHour(s.TES.MaxDischargeBtuPerHour),
		InstalledCost:    units.DollarsPerKWh(s.TES.InstalledCostPerKWH),
		OMCost:           units.DollarsPerKWh(s.TES.OMCostDollarsPerKWH),
	}
}

// PeakCandidates returns the CHP sizes evaluated in Peak mode.
func (s Scenario) PeakCandidates() []units.Quantity {
	var out []units.Quantity
	step := s.CHP.CandidateStepKW
	if step <= 0 {
		return nil
	}
	n := int((s.CHP.CandidateMaxKW-s.CHP.CandidateMinKW)/step + 1e-9)
	for i := 0; i <= n; i++ {
		out = append(out, units.KW(s.CHP.CandidateMinKW+float64(i)*step))
	}
	return out
}

// Location returns "city, state" for display.
func (s Scenario) Location() string {
	if s.City == "" && s.State == "" {
		return ""
	}
	return strings.TrimSpace(s.City + ", " + strings.ToUpper(s.State))
}
