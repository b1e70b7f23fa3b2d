package types

import "time"

// Run is the stored result of analyzing a building's scenario.
type Run struct {
	ID         string    `json:"id"`
	BuildingID string    `json:"buildingID"`
	CreatedAt  time.Time `json:"createdAt"`
	Scenario   string    `json:"scenario"`
	Location   string    `json:"location"`
	Subregion  string    `json:"subregion"`

	Baseline BaselineRecord `json:"baseline"`
	Modes    []ModeRecord   `json:"modes"`
}

// Mode returns the record of mode m, if present.
func (r Run) Mode(m Mode) (ModeRecord, bool) {
	for _, rec := range r.Modes {
		if rec.Mode == m {
			return rec, true
		}
	}
	return ModeRecord{}, false
}

// BaselineRecord is the building without a retrofit.
type BaselineRecord struct {
	ElectricDemandKWh float64 `json:"electricDemandKWh"`
	HeatDemandMMBtu   float64 `json:"heatDemandMMBtu"`
	FuelMMBtu         float64 `json:"fuelMMBtu"`
	ElectricCost      float64 `json:"electricCost"`
	FuelCost          float64 `json:"fuelCost"`
	EmissionsLbs      float64 `json:"emissionsLbs"`
}

// ModeRecord is the outcome of one dispatch mode. When Error is set the
// mode failed and only Mode is meaningful.
type ModeRecord struct {
	Mode  Mode   `json:"mode"`
	Error string `json:"error,omitempty"`

	CHPCapacityKW  float64 `json:"chpCapacityKW"`
	TESCapacityKWh float64 `json:"tesCapacityKWh"`

	CHPElectricalKWh     float64 `json:"chpElectricalKWh"`
	CHPThermalMMBtu      float64 `json:"chpThermalMMBtu"`
	CHPRunHours          int     `json:"chpRunHours"`
	BoilerMMBtu          float64 `json:"boilerMMBtu"`
	FuelMMBtu            float64 `json:"fuelMMBtu"`
	ElectricityBoughtKWh float64 `json:"electricityBoughtKWh"`
	ElectricitySoldKWh   float64 `json:"electricitySoldKWh"`
	TESDischargedMMBtu   float64 `json:"tesDischargedMMBtu"`
	VentedMMBtu          float64 `json:"ventedMMBtu"`

	ElectricCost  float64 `json:"electricCost"`
	FuelCost      float64 `json:"fuelCost"`
	ExportRevenue float64 `json:"exportRevenue"`
	CHPInstalled  float64 `json:"chpInstalled"`
	TESInstalled  float64 `json:"tesInstalled"`
	AnnualOM      float64 `json:"annualOM"`
	Savings       float64 `json:"savings"`

	PaysBack              bool    `json:"paysBack"`
	SimplePaybackYears    float64 `json:"simplePaybackYears"`
	IncentivePaybackYears float64 `json:"incentivePaybackYears"`

	EmissionsLbs          float64 `json:"emissionsLbs"`
	EmissionsReductionLbs float64 `json:"emissionsReductionLbs"`

	Sensitivity []SensitivityIndex `json:"sensitivity,omitempty"`
}

// SensitivityIndex is the Sobol index of one payback input.
type SensitivityIndex struct {
	Parameter string  `json:"parameter"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	First     float64 `json:"first"`
	Total     float64 `json:"total"`
}
