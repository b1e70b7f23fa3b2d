package economics

import "math"

// PaybackModel holds the parts of a Result that stay fixed while the
// sensitivity analysis varies utility costs, storage size and incentives.
type PaybackModel struct {
	BaselineThermalCost    float64
	BaselineElectricalCost float64
	ExportRevenue          float64
	CHPInstalled           float64
	CHPOM                  float64
	TESOM                  float64
	// TESCostPerKWh prices the storage size.
	TESCostPerKWh float64
}

// NewPaybackModel fixes every term of r except the ones varied by Payback.
func NewPaybackModel(r Result, tesCostPerKWh float64) PaybackModel {
	return PaybackModel{
		BaselineThermalCost:    r.Baseline.Fuel.TotalDollars(),
		BaselineElectricalCost: r.Baseline.Electric.TotalDollars(),
		ExportRevenue:          r.ExportRevenue.InexactFloat64(),
		CHPInstalled:           r.CHPInstalled.InexactFloat64(),
		CHPOM:                  r.CHPOM.InexactFloat64(),
		TESOM:                  r.TESOM.InexactFloat64(),
		TESCostPerKWh:          tesCostPerKWh,
	}
}

// Payback returns the incentive payback in years for the given annual
// thermal and electrical costs, TES size in kWh and incentive share. A
// negative result means the savings never cover O&M. Payback returns NaN
// when net savings are exactly zero.
func (m PaybackModel) Payback(thermalCostNew, electricalCostNew, tesSizeKWh, incentivePct float64) float64 {
	savings := m.BaselineThermalCost - thermalCostNew +
		m.BaselineElectricalCost - electricalCostNew +
		m.ExportRevenue
	net := savings - m.CHPOM - m.TESOM
	if net == 0 {
		return math.NaN()
	}
	installed := m.CHPInstalled + max(tesSizeKWh, 0)*m.TESCostPerKWh
	return installed * (1 - incentivePct) / net
}
