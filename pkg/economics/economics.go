// Package economics prices a dispatch run against the baseline and derives
// the payback period of the CHP and TES installation.
package economics

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cogenplan/cogenplan/pkg/summary"
	"github.com/cogenplan/cogenplan/pkg/types"
	"github.com/cogenplan/cogenplan/pkg/units"
	"github.com/cogenplan/cogenplan/pkg/utility"
)

// Tariffs are the utility rates a building pays.
type Tariffs struct {
	Electric *utility.Electric
	Fuel     *utility.Fuel
}

// NewTariffs builds the tariffs of a scenario.
func NewTariffs(s types.Scenario) (Tariffs, error) {
	el, err := utility.NewElectric(s.ElectricRate, s.Apartments)
	if err != nil {
		return Tariffs{}, err
	}
	fuel, err := utility.NewFuel(s.FuelRate, s.Apartments)
	if err != nil {
		return Tariffs{}, err
	}
	return Tariffs{Electric: el, Fuel: fuel}, nil
}

// Costs are a year of utility bills.
type Costs struct {
	Electric utility.Bill
	Fuel     utility.Bill
}

// Total returns the electric and fuel bills combined.
func (c Costs) Total() decimal.Decimal {
	return c.Electric.Total().Add(c.Fuel.Total())
}

// Bills prices the energy bought in s.
func (t Tariffs) Bills(s summary.Summary) Costs {
	return Costs{
		Electric: t.Electric.Bill(s.HourlyBought),
		Fuel:     t.Fuel.Bill(s.HourlyFuel),
	}
}

// Result is the economic comparison of a dispatch run and the baseline.
type Result struct {
	Baseline Costs
	Proposed Costs

	// ExportRevenue is what the utility pays for electricity sold.
	ExportRevenue decimal.Decimal

	CHPInstalled decimal.Decimal
	TESInstalled decimal.Decimal
	CHPOM        decimal.Decimal
	TESOM        decimal.Decimal

	// Savings is the reduction in utility costs plus export revenue.
	Savings decimal.Decimal

	// PaysBack is false when savings do not cover O&M, in which case both
	// payback periods are zero.
	PaysBack         bool
	SimplePayback    float64
	IncentivePayback float64
}

// Installed returns the combined CHP and TES installed cost.
func (r Result) Installed() decimal.Decimal {
	return r.CHPInstalled.Add(r.TESInstalled)
}

// OM returns the combined annual O&M cost.
func (r Result) OM() decimal.Decimal {
	return r.CHPOM.Add(r.TESOM)
}

// Evaluate compares proposed against baseline. incentive is the share of
// installed cost covered by incentives.
func Evaluate(t Tariffs, baseline, proposed summary.Summary, unit types.CHPSpec, tes types.TESSpec, incentive float64) (Result, error) {
	if incentive < 0 || incentive > 1 {
		return Result{}, fmt.Errorf("%w: incentive %v outside [0, 1]", types.ErrInvalidConfig, incentive)
	}
	r := Result{
		Baseline:      t.Bills(baseline),
		Proposed:      t.Bills(proposed),
		ExportRevenue: decimal.Zero,
		CHPInstalled:  dollars(proposed.CHPCapacity.Mul(unit.InstalledCost.As(units.CurrencyPerPower))),
		CHPOM:         dollars(proposed.CHPElectrical.Mul(unit.OMCost.As(units.CurrencyRate))),
		TESInstalled:  decimal.Zero,
		TESOM:         decimal.Zero,
	}
	if proposed.TESCapacity.IsPositive() {
		r.TESInstalled = dollars(proposed.TESCapacity.Mul(tes.InstalledCost.As(units.CurrencyRate)))
		r.TESOM = dollars(proposed.TESThroughput().Mul(tes.OMCost.As(units.CurrencyRate)))
	}
	if proposed.ElectricitySold.IsPositive() {
		r.ExportRevenue = t.Electric.ExportCredit(proposed.HourlySold)
	}
	r.Savings = r.Baseline.Total().Sub(r.Proposed.Total()).Add(r.ExportRevenue)

	net := r.Savings.Sub(r.OM())
	if net.IsPositive() {
		r.PaysBack = true
		installed := r.Installed()
		r.SimplePayback = installed.Div(net).InexactFloat64()
		r.IncentivePayback = installed.Sub(installed.Mul(decimal.NewFromFloat(incentive))).Div(net).InexactFloat64()
	}
	return r, nil
}

func dollars(q units.Quantity) decimal.Decimal {
	return decimal.NewFromFloat(q.Dollars())
}
