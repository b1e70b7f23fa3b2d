// Package report renders analysis runs as text tables and dispatch results
// as CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/cogenplan/cogenplan/pkg/types"
	"github.com/cogenplan/cogenplan/pkg/utility"
)

type row struct {
	label string
	value func(types.ModeRecord) string
}

func money(v float64) string  { return fmt.Sprintf("$%.0f", v) }
func number(v float64) string { return fmt.Sprintf("%.0f", v) }

var modeRows = []row{
	{"CHP size [kW]", func(m types.ModeRecord) string { return fmt.Sprintf("%.1f", m.CHPCapacityKW) }},
	{"TES size [kWh]", func(m types.ModeRecord) string { return fmt.Sprintf("%.1f", m.TESCapacityKWh) }},
	{"CHP electricity [kWh]", func(m types.ModeRecord) string { return number(m.CHPElectricalKWh) }},
	{"CHP heat [MMBtu]", func(m types.ModeRecord) string { return number(m.CHPThermalMMBtu) }},
	{"CHP run hours", func(m types.ModeRecord) string { return strconv.Itoa(m.CHPRunHours) }},
	{"Boiler heat [MMBtu]", func(m types.ModeRecord) string { return number(m.BoilerMMBtu) }},
	{"Fuel [MMBtu]", func(m types.ModeRecord) string { return number(m.FuelMMBtu) }},
	{"Electricity bought [kWh]", func(m types.ModeRecord) string { return number(m.ElectricityBoughtKWh) }},
	{"Electricity sold [kWh]", func(m types.ModeRecord) string { return number(m.ElectricitySoldKWh) }},
	{"TES discharged [MMBtu]", func(m types.ModeRecord) string { return number(m.TESDischargedMMBtu) }},
	{"Heat vented [MMBtu]", func(m types.ModeRecord) string { return number(m.VentedMMBtu) }},
	{"Electric cost", func(m types.ModeRecord) string { return money(m.ElectricCost) }},
	{"Fuel cost", func(m types.ModeRecord) string { return money(m.FuelCost) }},
	{"Export revenue", func(m types.ModeRecord) string { return money(m.ExportRevenue) }},
	{"CHP installed cost", func(m types.ModeRecord) string { return money(m.CHPInstalled) }},
	{"TES installed cost", func(m types.ModeRecord) string { return money(m.TESInstalled) }},
	{"Annual O&M", func(m types.ModeRecord) string { return money(m.AnnualOM) }},
	{"Annual savings", func(m types.ModeRecord) string { return money(m.Savings) }},
	{"Simple payback [yrs]", func(m types.ModeRecord) string { return payback(m, m.SimplePaybackYears) }},
	{"Incentive payback [yrs]", func(m types.ModeRecord) string { return payback(m, m.IncentivePaybackYears) }},
	{"CO2e [lb]", func(m types.ModeRecord) string { return number(m.EmissionsLbs) }},
	{"CO2e reduction [lb]", func(m types.ModeRecord) string { return number(m.EmissionsReductionLbs) }},
}

func payback(m types.ModeRecord, years float64) string {
	if !m.PaysBack {
		return "never"
	}
	return fmt.Sprintf("%.1f", years)
}

// WriteRun prints the baseline, a column per mode and the sensitivity
// indices of every mode that has them.
func WriteRun(w io.Writer, run types.Run) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(tw, "Scenario\t%s\t\n", run.Scenario)
	if run.Location != "" {
		fmt.Fprintf(tw, "Location\t%s (%s)\t\n", run.Location, run.Subregion)
	}
	fmt.Fprintf(tw, "Electric demand [kWh]\t%s\t\n", number(run.Baseline.ElectricDemandKWh))
	fmt.Fprintf(tw, "Heat demand [MMBtu]\t%s\t\n", number(run.Baseline.HeatDemandMMBtu))
	fmt.Fprintf(tw, "Baseline fuel [MMBtu]\t%s\t\n", number(run.Baseline.FuelMMBtu))
	fmt.Fprintf(tw, "Baseline electric cost\t%s\t\n", money(run.Baseline.ElectricCost))
	fmt.Fprintf(tw, "Baseline fuel cost\t%s\t\n", money(run.Baseline.FuelCost))
	fmt.Fprintf(tw, "Baseline CO2e [lb]\t%s\t\n", number(run.Baseline.EmissionsLbs))
	fmt.Fprintln(tw, "\t\t")

	var ok []types.ModeRecord
	for _, m := range run.Modes {
		if m.Error != "" {
			continue
		}
		ok = append(ok, m)
	}
	if len(ok) > 0 {
		fmt.Fprint(tw, "\t")
		for _, m := range ok {
			fmt.Fprintf(tw, "%s\t", m.Mode)
		}
		fmt.Fprintln(tw)
		for _, r := range modeRows {
			fmt.Fprintf(tw, "%s\t", r.label)
			for _, m := range ok {
				fmt.Fprintf(tw, "%s\t", r.value(m))
			}
			fmt.Fprintln(tw)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	for _, m := range run.Modes {
		if m.Error != "" {
			fmt.Fprintf(w, "\n%s failed: %s\n", m.Mode, m.Error)
		}
	}
	for _, m := range ok {
		if len(m.Sensitivity) == 0 {
			continue
		}
		if err := writeSensitivity(w, m); err != nil {
			return err
		}
	}
	return nil
}

func writeSensitivity(w io.Writer, m types.ModeRecord) error {
	fmt.Fprintf(w, "\n%s payback sensitivity\n", m.Mode)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "parameter\tlower\tupper\tS1\tST\t")
	for _, s := range m.Sensitivity {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.3f\t%.3f\t\n", s.Parameter, s.Lower, s.Upper, s.First, s.Total)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write sensitivity: %w", err)
	}
	return nil
}

var hourlyHeader = []string{
	"hour", "time", "chp_kw", "chp_heat_btuh", "tes_flow_btuh", "tes_soc",
	"boiler_btuh", "bought_kwh", "sold_kwh", "vented_btuh",
}

// WriteHourly writes one CSV row per simulated hour.
func WriteHourly(w io.Writer, result types.DispatchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(hourlyHeader); err != nil {
		return fmt.Errorf("failed to write hourly header: %w", err)
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }
	for h, hd := range result.Hours {
		record := []string{
			strconv.Itoa(h),
			utility.HourTime(h).Format("2006-01-02T15:04"),
			f(hd.CHPElectrical.KW()),
			f(hd.CHPThermal.BtuPerHour()),
			f(hd.TESFlow.BtuPerHour()),
			strconv.FormatFloat(hd.TESSOC, 'f', 4, 64),
			f(hd.ABOutput.BtuPerHour()),
			f(hd.Bought.KWh()),
			f(hd.Sold.KWh()),
			f(hd.Vented.BtuPerHour()),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write hour %d: %w", h, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
