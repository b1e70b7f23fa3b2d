package export

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogenplan/cogenplan/pkg/analysis"
	"github.com/cogenplan/cogenplan/pkg/types"
	"github.com/cogenplan/cogenplan/pkg/units"
)

type fakeWriter struct {
	batches [][]*write.Point
	err     error
}

func (f *fakeWriter) WritePoint(_ context.Context, points ...*write.Point) error {
	f.batches = append(f.batches, points)
	return f.err
}

func testDemand(t *testing.T) types.Demand {
	t.Helper()
	el := make([]units.Quantity, types.HoursPerYear)
	th := make([]units.Quantity, types.HoursPerYear)
	for h := range types.HoursPerYear {
		el[h] = units.KW(12)
		th[h] = units.KWth(40)
	}
	d, err := types.NewDemand(el, th)
	require.NoError(t, err)
	return d
}

func testScenario(t *testing.T) types.Scenario {
	t.Helper()
	s := types.Scenario{
		Name:  "export test",
		City:  "Seattle",
		State: "WA",
		CHP: types.CHPSettings{
			TurndownRatio:       2,
			InstalledCostPerKW:  2500,
			OMCostDollarsPerKWH: 0.015,
		},
		TES: types.TESSettings{Disabled: true},
		ElectricRate: types.ElectricRate{
			Schedule:     types.ScheduleBasic,
			Meter:        types.MeterMaster,
			EnergyCharge: 0.12,
		},
		FuelRate: types.FuelRate{
			Schedule:     types.ScheduleBasic,
			Meter:        types.MeterMaster,
			EnergyCharge: 8,
		},
	}
	s, _, err := types.MigrateScenario(s, 0)
	require.NoError(t, err)
	return s
}

// testReport evaluates ELF for a flat 12 kW load and appends a failed TLF.
func testReport(t *testing.T) analysis.Report {
	t.Helper()
	r := analysis.Runner{
		Scenario:           testScenario(t),
		Demand:             testDemand(t),
		Modes:              []types.Mode{types.ModeELF},
		SensitivitySamples: -1,
	}
	report, err := r.Run(context.Background(), "bldg-1")
	require.NoError(t, err)
	require.NoError(t, report.Modes[0].Err)
	report.Modes = append(report.Modes, analysis.ModeReport{Mode: types.ModeTLF, Err: errors.New("boom")})
	return report
}

func TestPoints(t *testing.T) {
	report := testReport(t)
	report.Modes[0].Dispatch.Hours = report.Modes[0].Dispatch.Hours[:2]
	points := Points(report)
	require.Len(t, points, 3)

	first := write.PointToLineProtocol(points[0], time.Second)
	prefix := "dispatch,building_id=bldg-1,mode=ELF,run_id=" + report.RunID + " "
	assert.True(t, strings.HasPrefix(first, prefix), first)
	assert.Contains(t, first, "chp_kw=12")
	assert.Contains(t, first, "tes_flow_kwth=0")
	// 2023-01-01T00:00:00Z
	assert.True(t, strings.HasSuffix(strings.TrimSpace(first), " 1672531200"), first)

	second := write.PointToLineProtocol(points[1], time.Second)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(second), " 1672534800"), second)

	run := write.PointToLineProtocol(points[2], time.Second)
	assert.True(t, strings.HasPrefix(run, "run,"), run)
	assert.Contains(t, run, "chp_kw=12")
}

func TestWriteBatches(t *testing.T) {
	fw := &fakeWriter{}
	i := &Influx{writer: fw}
	require.True(t, i.Enabled())

	require.NoError(t, i.Write(context.Background(), testReport(t)))
	total := 0
	for _, b := range fw.batches {
		assert.LessOrEqual(t, len(b), batchSize)
		total += len(b)
	}
	assert.Equal(t, types.HoursPerYear+1, total)
	assert.Len(t, fw.batches, 2)
}

func TestWriteError(t *testing.T) {
	i := &Influx{writer: &fakeWriter{err: errors.New("unavailable")}}
	err := i.Write(context.Background(), testReport(t))
	assert.ErrorContains(t, err, "unavailable")
}

func TestDisabled(t *testing.T) {
	var nilSink *Influx
	assert.False(t, nilSink.Enabled())
	assert.NoError(t, nilSink.Write(context.Background(), testReport(t)))
	nilSink.Close()

	assert.False(t, (&Influx{}).Enabled())
}
