package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogenplan/cogenplan/pkg/types"
)

const minimal = `
name: Duluth 24-unit
city: Duluth
state: MN
apartments: 24
demand:
  file: demand.csv
  header_rows: 10
  electric_column: 16
  thermal_column: 29
chp:
  turndown_ratio: 3.3
  installed_cost_per_kw: 3500
  om_cost_dollars_per_kwh: 0.02
boiler:
  turndown_ratio: 4
tes:
  installed_cost_per_kwh: 45
electric_rate:
  schedule: seasonal_energy
  meter: master
  monthly_base_charge: 15
  summer_start_month: 6
  winter_start_month: 10
  summer:
    energy_charge: 0.14
  winter:
    energy_charge: 0.11
fuel_rate:
  schedule: energy_block
  meter: single
  monthly_base_charge: 8
  blocks:
    - up_to: 50
      rate: 9.5
    - rate: 8.25
`

func TestDecodeAppliesDefaults(t *testing.T) {
	s, err := Decode(context.Background(), strings.NewReader(minimal))
	require.NoError(t, err)

	assert.Equal(t, "Duluth 24-unit", s.Name)
	assert.Equal(t, 24, s.Apartments)
	assert.Equal(t, 0.33, s.GridEfficiency)
	assert.Equal(t, 0.8, s.Boiler.Efficiency)
	assert.Equal(t, 5.0367, s.CHP.Curve.Thermal[0])
	assert.Equal(t, 10.0, s.CHP.CandidateMinKW)
	assert.Equal(t, 100.0, s.CHP.CandidateMaxKW)
	assert.Equal(t, 5.0, s.CHP.CandidateStepKW)
	assert.Equal(t, 0.1, s.Sensitivity.Deviation)
	assert.Equal(t, 256, s.Sensitivity.Samples)

	assert.Equal(t, types.ScheduleSeasonalEnergy, s.ElectricRate.Schedule)
	assert.Equal(t, time.June, s.ElectricRate.SummerStartMonth)
	assert.Equal(t, 0.14, s.ElectricRate.Summer.EnergyCharge)
	assert.Equal(t, []types.RateBlock{{UpTo: 50, Rate: 9.5}, {Rate: 8.25}}, s.FuelRate.Blocks)
	assert.Equal(t, 16, s.Demand.ElectricColumn)
}

func TestDecodeCurrentVersionGetsNoDefaults(t *testing.T) {
	in := "version: 3\n" + minimal
	_, err := Decode(context.Background(), strings.NewReader(in))
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"unknown field": minimal + "colour: blue\n",
		"bad yaml":      "name: [",
		"invalid rate":  strings.Replace(minimal, "schedule: seasonal_energy", "schedule: hourly", 1),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(context.Background(), strings.NewReader(in))
			assert.ErrorIs(t, err, types.ErrInvalidConfig)
		})
	}
}

func TestLoadResolvesDemandFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimal), 0o600))

	s, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "demand.csv"), s.Demand.File)

	_, err = Load(context.Background(), filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEncodeRoundTrip(t *testing.T) {
	s, err := Decode(context.Background(), strings.NewReader(minimal))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, s))
	assert.Contains(t, buf.String(), "version: 3")

	again, err := Decode(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, s, again)
}
