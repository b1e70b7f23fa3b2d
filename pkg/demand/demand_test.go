package demand

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogenplan/cogenplan/pkg/types"
	"github.com/cogenplan/cogenplan/pkg/units"
)

func profile(header int, hours int, row func(h int) string) string {
	var b strings.Builder
	for i := range header {
		fmt.Fprintf(&b, "header %d,,\n", i)
	}
	for h := range hours {
		b.WriteString(row(h))
		b.WriteByte('\n')
	}
	return b.String()
}

func TestRead(t *testing.T) {
	layout := Layout{HeaderRows: 2, ElectricColumn: 1, ThermalColumn: 2}
	csv := profile(2, types.HoursPerYear, func(h int) string {
		return fmt.Sprintf("%d,%d,\"3,412.141633\"", h, h%24)
	})

	d, err := Read(context.Background(), strings.NewReader(csv), layout)
	require.NoError(t, err)
	require.Equal(t, types.HoursPerYear, d.Hours())
	assert.Equal(t, units.KW(5), d.Electrical(5))
	assert.InDelta(t, 1.0, d.Thermal(100).KWth(), 1e-9)
	assert.InDelta(t, 365*276.0, d.AnnualElectrical().KWh(), 1e-9)
}

func TestReadSkipsBlankRows(t *testing.T) {
	layout := Layout{HeaderRows: 1, ElectricColumn: 0, ThermalColumn: 1}
	csv := profile(1, types.HoursPerYear, func(h int) string {
		if h == 10 {
			return "1,1\n,"
		}
		return "1,1"
	})
	d, err := Read(context.Background(), strings.NewReader(csv), layout)
	require.NoError(t, err)
	assert.Equal(t, types.HoursPerYear, d.Hours())
}

func TestReadErrors(t *testing.T) {
	cases := []struct {
		name   string
		layout Layout
		csv    string
	}{
		{
			name:   "short year",
			layout: Layout{ElectricColumn: 0, ThermalColumn: 1},
			csv:    profile(0, 100, func(int) string { return "1,1" }),
		},
		{
			name:   "missing column",
			layout: Layout{ElectricColumn: 0, ThermalColumn: 5},
			csv:    profile(0, types.HoursPerYear, func(int) string { return "1,1" }),
		},
		{
			name:   "not a number",
			layout: Layout{ElectricColumn: 0, ThermalColumn: 1},
			csv:    profile(0, types.HoursPerYear, func(int) string { return "one,1" }),
		},
		{
			name:   "negative demand",
			layout: Layout{ElectricColumn: 0, ThermalColumn: 1},
			csv:    profile(0, types.HoursPerYear, func(int) string { return "1,-1" }),
		},
		{
			name:   "negative layout",
			layout: Layout{HeaderRows: -1},
			csv:    "",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Read(context.Background(), strings.NewReader(c.csv), c.layout)
			assert.ErrorIs(t, err, types.ErrInvalidConfig)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demand.csv")
	csv := profile(0, types.HoursPerYear, func(int) string { return "2,3412.141633" })
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))

	d, err := Load(context.Background(), path, LayoutFrom(types.DemandSource{ElectricColumn: 0, ThermalColumn: 1}))
	require.NoError(t, err)
	assert.InDelta(t, 2*8760.0, d.AnnualElectrical().KWh(), 1e-9)

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), Layout{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
