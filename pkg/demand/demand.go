// Package demand loads hourly building demand profiles from CSV files.
package demand

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/cogenplan/cogenplan/pkg/log"
	"github.com/cogenplan/cogenplan/pkg/types"
	"github.com/cogenplan/cogenplan/pkg/units"
)

// Layout locates the demand columns in a CSV file. Column indexes are
// zero-based.
type Layout struct {
	HeaderRows int
	// ElectricColumn holds kWh per hour.
	ElectricColumn int
	// ThermalColumn holds Btu per hour.
	ThermalColumn int
}

// LayoutFrom returns the layout configured in a scenario.
func LayoutFrom(src types.DemandSource) Layout {
	return Layout{
		HeaderRows:     src.HeaderRows,
		ElectricColumn: src.ElectricColumn,
		ThermalColumn:  src.ThermalColumn,
	}
}

// Load reads a year of hourly demand from the CSV file at path.
func Load(ctx context.Context, path string, layout Layout) (types.Demand, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Demand{}, fmt.Errorf("failed to open demand file: %w", err)
	}
	defer f.Close()

	d, err := Read(ctx, f, layout)
	if err != nil {
		return types.Demand{}, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Read parses hourly demand from r. Blank rows after the header are
// skipped.
func Read(ctx context.Context, r io.Reader, layout Layout) (types.Demand, error) {
	if layout.HeaderRows < 0 || layout.ElectricColumn < 0 || layout.ThermalColumn < 0 {
		return types.Demand{}, fmt.Errorf("%w: negative demand file layout", types.ErrInvalidConfig)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	electrical := make([]units.Quantity, 0, types.HoursPerYear)
	thermal := make([]units.Quantity, 0, types.HoursPerYear)
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return types.Demand{}, fmt.Errorf("failed to read demand csv: %w", err)
		}
		if line <= layout.HeaderRows || blank(record) {
			continue
		}
		if len(record) <= max(layout.ElectricColumn, layout.ThermalColumn) {
			return types.Demand{}, fmt.Errorf("%w: line %d has %d columns", types.ErrInvalidConfig, line, len(record))
		}
		el, err := parseValue(record[layout.ElectricColumn])
		if err != nil {
			return types.Demand{}, fmt.Errorf("%w: line %d electric: %w", types.ErrInvalidConfig, line, err)
		}
		th, err := parseValue(record[layout.ThermalColumn])
		if err != nil {
			return types.Demand{}, fmt.Errorf("%w: line %d thermal: %w", types.ErrInvalidConfig, line, err)
		}
		// one hour of kWh is an average kW
		electrical = append(electrical, units.KWh(el).PerHourAsPower())
		thermal = append(thermal, units.BtuPerHour(th))
	}

	d, err := types.NewDemand(electrical, thermal)
	if err != nil {
		return types.Demand{}, err
	}
	log.Ctx(ctx).DebugContext(
		ctx,
		"loaded demand profile",
		slog.Int("hours", d.Hours()),
		slog.Float64("annualKWh", d.AnnualElectrical().KWh()),
		slog.Float64("annualMMBtu", d.AnnualThermal().MMBtu()),
	)
	return d, nil
}

func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
