// Command seed stores a sample scenario and writes a matching synthetic
// demand file so the service can be tried locally.
package main

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/levenlabs/go-lflag"

	"github.com/cogenplan/cogenplan/pkg/config"
	"github.com/cogenplan/cogenplan/pkg/log"
	"github.com/cogenplan/cogenplan/pkg/storage"
	"github.com/cogenplan/cogenplan/pkg/types"
	"github.com/cogenplan/cogenplan/pkg/units"
	"github.com/cogenplan/cogenplan/pkg/utility"
)

//go:embed scenario.yaml
var sampleScenario []byte

func main() {
	os.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8087")
	s := storage.Configured()
	buildingID := lflag.String("building-id", "default", "Building to store the sample scenario under")
	demandDir := lflag.String("demand-dir", ".", "Directory to write the sample demand file to")
	lflag.Configure()
	log.Setup(os.Stderr, false)

	ctx := context.Background()
	defer s.Close()

	log.Ctx(ctx).InfoContext(ctx, "seeding sample scenario")

	scenario, err := config.Decode(ctx, bytes.NewReader(sampleScenario))
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to decode sample scenario", "error", err)
		os.Exit(1)
	}

	f, err := os.Create(filepath.Join(*demandDir, scenario.Demand.File))
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to create demand file", "error", err)
		os.Exit(1)
	}
	werr := writeDemand(f, scenario.Demand, rand.New(rand.NewPCG(scenario.Sensitivity.Seed, 0)))
	if err := f.Close(); err != nil && werr == nil {
		werr = err
	}
	if werr != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to write demand file", "error", werr)
		os.Exit(1)
	}

	if err := s.SetScenario(ctx, *buildingID, scenario, types.CurrentScenarioVersion); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to seed scenario", "error", err)
		os.Exit(1)
	}

	log.Ctx(ctx).InfoContext(ctx, "seeded sample scenario successfully", "buildingID", *buildingID, "demandFile", f.Name())
}

// writeDemand writes a year of synthetic multifamily demand in the layout
// described by src: a morning and evening electric peak and a heating load
// that follows the season.
func writeDemand(w io.Writer, src types.DemandSource, rng *rand.Rand) error {
	cw := csv.NewWriter(w)
	width := max(src.ElectricColumn, src.ThermalColumn) + 1
	for i := range src.HeaderRows {
		row := make([]string, width)
		row[0] = fmt.Sprintf("header %d", i)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write demand header: %w", err)
		}
	}
	for h := range types.HoursPerYear {
		t := utility.HourTime(h)
		hour := float64(t.Hour())
		day := float64(t.YearDay())

		electric := 18 + 10*math.Exp(-math.Pow(hour-7.5, 2)/4) + 16*math.Exp(-math.Pow(hour-19, 2)/6)
		electric *= 0.9 + 0.2*rng.Float64()

		// coldest in mid January
		season := 0.5 + 0.5*math.Cos(2*math.Pi*(day-15)/365)
		heatKW := 25 + 160*season
		if hour >= 6 && hour < 9 {
			heatKW *= 1.3
		}
		heatKW *= 0.9 + 0.2*rng.Float64()

		row := make([]string, width)
		row[0] = t.Format("2006-01-02 15:04")
		row[src.ElectricColumn] = strconv.FormatFloat(electric, 'f', 2, 64)
		row[src.ThermalColumn] = strconv.FormatFloat(units.KWth(heatKW).BtuPerHour(), 'f', 0, 64)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write demand row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
