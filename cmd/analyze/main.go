// Command analyze evaluates a scenario file against a demand CSV and prints
// the results of every requested mode.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/levenlabs/go-lflag"

	"github.com/cogenplan/cogenplan/pkg/analysis"
	"github.com/cogenplan/cogenplan/pkg/config"
	"github.com/cogenplan/cogenplan/pkg/demand"
	"github.com/cogenplan/cogenplan/pkg/export"
	"github.com/cogenplan/cogenplan/pkg/log"
	"github.com/cogenplan/cogenplan/pkg/report"
	"github.com/cogenplan/cogenplan/pkg/types"
)

func main() {
	scenario := config.Configured()
	x := export.Configured()
	demandPath := lflag.String("demand", "", "Demand CSV file (defaults to the scenario's demand file)")
	modesFlag := lflag.String("modes", "", "Comma separated modes to evaluate: ELF, TLF, Peak (empty evaluates all)")
	samples := lflag.Int("sensitivity-samples", 0, "Sensitivity samples per mode (0 uses the scenario, negative disables)")
	hourlyOut := lflag.String("hourly-out", "", "Directory to write one hourly dispatch CSV per mode")
	buildingID := lflag.String("building-id", "local", "Building ID recorded with the run")

	lflag.Configure()
	log.Setup(os.Stderr, false)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	defer x.Close()

	if err := run(ctx, os.Stdout, *scenario, x, options{
		demandPath: *demandPath,
		modes:      *modesFlag,
		samples:    *samples,
		hourlyOut:  *hourlyOut,
		buildingID: *buildingID,
	}); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "analysis failed", slog.Any("error", err))
		os.Exit(1)
	}
}

type options struct {
	demandPath string
	modes      string
	samples    int
	hourlyOut  string
	buildingID string
}

func run(ctx context.Context, w io.Writer, s types.Scenario, x *export.Influx, opts options) error {
	modes, err := types.ParseModes(opts.modes)
	if err != nil {
		return err
	}
	path := opts.demandPath
	if path == "" {
		path = s.Demand.File
	}
	if path == "" {
		return fmt.Errorf("%w: no demand file given", types.ErrInvalidConfig)
	}
	d, err := demand.Load(ctx, path, demand.LayoutFrom(s.Demand))
	if err != nil {
		return err
	}

	runner := analysis.Runner{
		Scenario:           s,
		Demand:             d,
		Modes:              modes,
		SensitivitySamples: opts.samples,
	}
	rep, err := runner.Run(ctx, opts.buildingID)
	if err != nil {
		return err
	}

	if err := report.WriteRun(w, rep.Record()); err != nil {
		return err
	}
	if opts.hourlyOut != "" {
		if err := writeHourly(opts.hourlyOut, rep); err != nil {
			return err
		}
	}
	if x.Enabled() {
		if err := x.Write(ctx, rep); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to export run", slog.Any("error", err))
		}
	}
	return nil
}

// writeHourly writes <dir>/<mode>.csv for every mode that was evaluated.
func writeHourly(dir string, rep analysis.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create hourly output dir: %w", err)
	}
	for _, m := range rep.Modes {
		if m.Err != nil {
			continue
		}
		f, err := os.Create(filepath.Join(dir, m.Mode.String()+".csv"))
		if err != nil {
			return fmt.Errorf("failed to create hourly output: %w", err)
		}
		werr := report.WriteHourly(f, m.Dispatch)
		if err := f.Close(); err != nil && werr == nil {
			werr = fmt.Errorf("failed to close hourly output: %w", err)
		}
		if werr != nil {
			return werr
		}
	}
	return nil
}
