// Package export writes analysis runs to an InfluxDB v2 bucket so hourly
// dispatch can be charted next to measured building data.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/levenlabs/go-lflag"

	"github.com/cogenplan/cogenplan/pkg/analysis"
	"github.com/cogenplan/cogenplan/pkg/common"
	"github.com/cogenplan/cogenplan/pkg/log"
	"github.com/cogenplan/cogenplan/pkg/utility"
)

const batchSize = 5000

// pointWriter is the part of the InfluxDB blocking write API we use.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Influx writes runs to InfluxDB. The zero value and a nil *Influx are
// disabled sinks that drop every run.
type Influx struct {
	url    string
	token  string
	org    string
	bucket string

	client influxdb2.Client
	writer pointWriter
}

// Configured registers the InfluxDB flags. The sink stays disabled when
// no URL is given.
func Configured() *Influx {
	url := lflag.String("influx-url", "", "InfluxDB URL for hourly dispatch export (disabled when empty)")
	token := lflag.String("influx-token", "", "InfluxDB API token")
	org := lflag.String("influx-org", "", "InfluxDB organization")
	bucket := lflag.String("influx-bucket", "cogenplan", "InfluxDB bucket")

	i := &Influx{}
	lflag.Do(func() {
		i.url = *url
		i.token = *token
		i.org = *org
		i.bucket = *bucket
		if i.url == "" {
			return
		}
		if err := i.Init(context.Background()); err != nil {
			panic(fmt.Sprintf("influx init failed: %v", err))
		}
	})
	return i
}

// Init connects to InfluxDB and checks its health.
func (i *Influx) Init(ctx context.Context) error {
	opts := influxdb2.DefaultOptions().
		SetHTTPClient(common.HTTPClient(30 * time.Second)).
		SetApplicationName(common.UserAgent())
	client := influxdb2.NewClientWithOptions(i.url, i.token, opts)
	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return fmt.Errorf("failed to connect to influxdb at %s: %w", i.url, err)
	}
	i.client = client
	i.writer = client.WriteAPIBlocking(i.org, i.bucket)
	return nil
}

// Enabled reports whether runs are written anywhere.
func (i *Influx) Enabled() bool {
	return i != nil && i.writer != nil
}

// Write stores the hourly dispatch and annual results of every mode that
// succeeded.
func (i *Influx) Write(ctx context.Context, r analysis.Report) error {
	if !i.Enabled() {
		return nil
	}
	points := Points(r)
	for start := 0; start < len(points); start += batchSize {
		end := min(start+batchSize, len(points))
		if err := i.writer.WritePoint(ctx, points[start:end]...); err != nil {
			return fmt.Errorf("failed to write points to influxdb: %w", err)
		}
	}
	log.Ctx(ctx).DebugContext(ctx, "exported run", slog.String("runID", r.RunID), slog.Int("points", len(points)))
	return nil
}

// Close releases the client.
func (i *Influx) Close() {
	if i != nil && i.client != nil {
		i.client.Close()
	}
}

// Points converts a report to InfluxDB points: one "dispatch" point per
// mode and hour, stamped on the simulated calendar, and one "run" point
// per mode stamped with the run time.
func Points(r analysis.Report) []*write.Point {
	var points []*write.Point
	for _, m := range r.Modes {
		if m.Err != nil {
			continue
		}
		tags := map[string]string{
			"building_id": r.BuildingID,
			"run_id":      r.RunID,
			"mode":        m.Mode.String(),
		}
		for h, hd := range m.Dispatch.Hours {
			points = append(points, write.NewPoint(
				"dispatch",
				tags,
				map[string]interface{}{
					"chp_kw":        hd.CHPElectrical.KW(),
					"chp_heat_kwth": hd.CHPThermal.KWth(),
					"tes_flow_kwth": hd.TESFlow.KWth(),
					"tes_soc":       hd.TESSOC,
					"boiler_kwth":   hd.ABOutput.KWth(),
					"bought_kwh":    hd.Bought.KWh(),
					"sold_kwh":      hd.Sold.KWh(),
					"vented_kwth":   hd.Vented.KWth(),
				},
				utility.HourTime(h),
			))
		}

		rec := m.Record()
		points = append(points, write.NewPoint(
			"run",
			tags,
			map[string]interface{}{
				"chp_kw":            rec.CHPCapacityKW,
				"tes_kwh":           rec.TESCapacityKWh,
				"savings":           rec.Savings,
				"simple_payback":    rec.SimplePaybackYears,
				"incentive_payback": rec.IncentivePaybackYears,
				"pays_back":         rec.PaysBack,
				"co2e_lbs":          rec.EmissionsLbs,
			},
			r.CreatedAt,
		))
	}
	return points
}
