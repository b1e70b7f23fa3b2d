package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cogenplan/cogenplan/pkg/analysis"
	"github.com/cogenplan/cogenplan/pkg/demand"
	"github.com/cogenplan/cogenplan/pkg/log"
	"github.com/cogenplan/cogenplan/pkg/storage"
	"github.com/cogenplan/cogenplan/pkg/types"
)

type analyzeReq struct {
	BuildingID string `json:"buildingID"`
	// Modes to evaluate. Empty evaluates every mode.
	Modes []types.Mode `json:"modes"`
	// SensitivitySamples overrides the scenario's sample count when set.
	// Zero or negative skips the sensitivity analysis.
	SensitivitySamples *int `json:"sensitivitySamples"`
}

// loadDemand reads the scenario's demand file from demandDir. The file
// may not leave demandDir.
func (s *Server) loadDemand(ctx context.Context, src types.DemandSource) (types.Demand, error) {
	if src.File == "" {
		return types.Demand{}, fmt.Errorf("%w: scenario has no demand file", types.ErrInvalidConfig)
	}
	name := filepath.Clean(src.File)
	if !filepath.IsLocal(name) {
		return types.Demand{}, fmt.Errorf("%w: demand file %q must be relative to the demand directory", types.ErrInvalidConfig, src.File)
	}
	root, err := os.OpenRoot(s.demandDir)
	if err != nil {
		return types.Demand{}, fmt.Errorf("failed to open demand directory: %w", err)
	}
	defer root.Close()
	f, err := root.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.Demand{}, fmt.Errorf("%w: demand file %q not found", types.ErrInvalidConfig, src.File)
		}
		return types.Demand{}, fmt.Errorf("failed to open demand file: %w", err)
	}
	defer f.Close()
	return demand.Read(ctx, f, demand.LayoutFrom(src))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buildingID := s.getBuildingID(r)

	var req analyzeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	samples := 0
	if req.SensitivitySamples != nil {
		samples = *req.SensitivitySamples
		if samples <= 0 {
			samples = -1
		}
	}
	if s.maxSamples > 0 && samples > s.maxSamples {
		writeJSONError(w, fmt.Sprintf("sensitivitySamples cannot exceed %d", s.maxSamples), http.StatusBadRequest)
		return
	}

	scenario, _, err := s.getScenarioWithMigration(ctx, buildingID)
	if err != nil {
		if errors.Is(err, storage.ErrScenarioNotFound) {
			writeJSONError(w, "scenario not found", http.StatusNotFound)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to get scenario", slog.Any("error", err))
		writeJSONError(w, "failed to get scenario", http.StatusInternalServerError)
		return
	}
	if samples == 0 && s.maxSamples > 0 && scenario.Sensitivity.Samples > s.maxSamples {
		samples = s.maxSamples
	}

	d, err := s.loadDemand(ctx, scenario.Demand)
	if err != nil {
		if errors.Is(err, types.ErrInvalidConfig) {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to load demand", slog.Any("error", err))
		writeJSONError(w, "failed to load demand", http.StatusInternalServerError)
		return
	}

	runner := analysis.Runner{
		Scenario:           scenario,
		Demand:             d,
		Modes:              req.Modes,
		SensitivitySamples: samples,
		Workers:            s.workers,
	}
	report, err := runner.Run(ctx, buildingID)
	if err != nil {
		if errors.Is(err, types.ErrInvalidConfig) {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "analysis failed", slog.Any("error", err))
		writeJSONError(w, "analysis failed", http.StatusInternalServerError)
		return
	}

	run := report.Record()
	if err := s.storage.InsertRun(ctx, run); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to save run", slog.String("runID", run.ID), slog.Any("error", err))
		writeJSONError(w, "failed to save run", http.StatusInternalServerError)
		return
	}
	if err := s.export.Write(ctx, report); err != nil {
		// the run is stored, export is best effort
		log.Ctx(ctx).WarnContext(ctx, "failed to export run", slog.String("runID", run.ID), slog.Any("error", err))
	}

	writeJSON(w, run)
}
