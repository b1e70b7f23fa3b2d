package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cogenplan/cogenplan/pkg/log"
	"github.com/cogenplan/cogenplan/pkg/storage"
	"github.com/cogenplan/cogenplan/pkg/types"
)

// ScenarioRes is the response of the scenario endpoints.
type ScenarioRes struct {
	BuildingID string         `json:"buildingID"`
	Version    int            `json:"version"`
	Scenario   types.Scenario `json:"scenario"`
}

// getScenarioWithMigration loads the stored scenario and upgrades it to
// the current version, saving the upgrade when anything changed.
func (s *Server) getScenarioWithMigration(ctx context.Context, buildingID string) (types.Scenario, int, error) {
	scenario, version, err := s.storage.GetScenario(ctx, buildingID)
	if err != nil {
		return types.Scenario{}, 0, err
	}
	if version >= types.CurrentScenarioVersion {
		return scenario, version, nil
	}

	log.Ctx(ctx).InfoContext(ctx, "migrating scenario", slog.Int("oldVersion", version), slog.Int("newVersion", types.CurrentScenarioVersion))
	migrated, changed, err := types.MigrateScenario(scenario, version)
	if err != nil {
		return types.Scenario{}, 0, err
	}
	if changed {
		if err := s.storage.SetScenario(ctx, buildingID, migrated, types.CurrentScenarioVersion); err != nil {
			// the migrated scenario still serves this request
			log.Ctx(ctx).ErrorContext(ctx, "failed to save migrated scenario", slog.Any("error", err))
		}
	}
	return migrated, types.CurrentScenarioVersion, nil
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buildingID := s.getBuildingID(r)

	scenario, version, err := s.getScenarioWithMigration(ctx, buildingID)
	if err != nil {
		if errors.Is(err, storage.ErrScenarioNotFound) {
			writeJSONError(w, "scenario not found", http.StatusNotFound)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to get scenario", slog.Any("error", err))
		writeJSONError(w, "failed to get scenario", http.StatusInternalServerError)
		return
	}

	writeJSON(w, ScenarioRes{BuildingID: buildingID, Version: version, Scenario: scenario})
}

type setScenarioReq struct {
	BuildingID string         `json:"buildingID"`
	Scenario   types.Scenario `json:"scenario"`
	// Version of the posted scenario. Omitted means current; older
	// versions get the defaults added since applied.
	Version *int `json:"version"`
}

func (s *Server) handleSetScenario(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buildingID := s.getBuildingID(r)

	var req setScenarioReq
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "invalid scenario body", slog.Any("error", err))
		writeJSONError(w, "invalid scenario: "+err.Error(), http.StatusBadRequest)
		return
	}

	scenario := req.Scenario
	if req.Version != nil {
		var err error
		scenario, _, err = types.MigrateScenario(scenario, *req.Version)
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if err := scenario.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.storage.SetScenario(ctx, buildingID, scenario, types.CurrentScenarioVersion); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to save scenario", slog.Any("error", err))
		writeJSONError(w, "failed to save scenario", http.StatusInternalServerError)
		return
	}
	log.Ctx(ctx).InfoContext(ctx, "scenario updated", slog.String("scenario", scenario.Name))

	writeJSON(w, ScenarioRes{BuildingID: buildingID, Version: types.CurrentScenarioVersion, Scenario: scenario})
}
