package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cogenplan/cogenplan/pkg/log"
	"github.com/cogenplan/cogenplan/pkg/storage"
	"github.com/cogenplan/cogenplan/pkg/types"
)

const (
	defaultRunsRange = 30 * 24 * time.Hour
	maxRunsRange     = 366 * 24 * time.Hour
)

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buildingID := s.getBuildingID(r)
	start, end, err := parseTimeRange(r, time.Now())
	if err != nil {
		writeJSONError(w, "invalid time range: "+err.Error(), http.StatusBadRequest)
		return
	}

	runs, err := s.storage.GetRuns(ctx, buildingID, start, end)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get runs", slog.Any("error", err))
		writeJSONError(w, "failed to get runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []types.Run{}
	}
	writeJSON(w, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buildingID := s.getBuildingID(r)
	runID := r.PathValue("runID")

	run, err := s.storage.GetRun(ctx, buildingID, runID)
	if err != nil {
		if errors.Is(err, storage.ErrRunNotFound) {
			writeJSONError(w, "run not found", http.StatusNotFound)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to get run", slog.String("runID", runID), slog.Any("error", err))
		writeJSONError(w, "failed to get run", http.StatusInternalServerError)
		return
	}
	// runs never change once stored
	w.Header().Set("Cache-Control", "private, max-age=86400")
	writeJSON(w, run)
}

// parseTimeRange reads the start and end query parameters. Both default
// to the 30 days ending at now.
func parseTimeRange(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	end := now
	if endStr != "" {
		var err error
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
		}
	}
	start := end.Add(-defaultRunsRange)
	if startStr != "" {
		var err error
		start, err = time.Parse(time.RFC3339, startStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
		}
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("start time must be before end time")
	}
	if end.Sub(start) > maxRunsRange {
		return time.Time{}, time.Time{}, fmt.Errorf("time range cannot exceed 366 days")
	}
	return start, end, nil
}
