package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cogenplan/cogenplan/pkg/types"
)

type storedScenario struct {
	json    []byte
	version int
}

// Memory is an in-process Database for local runs and tests. Values are
// stored as JSON so callers never share memory with the store.
type Memory struct {
	mu        sync.RWMutex
	scenarios map[string]storedScenario
	// runs maps buildingID to docID to JSON
	runs map[string]map[string][]byte
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{
		scenarios: map[string]storedScenario{},
		runs:      map[string]map[string][]byte{},
	}
}

func (m *Memory) GetScenario(_ context.Context, buildingID string) (types.Scenario, int, error) {
	if buildingID == "" {
		return types.Scenario{}, 0, ErrEmptyBuildingID
	}
	m.mu.RLock()
	stored, ok := m.scenarios[buildingID]
	m.mu.RUnlock()
	if !ok {
		return types.Scenario{}, 0, fmt.Errorf("%w: %s", ErrScenarioNotFound, buildingID)
	}
	var s types.Scenario
	if err := json.Unmarshal(stored.json, &s); err != nil {
		return types.Scenario{}, 0, fmt.Errorf("failed to unmarshal scenario: %w", err)
	}
	return s, stored.version, nil
}

func (m *Memory) SetScenario(_ context.Context, buildingID string, scenario types.Scenario, version int) error {
	if buildingID == "" {
		return ErrEmptyBuildingID
	}
	b, err := json.Marshal(scenario)
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}
	m.mu.Lock()
	m.scenarios[buildingID] = storedScenario{json: b, version: version}
	m.mu.Unlock()
	return nil
}

func (m *Memory) InsertRun(_ context.Context, run types.Run) error {
	if run.BuildingID == "" {
		return ErrEmptyBuildingID
	}
	if run.ID == "" {
		return fmt.Errorf("run missing id")
	}
	b, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	runs, ok := m.runs[run.BuildingID]
	if !ok {
		runs = map[string][]byte{}
		m.runs[run.BuildingID] = runs
	}
	id := runDocID(run)
	if _, ok := runs[id]; ok {
		return fmt.Errorf("failed to insert run %s: already exists", run.ID)
	}
	runs[id] = b
	return nil
}

func (m *Memory) GetRun(_ context.Context, buildingID, runID string) (types.Run, error) {
	if buildingID == "" {
		return types.Run{}, ErrEmptyBuildingID
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, b := range m.runs[buildingID] {
		if !strings.HasSuffix(id, "_"+runID) {
			continue
		}
		var run types.Run
		if err := json.Unmarshal(b, &run); err != nil {
			return types.Run{}, fmt.Errorf("failed to unmarshal run %s: %w", runID, err)
		}
		return run, nil
	}
	return types.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
}

func (m *Memory) GetRuns(_ context.Context, buildingID string, start, end time.Time) ([]types.Run, error) {
	if buildingID == "" {
		return nil, ErrEmptyBuildingID
	}
	startID, endID := runRange(start, end)

	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id := range m.runs[buildingID] {
		if id >= startID && id < endID {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	runs := make([]types.Run, 0, len(ids))
	for _, id := range ids {
		var run types.Run
		if err := json.Unmarshal(m.runs[buildingID][id], &run); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run %s: %w", id, err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (m *Memory) Close() error {
	return nil
}
