package storagemock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/cogenplan/cogenplan/pkg/storage"
	"github.com/cogenplan/cogenplan/pkg/types"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) GetScenario(ctx context.Context, buildingID string) (types.Scenario, int, error) {
	args := m.Called(ctx, buildingID)
	// return empty if not specified, or checks args
	if len(args) > 0 {
		return args.Get(0).(types.Scenario), args.Int(1), args.Error(2)
	}
	return types.Scenario{}, 0, nil
}

func (m *MockDatabase) SetScenario(ctx context.Context, buildingID string, scenario types.Scenario, version int) error {
	args := m.Called(ctx, buildingID, scenario, version)
	return args.Error(0)
}

func (m *MockDatabase) InsertRun(ctx context.Context, run types.Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockDatabase) GetRun(ctx context.Context, buildingID, runID string) (types.Run, error) {
	args := m.Called(ctx, buildingID, runID)
	if len(args) > 0 {
		return args.Get(0).(types.Run), args.Error(1)
	}
	return types.Run{}, nil
}

func (m *MockDatabase) GetRuns(ctx context.Context, buildingID string, start, end time.Time) ([]types.Run, error) {
	args := m.Called(ctx, buildingID, start, end)
	if len(args) > 0 {
		if args.Get(0) == nil {
			return nil, args.Error(1)
		}
		return args.Get(0).([]types.Run), args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
