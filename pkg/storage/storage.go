package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/cogenplan/cogenplan/pkg/types"
)

var (
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrRunNotFound      = errors.New("run not found")
	ErrEmptyBuildingID  = errors.New("buildingID cannot be empty")
)

// Database persists building scenarios and analysis runs.
type Database interface {
	// Scenarios
	// GetScenario returns the stored scenario and the version it was
	// stored with. It returns ErrScenarioNotFound if none was stored.
	GetScenario(ctx context.Context, buildingID string) (types.Scenario, int, error)
	SetScenario(ctx context.Context, buildingID string, scenario types.Scenario, version int) error

	// Runs
	InsertRun(ctx context.Context, run types.Run) error
	GetRun(ctx context.Context, buildingID, runID string) (types.Run, error)
	// GetRuns returns the runs created in [start, end) ordered by creation
	// time.
	GetRuns(ctx context.Context, buildingID string, start, end time.Time) ([]types.Run, error)

	// Lifecycle
	Close() error
}

// Configured sets up the Storage provider based on flags.
func Configured() Database {
	provider := lflag.String("storage-provider", "firestore", "Storage provider to use (available: firestore, memory)")

	var p struct{ Database }

	fs := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			p.Database = fs
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
		case "memory":
			p.Database = NewMemory()
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
	})

	return &p
}

// runDocID orders runs by creation time and keeps runs created in the
// same second apart.
func runDocID(run types.Run) string {
	return run.CreatedAt.UTC().Format(time.RFC3339) + "_" + run.ID
}

// runRange returns the document IDs bounding runs created in [start, end).
// Document IDs have second precision so a partial second at end is
// rounded up.
func runRange(start, end time.Time) (string, string) {
	end = end.UTC()
	if t := end.Truncate(time.Second); !t.Equal(end) {
		end = t.Add(time.Second)
	}
	return start.UTC().Format(time.RFC3339), end.Format(time.RFC3339)
}
