package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cogenplan/cogenplan/pkg/log"
	"github.com/cogenplan/cogenplan/pkg/types"
)

// FirestoreProvider implements Database using Google Cloud Firestore.
// Scenarios live at buildings/{id}/config/scenario and runs in the
// buildings/{id}/runs collection, both as JSON blobs.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// the firestore client only reads the emulator from the environment
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured. An empty
// project ID is detected from the environment.
func (f *FirestoreProvider) Validate() error {
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *FirestoreProvider) getCollection(buildingID, name string) (*firestore.CollectionRef, error) {
	if buildingID == "" {
		return nil, ErrEmptyBuildingID
	}
	return f.client.Collection("buildings").Doc(buildingID).Collection(name), nil
}

// jsonField reads the "json" field of doc into v.
func jsonField(ctx context.Context, doc *firestore.DocumentSnapshot, v any) error {
	val, err := doc.DataAt("json")
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "doc missing json", slog.String("docPath", doc.Ref.Path), slog.Any("err", err))
		return fmt.Errorf("document %s missing 'json' field: %w", doc.Ref.ID, err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		log.Ctx(ctx).WarnContext(ctx, "doc json not string", slog.String("docPath", doc.Ref.Path))
		return fmt.Errorf("document %s 'json' field is not a string", doc.Ref.ID)
	}
	if err := json.Unmarshal([]byte(jsonStr), v); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal doc json", slog.String("docPath", doc.Ref.Path), slog.Any("err", err))
		return fmt.Errorf("failed to unmarshal document %s: %w", doc.Ref.ID, err)
	}
	return nil
}

// GetScenario retrieves the scenario from the "config/scenario" document.
func (f *FirestoreProvider) GetScenario(ctx context.Context, buildingID string) (types.Scenario, int, error) {
	coll, err := f.getCollection(buildingID, "config")
	if err != nil {
		return types.Scenario{}, 0, err
	}
	doc, err := coll.Doc("scenario").Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Scenario{}, 0, fmt.Errorf("%w: %s", ErrScenarioNotFound, buildingID)
		}
		return types.Scenario{}, 0, fmt.Errorf("failed to fetch scenario doc: %w", err)
	}

	// Read version if available (default 0)
	var version int
	if v, err := doc.DataAt("version"); err == nil {
		if vInt, ok := v.(int64); ok {
			version = int(vInt)
		}
	}

	var s types.Scenario
	if err := jsonField(ctx, doc, &s); err != nil {
		return types.Scenario{}, 0, err
	}
	return s, version, nil
}

// SetScenario saves the scenario to the "config/scenario" document.
func (f *FirestoreProvider) SetScenario(ctx context.Context, buildingID string, scenario types.Scenario, version int) error {
	jsonBytes, err := json.Marshal(scenario)
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}

	coll, err := f.getCollection(buildingID, "config")
	if err != nil {
		return err
	}
	_, err = coll.Doc("scenario").Set(ctx, map[string]interface{}{
		"json":    string(jsonBytes),
		"version": version,
	})
	if err != nil {
		return fmt.Errorf("failed to save scenario: %w", err)
	}
	return nil
}

// InsertRun adds a run to the "runs" collection. The document ID starts
// with the RFC3339 creation time for range queries.
func (f *FirestoreProvider) InsertRun(ctx context.Context, run types.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run missing id")
	}
	jsonBytes, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	coll, err := f.getCollection(run.BuildingID, "runs")
	if err != nil {
		return err
	}
	_, err = coll.Doc(runDocID(run)).Create(ctx, map[string]interface{}{
		"json":      string(jsonBytes),
		"id":        run.ID,
		"timestamp": run.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun retrieves a single run by its ID.
func (f *FirestoreProvider) GetRun(ctx context.Context, buildingID, runID string) (types.Run, error) {
	coll, err := f.getCollection(buildingID, "runs")
	if err != nil {
		return types.Run{}, err
	}
	iter := coll.Where("id", "==", runID).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return types.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return types.Run{}, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	var run types.Run
	if err := jsonField(ctx, doc, &run); err != nil {
		return types.Run{}, err
	}
	return run, nil
}

// GetRuns retrieves the runs created within the specified time range.
// Uses document ID range queries for efficient filtering.
func (f *FirestoreProvider) GetRuns(ctx context.Context, buildingID string, start, end time.Time) ([]types.Run, error) {
	startDocID, endDocID := runRange(start, end)

	coll, err := f.getCollection(buildingID, "runs")
	if err != nil {
		return nil, err
	}
	iter := coll.
		Where(firestore.DocumentID, ">=", coll.Doc(startDocID)).
		Where(firestore.DocumentID, "<", coll.Doc(endDocID)).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var runs []types.Run
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating runs: %w", err)
		}
		var run types.Run
		if err := jsonField(ctx, doc, &run); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}
