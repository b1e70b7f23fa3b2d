// Package config loads scenario files.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/levenlabs/go-lflag"
	"gopkg.in/yaml.v3"

	"github.com/cogenplan/cogenplan/pkg/log"
	"github.com/cogenplan/cogenplan/pkg/types"
)

// file is the on-disk form of a scenario. Files without a version are
// treated as version 0 and receive every default.
type file struct {
	Version        int `yaml:"version"`
	types.Scenario `yaml:",inline"`
}

// Decode parses, migrates and validates a YAML scenario. Unknown fields
// are rejected.
func Decode(ctx context.Context, r io.Reader) (types.Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return types.Scenario{}, fmt.Errorf("%w: empty scenario file", types.ErrInvalidConfig)
		}
		return types.Scenario{}, fmt.Errorf("%w: failed to parse scenario: %w", types.ErrInvalidConfig, err)
	}

	s, migrated, err := types.MigrateScenario(f.Scenario, f.Version)
	if err != nil {
		return types.Scenario{}, fmt.Errorf("failed to migrate scenario: %w", err)
	}
	if migrated {
		log.Ctx(ctx).DebugContext(
			ctx,
			"applied scenario defaults",
			slog.Int("fromVersion", f.Version),
			slog.Int("toVersion", types.CurrentScenarioVersion),
		)
	}
	if err := s.Validate(); err != nil {
		return types.Scenario{}, err
	}
	return s, nil
}

// Load reads the scenario at path. A relative demand file is resolved
// against the scenario's directory.
func Load(ctx context.Context, path string) (types.Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return types.Scenario{}, fmt.Errorf("failed to read scenario: %w", err)
	}
	s, err := Decode(ctx, bytes.NewReader(b))
	if err != nil {
		return types.Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	if s.Demand.File != "" && !filepath.IsAbs(s.Demand.File) {
		s.Demand.File = filepath.Join(filepath.Dir(path), s.Demand.File)
	}
	return s, nil
}

// Encode writes s as YAML at the current version.
func Encode(w io.Writer, s types.Scenario) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file{Version: types.CurrentScenarioVersion, Scenario: s}); err != nil {
		return fmt.Errorf("failed to encode scenario: %w", err)
	}
	return enc.Close()
}

// Configured registers the scenario flag and loads the file once flags are
// parsed.
func Configured() *types.Scenario {
	path := lflag.String("scenario", "", "Path to the scenario YAML file")

	var s types.Scenario
	lflag.Do(func() {
		if *path == "" {
			panic("scenario is required")
		}
		loaded, err := Load(context.Background(), *path)
		if err != nil {
			panic(fmt.Sprintf("failed to load scenario: %v", err))
		}
		s = loaded
	})
	return &s
}
