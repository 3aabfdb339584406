package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jwebster45206/world-engine/pkg/scenario"
)

var ErrScenarioNotFound = errors.New("scenario not found")

// Scenario operations (filesystem-backed)

// ListScenarios maps scenario names to file names. Files that fail to load are skipped.
func (r *RedisStorage) ListScenarios(ctx context.Context) (map[string]string, error) {
	scenariosDir := filepath.Join(r.dataDir, "scenarios")
	scenarios := make(map[string]string)

	err := filepath.WalkDir(scenariosDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !scenario.IsScenarioFile(path) {
			return nil
		}
		s, err := scenario.Load(path)
		if err != nil {
			r.logger.Warn("Failed to load scenario file", "path", path, "error", err)
			return nil
		}
		scenarios[s.Name] = s.FileName
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to walk scenarios directory", "error", err)
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	return scenarios, nil
}

// GetScenario loads a scenario by file name.
func (r *RedisStorage) GetScenario(ctx context.Context, filename string) (*scenario.Scenario, error) {
	if filename != filepath.Base(filename) || !scenario.IsScenarioFile(filename) {
		return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, filename)
	}
	path := filepath.Join(r.dataDir, "scenarios", filename)
	r.logger.Debug("Loading scenario", "filename", filename, "full_path", path)

	s, err := scenario.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, filename)
		}
		return nil, err
	}
	return s, nil
}
