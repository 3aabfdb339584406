package scenario

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported scenario format")
	ErrInvalidScenario   = errors.New("invalid scenario")
)

// Load reads a scenario file. The format follows the extension: .json, .yaml or .yml.
// Unknown fields are rejected so typos surface at load time.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	s.FileName = filepath.Base(path)
	return s, nil
}

// Parse decodes a scenario in the format named by ext.
func Parse(data []byte, ext string) (*Scenario, error) {
	var s Scenario
	switch strings.ToLower(ext) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scenario: %w", err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scenario: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	s.normalize()
	return &s, nil
}

// normalize fills NPC ids from their map keys.
func (s *Scenario) normalize() {
	for id, spec := range s.NPCs {
		if spec.ID == "" {
			spec.ID = id
			s.NPCs[id] = spec
		}
	}
	if s.Player.ID == "" {
		s.Player.ID = "player"
	}
}

// IsScenarioFile reports whether a file name has a scenario extension.
func IsScenarioFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

var (
	validIDRegex       = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
	validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}

// ValidFileName reports whether a scenario file name is lowercase snake_case.
// An "x." prefix marks an experimental scenario.
func ValidFileName(name string) bool {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.TrimPrefix(base, "x.")
	return validFilenameRegex.MatchString(base)
}
