// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/rnamediator/pkg/types"
)

// ManifestName is the file written next to the collections after each run.
const ManifestName = "run.yaml"

// Manifest records what a run was asked to do and what it did.
type Manifest struct {
	Config  types.CollectConfig `json:"config" yaml:"config"`
	Summary Summary             `json:"summary" yaml:"summary"`
	LogFile string              `json:"log_file,omitempty" yaml:"log_file,omitempty"`
}

// WriteManifest writes m to dir/run.yaml, replacing the previous run's.
func WriteManifest(dir string, m Manifest) (string, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshaling manifest: %w", err)
	}
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing manifest: %w", err)
	}
	return path, nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("reading manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return m, nil
}
