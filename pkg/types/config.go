// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strconv"
	"strings"
)

// LogConfig holds the log sink settings.
type LogConfig struct {
	// Dir is the directory for log files (default "LOGS").
	Dir string `json:"dir" yaml:"dir"`

	// Level is the minimum severity: DEBUG, INFO, WARNING or ERROR.
	Level string `json:"level" yaml:"level"`
}

// ScoringConfig holds the thresholds applied to every position.
type ScoringConfig struct {
	// Cutoff is the maximum absolute mean raw accessibility over the
	// constraint span for a task to be scored.
	Cutoff float64 `json:"cutoff" yaml:"cutoff"`

	// Border is the minimum absolute accessibility difference for a position
	// to be reported.
	Border float64 `json:"border" yaml:"border"`

	// Ulimit is the flank width (unpaired stretch length) of the profiles.
	Ulimit int `json:"ulimit" yaml:"ulimit"`

	// Padding is the distance around the constraint excluded from reporting.
	Padding int `json:"padding" yaml:"padding"`
}

// CollectConfig holds settings for the collect stage.
type CollectConfig struct {
	ScoringConfig `yaml:",inline"`

	// Dir is the root directory holding one subdirectory per gene.
	Dir string `json:"dir" yaml:"dir"`

	// Genes is the path to the BED6 gene annotation (plain or gzip).
	Genes string `json:"genes" yaml:"genes"`

	// OutDir is the directory for Collection_*.bed.gz and run.yaml.
	OutDir string `json:"outdir" yaml:"outdir"`

	// Pattern is "<window>,<span>".
	Pattern string `json:"pattern" yaml:"pattern"`

	// Temperature is the folding temperature as used in file names.
	Temperature string `json:"temperature" yaml:"temperature"`

	// Procs is the number of concurrent workers (default 1).
	Procs int `json:"procs" yaml:"procs"`

	// Unconstrained is the marker token of raw files (default "raw").
	Unconstrained string `json:"unconstrained" yaml:"unconstrained"`

	Log LogConfig `json:"log" yaml:"log"`
}

// WindowSpan parses Pattern into window and span.
func (c CollectConfig) WindowSpan() (window, span int, err error) {
	parts := strings.Split(c.Pattern, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("pattern %q: expected \"<window>,<span>\"", c.Pattern)
	}
	if window, err = strconv.Atoi(strings.TrimSpace(parts[0])); err != nil {
		return 0, 0, fmt.Errorf("pattern %q: window: %w", c.Pattern, err)
	}
	if span, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil {
		return 0, 0, fmt.Errorf("pattern %q: span: %w", c.Pattern, err)
	}
	return window, span, nil
}

// Validate reports the first configuration error.
func (c CollectConfig) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("input directory is required")
	}
	if c.Genes == "" {
		return fmt.Errorf("gene annotation is required")
	}
	if _, _, err := c.WindowSpan(); err != nil {
		return err
	}
	if c.Ulimit < 1 {
		return fmt.Errorf("ulimit must be >= 1, got %d", c.Ulimit)
	}
	if c.Padding < 0 {
		return fmt.Errorf("padding must be >= 0, got %d", c.Padding)
	}
	if c.Procs < 0 {
		return fmt.Errorf("procs must be >= 0, got %d", c.Procs)
	}
	if c.Unconstrained == "" {
		return fmt.Errorf("unconstrained marker is required")
	}
	return nil
}

// IndexConfig holds settings for the interval store.
type IndexConfig struct {
	// DBPath is the SQLite database file.
	DBPath string `json:"db_path" yaml:"db_path"`

	// MaxResults is the default maximum number of query results (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
