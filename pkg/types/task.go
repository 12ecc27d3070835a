// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// FileTriplet pairs one raw accessibility file with its constrained companions.
// UnpairedPath is always set; PairedPath is empty when no paired-constraint
// file matched.
type FileTriplet struct {
	Gene         string `json:"gene" yaml:"gene"`
	RawPath      string `json:"raw_path" yaml:"raw_path"`
	UnpairedPath string `json:"unpaired_path" yaml:"unpaired_path"`
	PairedPath   string `json:"paired_path,omitempty" yaml:"paired_path,omitempty"`
}

// HasPaired reports whether a paired-constraint file is part of the triplet.
func (t FileTriplet) HasPaired() bool {
	return t.PairedPath != ""
}

// Task is one unit of scoring work: one raw file of one gene.
type Task struct {
	Files   FileTriplet `json:"files" yaml:"files"`
	Gene    GeneRecord  `json:"gene" yaml:"gene"`
	Padding int         `json:"padding" yaml:"padding"`
}
