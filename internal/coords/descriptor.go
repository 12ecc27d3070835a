// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package coords

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdiddy/rnamediator/pkg/types"
)

// ErrMalformedName is returned when a profile file name does not follow
// <gene>_<chrom>_<strand>_<cons>_<reg>_<marker>_<window>_<span>_<temp>.npy.
var ErrMalformedName = errors.New("malformed profile file name")

const descriptorTokens = 8

// Descriptor holds the metadata encoded in a raw profile file name.
type Descriptor struct {
	Gene        string       `json:"gene" yaml:"gene"`
	Chrom       string       `json:"chrom" yaml:"chrom"`
	Strand      types.Strand `json:"strand" yaml:"strand"`
	Constraint  Span         `json:"constraint" yaml:"constraint"`
	Region      Span         `json:"region" yaml:"region"`
	Marker      string       `json:"marker" yaml:"marker"`
	Window      string       `json:"window" yaml:"window"`
	SpanLen     string       `json:"span" yaml:"span"`
	Temperature string       `json:"temperature" yaml:"temperature"`

	// ConstraintText is the constraint token exactly as written in the name.
	ConstraintText string `json:"constraint_text" yaml:"constraint_text"`
}

// ParseDescriptor extracts the descriptor from path. The gene prefix is
// removed once; the remainder must split on '_' into exactly eight tokens.
func ParseDescriptor(path, gene string) (Descriptor, error) {
	base := filepath.Base(path)
	rest := strings.Replace(base, gene+"_", "", 1)
	tok := strings.Split(rest, "_")
	if len(tok) != descriptorTokens {
		return Descriptor{}, fmt.Errorf("%s: %d tokens after gene %q: %w", base, len(tok), gene, ErrMalformedName)
	}

	cons, err := ParseSpan(tok[2])
	if err != nil {
		return Descriptor{}, fmt.Errorf("%s: constraint: %v: %w", base, err, ErrMalformedName)
	}
	reg, err := ParseSpan(tok[3])
	if err != nil {
		return Descriptor{}, fmt.Errorf("%s: region: %v: %w", base, err, ErrMalformedName)
	}

	return Descriptor{
		Gene:           gene,
		Chrom:          tok[0],
		Strand:         types.Strand(tok[1]),
		Constraint:     cons,
		Region:         reg,
		Marker:         tok[4],
		Window:         tok[5],
		SpanLen:        tok[6],
		Temperature:    strings.TrimSuffix(tok[7], filepath.Ext(tok[7])),
		ConstraintText: tok[2],
	}, nil
}

// Resolve resolves the descriptor's window against gene.
func (d Descriptor) Resolve(gene types.GeneRecord) (Window, error) {
	return Resolve(d.Constraint, d.Region, gene)
}
