// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package coords converts window-local profile indices into genomic
// coordinates. Profiles are always stored 5'->3' in transcript orientation,
// so windows of minus-strand genes are mirrored across the gene end before
// any genomic coordinate is reported.
package coords

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/rnamediator/pkg/types"
)

// ErrNegativeCoordinate is returned when a re-based constraint or window
// bound is negative.
var ErrNegativeCoordinate = errors.New("negative coordinate")

// Span is a closed integer interval.
type Span struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// ParseSpan parses "start-end".
func ParseSpan(s string) (Span, error) {
	a, b, ok := strings.Cut(s, "-")
	if !ok {
		return Span{}, fmt.Errorf("span %q: missing '-'", s)
	}
	start, err := strconv.Atoi(a)
	if err != nil {
		return Span{}, fmt.Errorf("span %q: start: %w", s, err)
	}
	end, err := strconv.Atoi(b)
	if err != nil {
		return Span{}, fmt.Errorf("span %q: end: %w", s, err)
	}
	return Span{Start: start, End: end}, nil
}

func (s Span) String() string {
	return strconv.Itoa(s.Start) + "-" + strconv.Itoa(s.End)
}

// Reflect mirrors s across end. Reflect is its own inverse for a fixed end.
func Reflect(s Span, end int) Span {
	return Span{Start: end - s.End, End: end - s.Start}
}

// ToGenomic converts a 1-based window span relative to the gene into 0-based
// genomic coordinates. Plus-strand windows are shifted by the gene start;
// minus-strand windows are reflected across the gene end.
func ToGenomic(region Span, gene types.GeneRecord) Span {
	if gene.Strand.IsMinus() {
		return Reflect(region, gene.End)
	}
	return Span{
		Start: region.Start + gene.Start - 2,
		End:   region.End + gene.Start - 2,
	}
}

// Window is a resolved folding window: the constraint re-based into the
// window's 0-based closed frame and the window's genomic bounds.
type Window struct {
	// Constraint holds cs and ce, 0-based closed indices into the profile.
	Constraint Span `json:"constraint" yaml:"constraint"`

	// Genomic holds ws and we after the strand-aware transform.
	Genomic Span `json:"genomic" yaml:"genomic"`

	Strand types.Strand `json:"strand" yaml:"strand"`
}

// Resolve re-bases constraint into region's local frame and computes the
// genomic window for gene. Every re-based or window bound must be
// non-negative.
func Resolve(constraint, region Span, gene types.GeneRecord) (Window, error) {
	cs := constraint.Start - region.Start
	ce := constraint.End - region.Start

	for _, v := range []struct {
		name string
		val  int
	}{
		{"constraint start", cs},
		{"constraint end", ce},
		{"window start", region.Start},
		{"window end", region.End},
	} {
		if v.val < 0 {
			return Window{}, fmt.Errorf("%s is %d for constraint %s in window %s: %w",
				v.name, v.val, constraint, region, ErrNegativeCoordinate)
		}
	}

	return Window{
		Constraint: Span{Start: cs, End: ce},
		Genomic:    ToGenomic(region, gene),
		Strand:     gene.Strand,
	}, nil
}

// Position returns the 0-based half-open genomic interval reported for
// profile index pos with flank ulim.
func (w Window) Position(pos, ulim int) (start, end int) {
	if w.Strand.IsMinus() {
		start = w.Genomic.End - pos
	} else {
		start = pos + w.Genomic.Start - ulim + 1
	}
	return start, start + ulim
}

// ConstraintGenomic returns the genomic span of the constraint.
func (w Window) ConstraintGenomic() Span {
	cs, ce := w.Constraint.Start, w.Constraint.End
	if w.Strand.IsMinus() {
		return Span{Start: w.Genomic.End - ce - 1, End: w.Genomic.End - cs}
	}
	return Span{Start: cs + w.Genomic.Start + 1, End: ce + w.Genomic.Start + 2}
}

// Distance returns the signed distance of pos to the constraint: positive
// before the constraint start, negative after the constraint end.
func (w Window) Distance(pos int) int {
	if pos > w.Constraint.End {
		return -(pos - w.Constraint.End)
	}
	return w.Constraint.Start - pos
}

// Excluded reports whether pos lies in the zone around the constraint that
// is never reported: [cs-padding+1-ulim, ce+padding+ulim].
func (w Window) Excluded(pos, padding, ulim int) bool {
	lo := w.Constraint.Start - padding + 1 - ulim
	hi := w.Constraint.End + padding + ulim
	return pos >= lo && pos <= hi
}
