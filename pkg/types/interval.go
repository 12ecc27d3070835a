// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strconv"
	"strings"
)

// ConstraintKind identifies which constrained profile produced an interval.
type ConstraintKind string

const (
	KindUnpaired ConstraintKind = "unpaired"
	KindPaired   ConstraintKind = "paired"
)

// CollectionName returns the output file name for intervals of this kind.
func (k ConstraintKind) CollectionName() string {
	return "Collection_" + string(k) + ".bed.gz"
}

// IntervalFieldCount is the number of tab-separated columns in a serialized
// ScoredInterval.
const IntervalFieldCount = 13

// ScoredInterval is one reportable position: a genomic interval whose
// accessibility changes when the constraint is applied.
type ScoredInterval struct {
	// Chrom is the chromosome taken from the raw file name.
	Chrom string `json:"chrom" yaml:"chrom"`

	// Start and End are 0-based half-open genomic coordinates.
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`

	// ID is gene|constraint-span|constraint-genomic-span.
	ID string `json:"id" yaml:"id"`

	// Value is the constrained-profile value (accessibility difference) at this position.
	Value float64 `json:"value" yaml:"value"`

	// Strand is the strand taken from the raw file name.
	Strand Strand `json:"strand" yaml:"strand"`

	// Distance is the signed distance to the constraint: positive upstream of
	// the constraint start, negative downstream of the constraint end.
	Distance int `json:"distance" yaml:"distance"`

	// Unconstrained is the raw accessibility at this position.
	Unconstrained float64 `json:"unconstrained" yaml:"unconstrained"`

	// Preconstraint is raw plus constrained accessibility.
	Preconstraint float64 `json:"preconstraint" yaml:"preconstraint"`

	// Energy is RT*ln(|Value|).
	Energy float64 `json:"energy" yaml:"energy"`

	// Kd is exp(Energy/RT).
	Kd float64 `json:"kd" yaml:"kd"`

	// ZScore is the standard score of Kd over the whole profile.
	ZScore float64 `json:"zscore" yaml:"zscore"`

	// MeanConstraintAccessibility is the mean raw accessibility over the constraint span.
	MeanConstraintAccessibility float64 `json:"mean_constraint_accessibility" yaml:"mean_constraint_accessibility"`
}

// CompositeID builds the interval name column.
func CompositeID(gene, cons, genomicCons string) string {
	return gene + "|" + cons + "|" + genomicCons
}

// Gene returns the gene part of the composite ID.
func (s ScoredInterval) Gene() string {
	gene, _, _ := strings.Cut(s.ID, "|")
	return gene
}

// Constraint returns the window-relative constraint span part of the composite ID.
func (s ScoredInterval) Constraint() string {
	parts := strings.SplitN(s.ID, "|", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// Fields returns the interval columns in output order.
func (s ScoredInterval) Fields() []string {
	return []string{
		s.Chrom,
		strconv.Itoa(s.Start),
		strconv.Itoa(s.End),
		s.ID,
		formatFloat(s.Value),
		string(s.Strand),
		strconv.Itoa(s.Distance),
		formatFloat(s.Unconstrained),
		formatFloat(s.Preconstraint),
		formatFloat(s.Energy),
		formatFloat(s.Kd),
		formatFloat(s.ZScore),
		formatFloat(s.MeanConstraintAccessibility),
	}
}

// String returns the tab-joined BED-like line without a trailing newline.
func (s ScoredInterval) String() string {
	return strings.Join(s.Fields(), "\t")
}

// ParseScoredInterval parses one line produced by ScoredInterval.String.
func ParseScoredInterval(line string) (ScoredInterval, error) {
	f := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(f) != IntervalFieldCount {
		return ScoredInterval{}, fmt.Errorf("expected %d columns, got %d", IntervalFieldCount, len(f))
	}

	var (
		s   ScoredInterval
		err error
	)
	s.Chrom = f[0]
	s.ID = f[3]
	s.Strand = Strand(f[5])
	if s.Start, err = strconv.Atoi(f[1]); err != nil {
		return ScoredInterval{}, fmt.Errorf("parsing start: %w", err)
	}
	if s.End, err = strconv.Atoi(f[2]); err != nil {
		return ScoredInterval{}, fmt.Errorf("parsing end: %w", err)
	}
	if s.Distance, err = strconv.Atoi(f[6]); err != nil {
		return ScoredInterval{}, fmt.Errorf("parsing distance: %w", err)
	}

	floats := []struct {
		dst  *float64
		col  int
		name string
	}{
		{&s.Value, 4, "value"},
		{&s.Unconstrained, 7, "unconstrained"},
		{&s.Preconstraint, 8, "preconstraint"},
		{&s.Energy, 9, "energy"},
		{&s.Kd, 10, "kd"},
		{&s.ZScore, 11, "zscore"},
		{&s.MeanConstraintAccessibility, 12, "mean constraint accessibility"},
	}
	for _, fl := range floats {
		v, err := strconv.ParseFloat(f[fl.col], 64)
		if err != nil {
			return ScoredInterval{}, fmt.Errorf("parsing %s: %w", fl.name, err)
		}
		*fl.dst = v
	}
	return s, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ResultBundle holds the intervals produced by one task, split by constraint kind.
type ResultBundle struct {
	Unpaired []ScoredInterval `json:"unpaired" yaml:"unpaired"`
	Paired   []ScoredInterval `json:"paired" yaml:"paired"`
}

// Lines returns the serialized intervals of the given kind.
func (b ResultBundle) Lines(kind ConstraintKind) []string {
	src := b.Unpaired
	if kind == KindPaired {
		src = b.Paired
	}
	lines := make([]string, len(src))
	for i, s := range src {
		lines[i] = s.String()
	}
	return lines
}

// Len returns the total number of intervals in the bundle.
func (b ResultBundle) Len() int {
	return len(b.Unpaired) + len(b.Paired)
}

// IsEmpty reports whether the bundle carries no intervals.
func (b ResultBundle) IsEmpty() bool {
	return b.Len() == 0
}
