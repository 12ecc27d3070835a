// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score compares an unconstrained accessibility profile with its
// constrained counterparts and reports the positions, away from the
// constraint, whose accessibility changes enough to matter.
//
// For every constrained profile c the per-position values are
//
//	effective = raw + c
//	energy    = RT * ln(|c|)
//	kd        = exp(energy / RT)
//	z         = (kd - mean(kd)) / std(kd)
//
// with RT fixed at 37 degC. Non-positive log arguments yield NaN, and NaN
// values never reach the output.
package score

import (
	"errors"
	"fmt"
	"math"

	"github.com/pdiddy/rnamediator/internal/coords"
	"github.com/pdiddy/rnamediator/pkg/types"
)

const (
	// GasConstant is R in kcal/(mol K), negated for the energy sign convention.
	GasConstant = -1.9872041e-3

	// ReferenceCelsius is the temperature at which RT is evaluated.
	ReferenceCelsius = 37.0

	// Epsilon is added to the effective accessibility before any downstream
	// arithmetic and removed again before it is reported.
	Epsilon = 1e-50
)

// RT is the gas constant times the absolute reference temperature.
var RT = GasConstant * (ReferenceCelsius + 273.15)

var (
	// ErrLengthMismatch is returned when profiles of one task differ in length.
	ErrLengthMismatch = errors.New("profile length mismatch")

	// ErrConstraintOutOfRange is returned when the constraint does not fit the profile.
	ErrConstraintOutOfRange = errors.New("constraint outside profile")
)

// Params holds the thresholds of a scoring run.
type Params struct {
	// Ulimit is the flank width of the profiles.
	Ulimit int
	// Padding is the distance around the constraint never reported.
	Padding int
	// Cutoff bounds the absolute mean raw accessibility over the constraint.
	Cutoff float64
	// Border is the minimum absolute constrained value reported.
	Border float64
}

// ParamsFrom converts the configured thresholds.
func ParamsFrom(c types.ScoringConfig) Params {
	return Params{Ulimit: c.Ulimit, Padding: c.Padding, Cutoff: c.Cutoff, Border: c.Border}
}

// Input holds one task's resolved window and loaded profiles. Paired is nil
// when the task has no paired-constraint profile.
type Input struct {
	Desc     coords.Descriptor
	Window   coords.Window
	Raw      []float64
	Unpaired []float64
	Paired   []float64
}

// Track holds the derived per-position values of one constrained profile.
type Track struct {
	Kind      types.ConstraintKind
	Values    []float64
	Effective []float64
	Energy    []float64
	Kd        []float64
	Z         []float64
}

// NewTrack derives the effective accessibility, energy, kd and z-score of
// constrained against raw. Both slices must have the same length.
func NewTrack(kind types.ConstraintKind, raw, constrained []float64) Track {
	n := len(constrained)
	t := Track{
		Kind:      kind,
		Values:    constrained,
		Effective: make([]float64, n),
		Energy:    make([]float64, n),
		Kd:        make([]float64, n),
	}
	for i, c := range constrained {
		t.Effective[i] = raw[i] + c + Epsilon
		t.Energy[i] = Energy(c)
		t.Kd[i] = math.Exp(t.Energy[i] / RT)
	}
	t.Z = ZScores(t.Kd)
	return t
}

// ClampLog returns ln(x), or NaN when x is not positive.
func ClampLog(x float64) float64 {
	if !(x > 0) {
		return math.NaN()
	}
	return math.Log(x)
}

// Energy returns RT*ln(|c|); zero and NaN inputs give NaN.
func Energy(c float64) float64 {
	return RT * ClampLog(math.Abs(c))
}

// ZScores standardises xs with the population standard deviation, ignoring
// NaN entries. A constant series gives 0 everywhere; a series without any
// number gives NaN everywhere.
func ZScores(xs []float64) []float64 {
	out := make([]float64, len(xs))

	n, sum := 0, 0.0
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		n++
		sum += x
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if n == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	if lo == hi {
		return out
	}

	mean := sum / float64(n)
	var ss float64
	for _, x := range xs {
		if !math.IsNaN(x) {
			ss += (x - mean) * (x - mean)
		}
	}
	std := math.Sqrt(ss / float64(n))
	if std == 0 {
		return out
	}
	for i, x := range xs {
		out[i] = (x - mean) / std
	}
	return out
}

// NaNMean returns the mean of the non-NaN values and whether any existed.
func NaNMean(xs []float64) (float64, bool) {
	var (
		n   int
		sum float64
	)
	for _, x := range xs {
		if !math.IsNaN(x) {
			n++
			sum += x
		}
	}
	if n == 0 {
		return math.NaN(), false
	}
	return sum / float64(n), true
}

// Eligible reports whether the constraint region of raw is scoreable: it
// must hold at least one number and its mean must not exceed cutoff in
// absolute value. It also returns that mean.
func Eligible(raw []float64, w coords.Window, cutoff float64) (float64, bool, error) {
	cs, ce := w.Constraint.Start, w.Constraint.End
	if cs > ce || ce >= len(raw) {
		return 0, false, fmt.Errorf("constraint %d-%d in profile of length %d: %w", cs, ce, len(raw), ErrConstraintOutOfRange)
	}
	mean, ok := NaNMean(raw[cs : ce+1])
	if !ok {
		return mean, false, nil
	}
	return mean, math.Abs(mean) <= cutoff, nil
}

// Score builds the result bundle of one task.
func Score(in Input, p Params) (types.ResultBundle, error) {
	var bundle types.ResultBundle

	if len(in.Unpaired) != len(in.Raw) {
		return bundle, fmt.Errorf("raw %d, unpaired %d: %w", len(in.Raw), len(in.Unpaired), ErrLengthMismatch)
	}
	if in.Paired != nil && len(in.Paired) != len(in.Raw) {
		return bundle, fmt.Errorf("raw %d, paired %d: %w", len(in.Raw), len(in.Paired), ErrLengthMismatch)
	}

	mean, ok, err := Eligible(in.Raw, in.Window, p.Cutoff)
	if err != nil || !ok {
		return bundle, err
	}

	tracks := []Track{NewTrack(types.KindUnpaired, in.Raw, in.Unpaired)}
	if in.Paired != nil {
		tracks = append(tracks, NewTrack(types.KindPaired, in.Raw, in.Paired))
	}

	border := math.Abs(p.Border)
	id := types.CompositeID(in.Desc.Gene, in.Desc.ConstraintText, in.Window.ConstraintGenomic().String())

	for pos := range in.Raw {
		if in.Window.Excluded(pos, p.Padding, p.Ulimit) {
			continue
		}
		start, end := in.Window.Position(pos, p.Ulimit)
		dist := in.Window.Distance(pos)

		for _, t := range tracks {
			v := t.Values[pos]
			if !(math.Abs(v) > border) {
				continue
			}
			eff, nrg, kd, z := t.Effective[pos], t.Energy[pos], t.Kd[pos], t.Z[pos]
			if anyNaN(eff, nrg, kd, z) {
				continue
			}

			si := types.ScoredInterval{
				Chrom:                       in.Desc.Chrom,
				Start:                       start,
				End:                         end,
				ID:                          id,
				Value:                       v,
				Strand:                      in.Desc.Strand,
				Distance:                    dist,
				Unconstrained:               in.Raw[pos],
				Preconstraint:               eff - Epsilon,
				Energy:                      nrg,
				Kd:                          kd,
				ZScore:                      z,
				MeanConstraintAccessibility: mean,
			}
			if t.Kind == types.KindPaired {
				bundle.Paired = append(bundle.Paired, si)
			} else {
				bundle.Unpaired = append(bundle.Unpaired, si)
			}
		}
	}
	return bundle, nil
}

func anyNaN(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}
