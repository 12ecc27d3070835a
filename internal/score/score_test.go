// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/rnamediator/internal/coords"
	"github.com/pdiddy/rnamediator/pkg/types"
)

const profileLen = 120

// --- test helpers ---

func scenario(t *testing.T, strand types.Strand) Input {
	t.Helper()
	gene := types.GeneRecord{ID: "G1", Chrom: "chr1", Start: 100, End: 200, Strand: strand}
	desc, err := coords.ParseDescriptor("G1_chr1_"+string(strand)+"_70-80_50-150_raw_100_60_37.npy", "G1")
	require.NoError(t, err)
	win, err := desc.Resolve(gene)
	require.NoError(t, err)

	raw := make([]float64, profileLen)
	for i := win.Constraint.Start; i <= win.Constraint.End; i++ {
		raw[i] = 0.01
	}
	return Input{Desc: desc, Window: win, Raw: raw, Unpaired: make([]float64, profileLen)}
}

func spikes(n int, value float64, at ...int) []float64 {
	out := make([]float64, n)
	for _, i := range at {
		out[i] = value
	}
	return out
}

var defaultParams = Params{Ulimit: 1, Padding: 1, Cutoff: 1, Border: 0.1}

// Reportable offsets: the exclusion zone for cs=20, ce=30, padding=1,
// ulim=1 is [19, 32].
var (
	reportable = []int{5, 10, 18, 33, 60, 100}
	excluded   = []int{19, 25, 32}
)

// --- tests ---

func TestRT(t *testing.T) {
	assert.InDelta(t, -0.6163313516, RT, 1e-6)
}

func TestClampLog(t *testing.T) {
	assert.True(t, math.IsNaN(ClampLog(0)))
	assert.True(t, math.IsNaN(ClampLog(-1)))
	assert.True(t, math.IsNaN(ClampLog(math.NaN())))
	assert.Equal(t, 0.0, ClampLog(1))
}

func TestEnergyKdIdentity(t *testing.T) {
	for _, c := range []float64{0.5, -0.25, 1e-6, 0.999} {
		kd := math.Exp(Energy(c) / RT)
		assert.InDelta(t, math.Abs(c), kd, 1e-12)
	}
	assert.True(t, math.IsNaN(Energy(0)))
}

func TestZScores_Flat(t *testing.T) {
	for _, v := range []float64{0, 0.3, 0.1, -7.25} {
		xs := make([]float64, 17)
		for i := range xs {
			xs[i] = v
		}
		for _, z := range ZScores(xs) {
			assert.Equal(t, 0.0, z)
		}
	}

	// NaN entries do not break the flat case.
	z := ZScores([]float64{0.3, math.NaN(), 0.3})
	assert.Equal(t, []float64{0, 0, 0}, z)
}

func TestZScores_Values(t *testing.T) {
	z := ZScores([]float64{1, 2, 3, math.NaN()})
	std := math.Sqrt(2.0 / 3.0)
	assert.InDelta(t, -1/std, z[0], 1e-12)
	assert.InDelta(t, 0, z[1], 1e-12)
	assert.InDelta(t, 1/std, z[2], 1e-12)
	assert.True(t, math.IsNaN(z[3]))

	for _, v := range ZScores([]float64{math.NaN(), math.NaN()}) {
		assert.True(t, math.IsNaN(v))
	}
}

func TestScore_PlusStrandScenario(t *testing.T) {
	in := scenario(t, types.StrandPlus)
	in.Unpaired = spikes(profileLen, 0.5, append(append([]int{}, reportable...), excluded...)...)

	b, err := Score(in, defaultParams)
	require.NoError(t, err)
	require.Len(t, b.Unpaired, len(reportable))
	assert.Empty(t, b.Paired)

	wsGenomic := in.Window.Genomic.Start
	assert.Equal(t, 148, wsGenomic)

	wantDist := []int{15, 10, 2, -3, -30, -70}
	for i, pos := range reportable {
		si := b.Unpaired[i]
		offset := pos - defaultParams.Ulimit
		assert.Equal(t, offset+wsGenomic+1, si.Start, "pos %d", pos)
		assert.Equal(t, si.Start+defaultParams.Ulimit, si.End)
		assert.Equal(t, wantDist[i], si.Distance, "pos %d", pos)
		assert.Equal(t, "chr1", si.Chrom)
		assert.Equal(t, types.StrandPlus, si.Strand)
		assert.Equal(t, "G1|70-80|169-180", si.ID)
		assert.Equal(t, 0.5, si.Value)
		assert.Equal(t, 0.0, si.Unconstrained)
		assert.Equal(t, 0.5, si.Preconstraint)
		assert.InDelta(t, RT*math.Log(0.5), si.Energy, 1e-15)
		assert.InDelta(t, 0.5, si.Kd, 1e-12)
		assert.Equal(t, 0.0, si.ZScore)
		assert.InDelta(t, 0.01, si.MeanConstraintAccessibility, 1e-15)
	}
}

func TestScore_MinusStrandScenario(t *testing.T) {
	in := scenario(t, types.StrandMinus)
	in.Unpaired = spikes(profileLen, 0.5, reportable...)

	b, err := Score(in, defaultParams)
	require.NoError(t, err)
	require.Len(t, b.Unpaired, len(reportable))

	// Window 50-150 reflected across gene end 200 gives genomic 50-150.
	require.Equal(t, coords.Span{Start: 50, End: 150}, in.Window.Genomic)
	for i, pos := range reportable {
		si := b.Unpaired[i]
		assert.Equal(t, 200-50-pos, si.Start, "pos %d", pos)
		assert.Equal(t, si.Start+1, si.End)
		assert.Equal(t, types.StrandMinus, si.Strand)
		assert.Equal(t, "G1|70-80|119-130", si.ID)
	}
	assert.Equal(t, 15, b.Unpaired[0].Distance)
}

func TestScore_ExcludedZoneNeverReported(t *testing.T) {
	for _, padding := range []int{0, 1, 4} {
		for _, ulim := range []int{1, 3} {
			in := scenario(t, types.StrandPlus)
			all := make([]int, profileLen)
			for i := range all {
				all[i] = i
			}
			in.Unpaired = spikes(profileLen, 0.9, all...)
			in.Paired = spikes(profileLen, -0.9, all...)

			p := Params{Ulimit: ulim, Padding: padding, Cutoff: 1, Border: 0}
			b, err := Score(in, p)
			require.NoError(t, err)

			lo := in.Window.Constraint.Start - padding + 1 - ulim
			hi := in.Window.Constraint.End + padding + ulim
			assert.Equal(t, profileLen-(hi-lo+1), len(b.Unpaired))
			assert.Equal(t, len(b.Unpaired), len(b.Paired))
			for _, si := range append(b.Unpaired, b.Paired...) {
				pos := si.Start - in.Window.Genomic.Start + ulim - 1
				assert.False(t, pos >= lo && pos <= hi, "position %d reported", pos)
			}
		}
	}
}

func TestScore_BorderIsStrict(t *testing.T) {
	in := scenario(t, types.StrandPlus)
	in.Unpaired = make([]float64, profileLen)
	in.Unpaired[5] = 0.1
	in.Unpaired[6] = -0.1
	in.Unpaired[7] = 0.05
	in.Unpaired[8] = 0.1000001
	in.Unpaired[9] = math.NaN()

	b, err := Score(in, Params{Ulimit: 1, Padding: 1, Cutoff: 1, Border: -0.1})
	require.NoError(t, err)
	require.Len(t, b.Unpaired, 1)
	assert.Equal(t, 0.1000001, b.Unpaired[0].Value)
}

func TestScore_PairedProfile(t *testing.T) {
	in := scenario(t, types.StrandPlus)
	in.Unpaired = spikes(profileLen, 0.5, 5)
	in.Paired = spikes(profileLen, -0.4, 5, 60)

	b, err := Score(in, defaultParams)
	require.NoError(t, err)
	assert.Len(t, b.Unpaired, 1)
	require.Len(t, b.Paired, 2)
	assert.Equal(t, -0.4, b.Paired[0].Value)
	assert.InDelta(t, 0.4, b.Paired[0].Kd, 1e-12)
	assert.InDelta(t, -0.4, b.Paired[0].Preconstraint, 1e-15)
}

func TestScore_NaNValuesNeverReported(t *testing.T) {
	in := scenario(t, types.StrandPlus)
	in.Raw[5] = math.NaN()
	in.Unpaired = spikes(profileLen, 0.5, 5, 6)

	b, err := Score(in, defaultParams)
	require.NoError(t, err)
	require.Len(t, b.Unpaired, 1)
	assert.Equal(t, 6-1+148+1, b.Unpaired[0].Start)
}

func TestScore_Skips(t *testing.T) {
	t.Run("constraint region all NaN", func(t *testing.T) {
		in := scenario(t, types.StrandPlus)
		for i := in.Window.Constraint.Start; i <= in.Window.Constraint.End; i++ {
			in.Raw[i] = math.NaN()
		}
		in.Unpaired = spikes(profileLen, 0.5, reportable...)
		b, err := Score(in, defaultParams)
		require.NoError(t, err)
		assert.True(t, b.IsEmpty())
	})

	t.Run("mean above cutoff", func(t *testing.T) {
		in := scenario(t, types.StrandPlus)
		in.Unpaired = spikes(profileLen, 0.5, reportable...)
		b, err := Score(in, Params{Ulimit: 1, Padding: 1, Cutoff: 0.005, Border: 0.1})
		require.NoError(t, err)
		assert.True(t, b.IsEmpty())
	})

	t.Run("negative mean compared by magnitude", func(t *testing.T) {
		in := scenario(t, types.StrandPlus)
		for i := in.Window.Constraint.Start; i <= in.Window.Constraint.End; i++ {
			in.Raw[i] = -0.5
		}
		in.Unpaired = spikes(profileLen, 0.5, reportable...)
		b, err := Score(in, Params{Ulimit: 1, Padding: 1, Cutoff: 0.4, Border: 0.1})
		require.NoError(t, err)
		assert.True(t, b.IsEmpty())
	})
}

func TestScore_Errors(t *testing.T) {
	in := scenario(t, types.StrandPlus)
	in.Unpaired = make([]float64, profileLen-1)
	_, err := Score(in, defaultParams)
	assert.True(t, errors.Is(err, ErrLengthMismatch))

	in = scenario(t, types.StrandPlus)
	in.Paired = make([]float64, 3)
	_, err = Score(in, defaultParams)
	assert.True(t, errors.Is(err, ErrLengthMismatch))

	in = scenario(t, types.StrandPlus)
	in.Raw = in.Raw[:25]
	in.Unpaired = in.Unpaired[:25]
	_, err = Score(in, defaultParams)
	assert.True(t, errors.Is(err, ErrConstraintOutOfRange))
}
