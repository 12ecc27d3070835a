// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/rnamediator/internal/collect"
	"github.com/pdiddy/rnamediator/pkg/types"
)

const (
	profileLen = 120
	genesBED   = "chr1\t100\t200\tG1\t0\t+\n" +
		"chr1\t100\t200\tG2\t0\t-\n" +
		"chr1\t100\t200\tG3\t0\t+\n" +
		"chr1\t100\t200\tG4\t0\t+\n"
)

// --- test helpers ---

func writeNPY(t *testing.T, path string, data []float64) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, npyio.Write(f, data))
}

func spikes(value float64, at ...int) []float64 {
	out := make([]float64, profileLen)
	for _, i := range at {
		out[i] = value
	}
	return out
}

func rawProfile() []float64 {
	out := make([]float64, profileLen)
	for i := 20; i <= 30; i++ {
		out[i] = 0.01
	}
	return out
}

// fixture lays out four genes: G1 with all three profiles, G2 (minus
// strand) without a paired profile, G3 whose constraint lies before its
// window, and G4 with no profiles at all.
func fixture(t *testing.T) types.CollectConfig {
	t.Helper()
	root := t.TempDir()
	data := filepath.Join(root, "data")

	writeNPY(t, filepath.Join(data, "G1", "G1_chr1_+_70-80_50-150_raw_100_60_37.npy"), rawProfile())
	writeNPY(t, filepath.Join(data, "G1", "StruCons_G1_chr1_+_70-80_50-150_diffnu_100_60_37.npy"), spikes(0.5, 5, 60))
	writeNPY(t, filepath.Join(data, "G1", "StruCons_G1_chr1_+_70-80_50-150_diffnp_100_60_37.npy"), spikes(-0.3, 100))

	writeNPY(t, filepath.Join(data, "G2", "G2_chr1_-_70-80_50-150_raw_100_60_37.npy"), rawProfile())
	writeNPY(t, filepath.Join(data, "G2", "StruCons_G2_chr1_-_70-80_50-150_diffnu_100_60_37.npy"), spikes(0.5, 5))

	writeNPY(t, filepath.Join(data, "G3", "G3_chr1_+_10-20_50-150_raw_100_60_37.npy"), rawProfile())
	writeNPY(t, filepath.Join(data, "G3", "StruCons_G3_chr1_+_10-20_50-150_diffnu_100_60_37.npy"), spikes(0.5, 5))

	genes := filepath.Join(root, "genes.bed")
	require.NoError(t, os.WriteFile(genes, []byte(genesBED), 0o644))

	return types.CollectConfig{
		ScoringConfig: types.ScoringConfig{Cutoff: 1, Border: 0.1, Ulimit: 1, Padding: 1},
		Dir:           data,
		Genes:         genes,
		OutDir:        filepath.Join(root, "out"),
		Pattern:       "100,60",
		Temperature:   "37",
		Procs:         3,
		Unconstrained: "raw",
	}
}

func fixedClock() func() time.Time {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t0 }
}

// --- tests ---

func TestRunner_Run(t *testing.T) {
	cfg := fixture(t)
	r := Runner{Config: cfg, Now: fixedClock()}

	sum, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, cfg.OutDir, sum.OutDir)
	assert.Equal(t, 4, sum.Match.Genes)
	assert.Equal(t, 1, sum.Match.GenesSkipped)
	assert.Equal(t, 0, sum.Match.Mismatched)
	assert.Equal(t, 2, sum.Match.UnpairedOnly)
	assert.Equal(t, 3, sum.Total())
	assert.Equal(t, 1, sum.TasksFailed)
	assert.Equal(t, collect.Counts{Bundles: 2, Unpaired: 3, Paired: 1}, sum.Written)
	assert.True(t, sum.HasFailures())

	unpaired, err := collect.ReadCollection(filepath.Join(cfg.OutDir, "Collection_unpaired.bed.gz"))
	require.NoError(t, err)
	byGene := map[string]int{}
	for _, si := range unpaired {
		byGene[si.Gene()]++
	}
	assert.Equal(t, map[string]int{"G1": 2, "G2": 1}, byGene)

	paired, err := collect.ReadCollection(filepath.Join(cfg.OutDir, "Collection_paired.bed.gz"))
	require.NoError(t, err)
	require.Len(t, paired, 1)
	assert.Equal(t, "G1|70-80|169-180", paired[0].ID)
	assert.Equal(t, 100-1+148+1, paired[0].Start)
}

func TestRunner_RunSingleWorker(t *testing.T) {
	cfg := fixture(t)
	cfg.Procs = 0
	sum, err := Runner{Config: cfg}.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, collect.Counts{Bundles: 2, Unpaired: 3, Paired: 1}, sum.Written)
}

func TestRunner_AppendsAcrossRuns(t *testing.T) {
	cfg := fixture(t)
	for i := 0; i < 2; i++ {
		_, err := Runner{Config: cfg}.Run(context.Background())
		require.NoError(t, err)
	}
	unpaired, err := collect.ReadCollection(filepath.Join(cfg.OutDir, "Collection_unpaired.bed.gz"))
	require.NoError(t, err)
	assert.Len(t, unpaired, 6)
}

func TestRunner_InvalidConfig(t *testing.T) {
	cfg := fixture(t)
	cfg.Pattern = "100"
	_, err := Runner{Config: cfg}.Run(context.Background())
	assert.Error(t, err)

	cfg = fixture(t)
	cfg.Genes = filepath.Join(t.TempDir(), "missing.bed")
	_, err = Runner{Config: cfg}.Run(context.Background())
	assert.Error(t, err)
}

func TestRunner_Cancelled(t *testing.T) {
	cfg := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := Runner{Config: cfg}.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 3, sum.Match.Tasks)
	assert.Equal(t, 0, sum.Written.Total())
}

func TestManifest_RoundTrip(t *testing.T) {
	cfg := fixture(t)
	r := Runner{Config: cfg, Now: fixedClock()}
	sum, err := r.Run(context.Background())
	require.NoError(t, err)

	path, err := WriteManifest(sum.OutDir, Manifest{Config: cfg, Summary: sum, LogFile: "/tmp/LOGS/collect.log"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.OutDir, ManifestName), path)

	m, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, m.Config)
	assert.Equal(t, sum.RunID, m.Summary.RunID)
	assert.True(t, sum.Started.Equal(m.Summary.Started))
	assert.Equal(t, sum.Written, m.Summary.Written)
	assert.Equal(t, sum.Match, m.Summary.Match)
	assert.Equal(t, "/tmp/LOGS/collect.log", m.LogFile)
}
