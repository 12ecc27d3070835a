// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/rnamediator/internal/collect"
	"github.com/pdiddy/rnamediator/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T, maxResults int) *Store {
	t.Helper()
	s, err := NewStore(types.IndexConfig{
		DBPath:     filepath.Join(t.TempDir(), "db", "intervals.db"),
		MaxResults: maxResults,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func iv(gene, cons string, start, dist int, z float64) types.ScoredInterval {
	return types.ScoredInterval{
		Chrom:    "chr1",
		Start:    start,
		End:      start + 1,
		ID:       types.CompositeID(gene, cons, "169-180"),
		Value:    0.5,
		Strand:   types.StrandPlus,
		Distance: dist,
		Kd:       0.5,
		ZScore:   z,
	}
}

func writeCollection(t *testing.T, dir string, b types.ResultBundle) *collect.Writer {
	t.Helper()
	w, err := collect.NewWriter(dir, nil)
	require.NoError(t, err)
	w.Save(b)
	return w
}

func sampleBundle() types.ResultBundle {
	return types.ResultBundle{
		Unpaired: []types.ScoredInterval{
			iv("G1", "70-80", 153, 15, 0.1),
			iv("G1", "70-80", 158, 10, -2.5),
			iv("G1", "70-80", 208, -30, 1.2),
			iv("G1", "170-180", 300, 4, 0.7),
			iv("G2", "10-20", 400, -5, 3.0),
		},
		Paired: []types.ScoredInterval{
			iv("G1", "70-80", 160, 8, -4.0),
		},
	}
}

// --- tests ---

func TestKindOf(t *testing.T) {
	k, err := KindOf("/out/Collection_paired.bed.gz")
	require.NoError(t, err)
	assert.Equal(t, types.KindPaired, k)

	_, err = KindOf("/out/intervals.bed.gz")
	assert.Error(t, err)
}

func TestImport(t *testing.T) {
	s := testStore(t, 10)
	w := writeCollection(t, t.TempDir(), sampleBundle())
	paths := []string{w.Path(types.KindUnpaired), w.Path(types.KindPaired)}
	ctx := context.Background()

	var out bytes.Buffer
	sum, err := s.Import(ctx, paths, &out)
	require.NoError(t, err)
	assert.Equal(t, ImportSummary{Imported: 2, Intervals: 6}, sum)
	assert.Contains(t, out.String(), "indexing")

	genes, err := s.Genes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []GeneCount{{Gene: "G1", Intervals: 5}, {Gene: "G2", Intervals: 1}}, genes)

	// Unchanged files are skipped.
	sum, err = s.Import(ctx, paths, &out)
	require.NoError(t, err)
	assert.Equal(t, ImportSummary{Skipped: 2}, sum)
	assert.Equal(t, 2, sum.Total())
}

func TestImport_ReplacesChangedFile(t *testing.T) {
	s := testStore(t, 10)
	w := writeCollection(t, t.TempDir(), sampleBundle())
	path := w.Path(types.KindUnpaired)
	ctx := context.Background()

	_, err := s.Import(ctx, []string{path}, &bytes.Buffer{})
	require.NoError(t, err)

	w.Save(types.ResultBundle{Unpaired: []types.ScoredInterval{iv("G3", "1-5", 10, 2, 0)}})
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	sum, err := s.Import(ctx, []string{path}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, ImportSummary{Updated: 1, Intervals: 6}, sum)

	all, err := s.Retrieve(ctx, QueryOptions{MaxResults: 100})
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestImport_Failures(t *testing.T) {
	s := testStore(t, 10)
	dir := t.TempDir()
	bad := filepath.Join(dir, types.KindUnpaired.CollectionName())
	require.NoError(t, os.WriteFile(bad, []byte("not gzip"), 0o644))

	var out bytes.Buffer
	sum, err := s.Import(context.Background(), []string{
		bad,
		filepath.Join(dir, "other.bed.gz"),
		filepath.Join(dir, types.KindPaired.CollectionName()),
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Failed)
	assert.Contains(t, out.String(), "failed")
}

func TestInteresting(t *testing.T) {
	s := testStore(t, 2)
	w := writeCollection(t, t.TempDir(), sampleBundle())
	ctx := context.Background()
	_, err := s.Import(ctx, []string{w.Path(types.KindUnpaired), w.Path(types.KindPaired)}, &bytes.Buffer{})
	require.NoError(t, err)

	got, err := s.Interesting(ctx, QueryOptions{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, -4.0, got[0].ZScore)
	assert.Equal(t, types.KindPaired, got[0].Kind)
	assert.Equal(t, -2.5, got[1].ZScore)
	assert.Equal(t, "G2", got[2].Gene())

	got, err = s.Interesting(ctx, QueryOptions{Gene: "G1", Kind: types.KindUnpaired, MaxResults: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 158, got[0].Start)
}

func TestProfile(t *testing.T) {
	s := testStore(t, 10)
	w := writeCollection(t, t.TempDir(), sampleBundle())
	ctx := context.Background()
	_, err := s.Import(ctx, []string{w.Path(types.KindUnpaired)}, &bytes.Buffer{})
	require.NoError(t, err)

	got, err := s.Profile(ctx, "G1", "70-80", "")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{15, 10, -30}, []int{got[0].Distance, got[1].Distance, got[2].Distance})
	assert.Equal(t, "G1|70-80|169-180", got[0].ID)
	assert.Equal(t, types.StrandPlus, got[0].Strand)

	_, err = s.Profile(ctx, "G1", "", "")
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	s := testStore(t, 1)
	w := writeCollection(t, t.TempDir(), sampleBundle())
	ctx := context.Background()
	_, err := s.Import(ctx, []string{w.Path(types.KindUnpaired), w.Path(types.KindPaired)}, &bytes.Buffer{})
	require.NoError(t, err)

	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "export", "g1.yaml")
	require.NoError(t, s.ExportYAML(ctx, yamlPath, QueryOptions{Gene: "G1"}))
	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	var fromYAML []Result
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	assert.Len(t, fromYAML, 5)
	assert.Equal(t, "chr1", fromYAML[0].Chrom)

	jsonPath := filepath.Join(dir, "all.json")
	require.NoError(t, s.ExportJSON(ctx, jsonPath, QueryOptions{}))
	data, err = os.ReadFile(jsonPath)
	require.NoError(t, err)
	var fromJSON []Result
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	assert.Len(t, fromJSON, 6)

	emptyPath := filepath.Join(dir, "none.json")
	require.NoError(t, s.ExportJSON(ctx, emptyPath, QueryOptions{Gene: "nope"}))
	data, err = os.ReadFile(emptyPath)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
