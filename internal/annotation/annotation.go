// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package annotation reads genes of interest from a BED6 file
// (chrom, start, end, name, score, strand), plain or gzip-compressed.
package annotation

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/maruel/natural"

	"github.com/pdiddy/rnamediator/pkg/types"
)

const bedColumns = 6

// Load reads the annotation at path. Files ending in .gz are decompressed.
func Load(path string, log *slog.Logger) ([]types.GeneRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening annotation %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening gzip annotation %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	genes, err := Parse(r, log)
	if err != nil {
		return nil, fmt.Errorf("parsing annotation %s: %w", path, err)
	}
	return genes, nil
}

// Parse reads BED6 records, one gene per name. Later records for a name
// already seen are ignored with a warning. The result is in natural order
// of gene name.
func Parse(r io.Reader, log *slog.Logger) ([]types.GeneRecord, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	seen := make(map[string]bool)
	var genes []types.GeneRecord

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") ||
			strings.HasPrefix(line, "track") || strings.HasPrefix(line, "browser") {
			continue
		}

		g, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if seen[g.ID] {
			log.Warn("duplicate annotation, keeping first", "gene", g.ID, "line", lineNo)
			continue
		}
		seen[g.ID] = true
		genes = append(genes, g)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(genes, func(i, j int) bool {
		return natural.Less(genes[i].ID, genes[j].ID)
	})
	return genes, nil
}

func parseLine(line string) (types.GeneRecord, error) {
	f := strings.Split(line, "\t")
	if len(f) < bedColumns {
		f = strings.Fields(line)
	}
	if len(f) < bedColumns {
		return types.GeneRecord{}, fmt.Errorf("expected %d columns, got %d", bedColumns, len(f))
	}

	start, err := strconv.Atoi(strings.TrimSpace(f[1]))
	if err != nil {
		return types.GeneRecord{}, fmt.Errorf("start: %w", err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(f[2]))
	if err != nil {
		return types.GeneRecord{}, fmt.Errorf("end: %w", err)
	}
	if end < start {
		return types.GeneRecord{}, fmt.Errorf("end %d before start %d", end, start)
	}

	return types.GeneRecord{
		ID:     strings.TrimSpace(f[3]),
		Chrom:  strings.TrimSpace(f[0]),
		Start:  start,
		End:    end,
		Strand: types.ParseStrand(strings.TrimSpace(f[5])),
		Value:  strings.TrimSpace(f[4]),
	}, nil
}
