// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discover locates accessibility profiles for each gene and pairs
// every raw (unconstrained) profile with its unpaired- and paired-constraint
// companions by file name.
//
// Layout under the root directory:
//
//	<root>/<gene>/<gene>_<chrom>_<strand>_<cons>_<reg>_<marker>_<window>_<span>_<temp>.npy
//	<root>/<gene>/StruCons_<gene>_..._diffnu_<window>_<span>_<temp>.npy
//	<root>/<gene>/StruCons_<gene>_..._diffnp_<window>_<span>_<temp>.npy
package discover

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/maruel/natural"
)

const (
	// ConstraintPrefix starts the name of every constrained profile.
	ConstraintPrefix = "StruCons_"

	MarkerUnpaired = "diffnu"
	MarkerPaired   = "diffnp"

	profileExt = ".npy"
)

// Signature selects the profiles of one folding run.
type Signature struct {
	Window      int
	Span        int
	Temperature string
	// Marker is the token identifying raw (unconstrained) profiles.
	Marker string
}

// NewSignature builds a signature with a normalised temperature.
func NewSignature(window, span int, temperature, marker string) Signature {
	return Signature{
		Window:      window,
		Span:        span,
		Temperature: NormalizeTemperature(temperature),
		Marker:      marker,
	}
}

// NormalizeTemperature drops '.' and ',' the way the folding pipeline does
// when it writes file names ("37.5" becomes "375").
func NormalizeTemperature(t string) string {
	return strings.NewReplacer(".", "", ",", "").Replace(strings.TrimSpace(t))
}

func (s Signature) suffix() string {
	return strconv.Itoa(s.Window) + "_" + strconv.Itoa(s.Span) + "_" + s.Temperature + profileExt
}

// RawGlob returns the glob for raw profiles of gene.
func (s Signature) RawGlob(root, gene string) string {
	return filepath.Join(root, gene, gene+"*_"+s.Marker+"_*"+s.suffix())
}

// ConstraintGlob returns the glob for constrained profiles of gene with the
// given marker (MarkerUnpaired or MarkerPaired).
func (s Signature) ConstraintGlob(root, gene, marker string) string {
	return filepath.Join(root, gene, ConstraintPrefix+gene+"*_"+marker+"_*"+s.suffix())
}

// Candidates holds the absolute, naturally ordered profile paths of a gene.
type Candidates struct {
	Raw      []string
	Unpaired []string
	Paired   []string
}

// Find globs the three candidate sets for gene.
func Find(root, gene string, sig Signature) (Candidates, error) {
	raw, err := glob(sig.RawGlob(root, gene))
	if err != nil {
		return Candidates{}, err
	}
	// gene* also matches longer gene names sharing the prefix.
	own := raw[:0]
	for _, p := range raw {
		if strings.HasPrefix(filepath.Base(p), gene+"_") {
			own = append(own, p)
		}
	}

	unpaired, err := glob(sig.ConstraintGlob(root, gene, MarkerUnpaired))
	if err != nil {
		return Candidates{}, err
	}
	paired, err := glob(sig.ConstraintGlob(root, gene, MarkerPaired))
	if err != nil {
		return Candidates{}, err
	}
	return Candidates{Raw: own, Unpaired: unpaired, Paired: paired}, nil
}

func glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		abs, err := filepath.Abs(m)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", m, err)
		}
		out = append(out, abs)
	}
	NaturalSort(out)
	return out, nil
}

// NaturalSort orders paths the way a human would, ignoring case.
func NaturalSort(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		return natural.Less(strings.ToLower(paths[i]), strings.ToLower(paths[j]))
	})
}

// CompanionPath derives the constrained profile name for rawPath: the
// marker token becomes the constraint marker and the gene prefix gains
// ConstraintPrefix. Only the file name is rewritten.
func CompanionPath(rawPath, gene, marker, constraintMarker string) string {
	dir, base := filepath.Split(rawPath)
	rest := strings.TrimPrefix(base, gene+"_")
	rest = strings.Replace(rest, "_"+marker+"_", "_"+constraintMarker+"_", 1)
	return dir + ConstraintPrefix + gene + "_" + rest
}
