// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the rnamediator pipeline:
// gene annotation records, scoring tasks, scored intervals, result bundles,
// and stage configuration.
package types

import "fmt"

// Strand is the genomic strand of a gene.
type Strand string

const (
	StrandPlus    Strand = "+"
	StrandMinus   Strand = "-"
	StrandUnknown Strand = "."
)

// ParseStrand converts an annotation strand column to a Strand.
// Anything other than "+" or "-" maps to StrandUnknown, which the
// coordinate transform treats like the plus strand.
func ParseStrand(s string) Strand {
	switch s {
	case "+":
		return StrandPlus
	case "-":
		return StrandMinus
	default:
		return StrandUnknown
	}
}

// IsMinus reports whether coordinates on this strand must be mirrored.
func (s Strand) IsMinus() bool {
	return s == StrandMinus
}

// GeneRecord holds the genomic location of a gene of interest as read from
// the annotation. Start and End are 1-based. Records are passed by value to
// every task of the gene.
type GeneRecord struct {
	// ID is the gene identifier used as the directory and file name prefix.
	ID string `json:"id" yaml:"id"`

	// Chrom is the chromosome or contig name from the annotation.
	Chrom string `json:"chrom" yaml:"chrom"`

	// Start is the genomic start coordinate.
	Start int `json:"start" yaml:"start"`

	// End is the genomic end coordinate.
	End int `json:"end" yaml:"end"`

	// Strand is the genomic strand.
	Strand Strand `json:"strand" yaml:"strand"`

	// Value is the annotation score column, kept for reference.
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

func (g GeneRecord) String() string {
	return fmt.Sprintf("%s:%s:%d-%d(%s)", g.ID, g.Chrom, g.Start, g.End, g.Strand)
}
