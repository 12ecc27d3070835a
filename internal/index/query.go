// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pdiddy/rnamediator/pkg/types"
)

// QueryOptions filters interval queries. Empty fields match everything.
type QueryOptions struct {
	Gene       string
	Kind       types.ConstraintKind
	Constraint string
	Chrom      string

	// MaxResults limits the result count. Zero uses the store default; for
	// Interesting it is the limit per gene.
	MaxResults int
}

// Result is a stored interval with the stream it came from.
type Result struct {
	types.ScoredInterval `yaml:",inline"`

	Kind   types.ConstraintKind `json:"kind" yaml:"kind"`
	Source string               `json:"source" yaml:"source"`
}

// GeneCount is the number of stored intervals of one gene.
type GeneCount struct {
	Gene      string `json:"gene" yaml:"gene"`
	Intervals int    `json:"intervals" yaml:"intervals"`
}

const resultColumns = `kind, source, chrom, start_pos, end_pos, name, value, strand, distance,
	unconstrained, preconstraint, energy, kd, zscore, mean_constraint`

// Path returns the database file.
func (s *Store) Path() string { return s.path }

func (s *Store) limit(n int) int {
	if n <= 0 {
		return s.maxResults
	}
	return n
}

func where(opts QueryOptions) (string, []any) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(` WHERE 1=1`)
	if opts.Gene != "" {
		qb.WriteString(` AND gene = ?`)
		args = append(args, opts.Gene)
	}
	if opts.Kind != "" {
		qb.WriteString(` AND kind = ?`)
		args = append(args, string(opts.Kind))
	}
	if opts.Constraint != "" {
		qb.WriteString(` AND constraint_span = ?`)
		args = append(args, opts.Constraint)
	}
	if opts.Chrom != "" {
		qb.WriteString(` AND chrom = ?`)
		args = append(args, opts.Chrom)
	}
	return qb.String(), args
}

// Retrieve returns intervals matching opts ordered by gene, kind and
// genomic position.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]Result, error) {
	cond, args := where(opts)
	q := `SELECT ` + resultColumns + ` FROM intervals` + cond +
		` ORDER BY gene, kind, chrom, start_pos LIMIT ?`
	args = append(args, s.limit(opts.MaxResults))
	return s.query(ctx, q, args...)
}

// Interesting returns, for every gene matching opts, the intervals with the
// largest absolute z-score, at most MaxResults per gene.
func (s *Store) Interesting(ctx context.Context, opts QueryOptions) ([]Result, error) {
	cond, args := where(opts)
	q := `SELECT ` + resultColumns + ` FROM (
			SELECT *, ROW_NUMBER() OVER (
				PARTITION BY gene ORDER BY ABS(zscore) DESC, start_pos
			) AS rn
			FROM intervals` + cond + `
		) WHERE rn <= ?
		ORDER BY gene, ABS(zscore) DESC, start_pos`
	args = append(args, s.limit(opts.MaxResults))
	return s.query(ctx, q, args...)
}

// Profile returns every interval of one constraint of gene ordered by
// distance to the constraint, upstream first.
func (s *Store) Profile(ctx context.Context, gene, constraint string, kind types.ConstraintKind) ([]Result, error) {
	if gene == "" || constraint == "" {
		return nil, fmt.Errorf("gene and constraint are required")
	}
	cond, args := where(QueryOptions{Gene: gene, Constraint: constraint, Kind: kind})
	q := `SELECT ` + resultColumns + ` FROM intervals` + cond + ` ORDER BY distance DESC, kind`
	return s.query(ctx, q, args...)
}

// Genes lists the genes in the store with their interval counts.
func (s *Store) Genes(ctx context.Context) ([]GeneCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT gene, count(*) FROM intervals GROUP BY gene ORDER BY gene`)
	if err != nil {
		return nil, fmt.Errorf("querying genes: %w", err)
	}
	defer rows.Close()

	var out []GeneCount
	for rows.Next() {
		var gc GeneCount
		if err := rows.Scan(&gc.Gene, &gc.Intervals); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, gc)
	}
	return out, rows.Err()
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying intervals: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			r      Result
			kind   string
			strand sql.NullString
		)
		if err := rows.Scan(
			&kind, &r.Source, &r.Chrom, &r.Start, &r.End, &r.ID, &r.Value, &strand, &r.Distance,
			&r.Unconstrained, &r.Preconstraint, &r.Energy, &r.Kd, &r.ZScore, &r.MeanConstraintAccessibility,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		r.Kind = types.ConstraintKind(kind)
		if strand.Valid {
			r.Strand = types.Strand(strand.String)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
