// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index loads collection files into a SQLite database so that the
// intervals of one gene or one constraint can be looked up without
// decompressing the whole collection.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/rnamediator/internal/collect"
	"github.com/pdiddy/rnamediator/pkg/types"
)

const defaultMaxResults = 10

// Store manages the interval database.
type Store struct {
	db         *sql.DB
	path       string
	maxResults int
}

// NewStore opens or creates the database at cfg.DBPath and creates the
// schema if it does not exist.
func NewStore(cfg types.IndexConfig) (*Store, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, path: cfg.DBPath, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS intervals (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			kind TEXT NOT NULL,
			gene TEXT NOT NULL,
			constraint_span TEXT NOT NULL,
			chrom TEXT NOT NULL,
			start_pos INTEGER NOT NULL,
			end_pos INTEGER NOT NULL,
			name TEXT NOT NULL,
			value REAL,
			strand TEXT,
			distance INTEGER,
			unconstrained REAL,
			preconstraint REAL,
			energy REAL,
			kd REAL,
			zscore REAL,
			mean_constraint REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_intervals_gene ON intervals(gene)`,
		`CREATE INDEX IF NOT EXISTS idx_intervals_pos ON intervals(chrom, start_pos)`,
		`CREATE INDEX IF NOT EXISTS idx_intervals_source ON intervals(source)`,
		`CREATE TABLE IF NOT EXISTS imports (
			source TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			file_mod_time TEXT,
			row_count INTEGER
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// KindOf returns the constraint kind of a collection file by its name.
func KindOf(path string) (types.ConstraintKind, error) {
	base := filepath.Base(path)
	for _, k := range collect.Kinds {
		if base == k.CollectionName() {
			return k, nil
		}
	}
	return "", fmt.Errorf("%s is not a collection file", base)
}

// ImportSummary holds counts from an import run.
type ImportSummary struct {
	Imported  int `json:"imported" yaml:"imported"`
	Updated   int `json:"updated" yaml:"updated"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Failed    int `json:"failed" yaml:"failed"`
	Intervals int `json:"intervals" yaml:"intervals"`
}

// Total returns the number of collection files processed.
func (s ImportSummary) Total() int {
	return s.Imported + s.Updated + s.Skipped + s.Failed
}

// Import loads each collection file. A file already imported with the same
// modification time is skipped; a changed file replaces its previous rows.
// Failures are reported to w and counted; only cancellation of ctx stops
// the run early.
func (s *Store) Import(ctx context.Context, paths []string, w io.Writer) (ImportSummary, error) {
	var summary ImportSummary

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}
		kind, err := KindOf(abs)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}
		info, err := os.Stat(abs)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var stored string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM imports WHERE source = ?`, abs,
		).Scan(&stored)
		if err == nil && stored == modTime {
			fmt.Fprintf(w, "skipped %s\n", abs)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		intervals, err := collect.ReadCollection(abs)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", abs, err)
			summary.Failed++
			continue
		}

		if err := s.importFile(ctx, abs, kind, modTime, intervals); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", abs, err)
			summary.Failed++
			continue
		}

		summary.Intervals += len(intervals)
		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d intervals)\n", abs, len(intervals))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d intervals)\n", abs, len(intervals))
			summary.Imported++
		}
	}

	fmt.Fprintf(w, "\nimported: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Imported, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}

func (s *Store) importFile(ctx context.Context, source string, kind types.ConstraintKind, modTime string, intervals []types.ScoredInterval) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM intervals WHERE source = ?`, source); err != nil {
		return fmt.Errorf("deleting old intervals: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO intervals (source, kind, gene, constraint_span, chrom, start_pos, end_pos, name,
			value, strand, distance, unconstrained, preconstraint, energy, kd, zscore, mean_constraint)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, si := range intervals {
		_, err := stmt.ExecContext(ctx,
			source, string(kind), si.Gene(), si.Constraint(), si.Chrom, si.Start, si.End, si.ID,
			si.Value, string(si.Strand), si.Distance, si.Unconstrained, si.Preconstraint,
			si.Energy, si.Kd, si.ZScore, si.MeanConstraintAccessibility,
		)
		if err != nil {
			return fmt.Errorf("inserting interval %s:%d: %w", si.Chrom, si.Start, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO imports (source, kind, file_mod_time, row_count) VALUES (?, ?, ?, ?)
		 ON CONFLICT(source) DO UPDATE SET
			kind=excluded.kind, file_mod_time=excluded.file_mod_time, row_count=excluded.row_count`,
		source, string(kind), modTime, len(intervals),
	)
	if err != nil {
		return fmt.Errorf("updating import status: %w", err)
	}

	return tx.Commit()
}
