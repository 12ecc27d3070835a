// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/rnamediator/internal/index"
	"github.com/pdiddy/rnamediator/pkg/types"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the interval index",
	Long: `Query looks up intervals in the index built by "rnamediator index".

Without --gene it lists the indexed genes. With --gene it shows the
intervals with the largest absolute z-score; adding --constraint shows every
interval of that constraint ordered by distance. --export writes the
matching intervals to a .yaml or .json file instead.`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().String("db", "", "interval database (default: ./"+defaultDBFile+")")
	queryCmd.Flags().String("gene", "", "gene ID")
	queryCmd.Flags().String("constraint", "", `window-relative constraint span, e.g. "70-80"`)
	queryCmd.Flags().String("kind", "", "restrict to one stream: unpaired or paired")
	queryCmd.Flags().String("chrom", "", "restrict to one chromosome")
	queryCmd.Flags().Int("limit", 0, "maximum results per gene (0 = use default)")
	queryCmd.Flags().Int("max-results", 10, "default number of results")
	queryCmd.Flags().String("export", "", "write matching intervals to a .yaml or .json file")
	queryCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		dbPath = viper.GetString("db")
	}
	if dbPath == "" {
		dbPath = defaultDBFile
	}
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("interval database %s: %w", dbPath, err)
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")

	store, err := index.NewStore(types.IndexConfig{DBPath: dbPath, MaxResults: maxResults})
	if err != nil {
		return err
	}
	defer store.Close()

	opts, err := queryOptsFromFlags(cmd)
	if err != nil {
		return err
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	ctx := context.Background()

	if export, _ := cmd.Flags().GetString("export"); export != "" {
		return exportIntervals(ctx, store, export, opts)
	}

	if opts.Gene == "" {
		genes, err := store.Genes(ctx)
		if err != nil {
			return err
		}
		return formatGenes(genes, jsonOutput)
	}

	var results []index.Result
	if opts.Constraint != "" {
		results, err = store.Profile(ctx, opts.Gene, opts.Constraint, opts.Kind)
	} else {
		results, err = store.Interesting(ctx, opts)
	}
	if err != nil {
		return err
	}
	return formatResults(results, jsonOutput)
}

func queryOptsFromFlags(cmd *cobra.Command) (index.QueryOptions, error) {
	gene, _ := cmd.Flags().GetString("gene")
	constraint, _ := cmd.Flags().GetString("constraint")
	kind, _ := cmd.Flags().GetString("kind")
	chrom, _ := cmd.Flags().GetString("chrom")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := index.QueryOptions{
		Gene:       gene,
		Constraint: constraint,
		Chrom:      chrom,
		MaxResults: limit,
	}
	switch types.ConstraintKind(kind) {
	case "", types.KindUnpaired, types.KindPaired:
		opts.Kind = types.ConstraintKind(kind)
	default:
		return opts, fmt.Errorf("unsupported kind %q: use unpaired or paired", kind)
	}
	return opts, nil
}

func exportIntervals(ctx context.Context, store *index.Store, path string, opts index.QueryOptions) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := store.ExportYAML(ctx, path, opts); err != nil {
			return err
		}
	case ".json":
		if err := store.ExportJSON(ctx, path, opts); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported export file %q: use .yaml or .json", path)
	}
	fmt.Println("Exported to", path)
	return nil
}

func formatGenes(genes []index.GeneCount, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(genes)
	}
	if len(genes) == 0 {
		fmt.Println("No intervals indexed.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%-20s  %s\n", "Gene", "Intervals")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 32))
	for _, g := range genes {
		fmt.Fprintf(os.Stdout, "%-20s  %d\n", g.Gene, g.Intervals)
	}
	return nil
}

func formatResults(results []index.Result, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-8s  %-8s  %-10s  %-10s  %-6s  %-8s  %-10s  %-10s  %s\n",
		"Kind", "Chrom", "Start", "End", "Strand", "Distance", "Value", "Z-score", "Name")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
	for _, r := range results {
		fmt.Fprintf(os.Stdout, "%-8s  %-8s  %-10d  %-10d  %-6s  %-8d  %-10.4g  %-10.4g  %s\n",
			r.Kind, r.Chrom, r.Start, r.End, r.Strand, r.Distance, r.Value, r.ZScore, r.ID)
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}
