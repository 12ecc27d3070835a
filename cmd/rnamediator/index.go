// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/rnamediator/internal/collect"
	"github.com/pdiddy/rnamediator/internal/index"
	"github.com/pdiddy/rnamediator/pkg/types"
)

const defaultDBFile = "rnamediator.db"

var indexCmd = &cobra.Command{
	Use:   "index [collection files...]",
	Short: "Load collection files into the SQLite interval index",
	Long: `Index reads Collection_unpaired.bed.gz and Collection_paired.bed.gz
(by default from --outdir) into a SQLite database. Files that have not
changed since they were last indexed are skipped; a changed file replaces
its previous rows.`,
	RunE: runIndex,
}

func init() {
	indexCmd.PersistentFlags().String("db", "", "interval database (default: <outdir>/"+defaultDBFile+")")
	indexCmd.Flags().StringP("outdir", "o", "", "directory holding the collections (default: working directory)")

	viper.BindPFlag("db", indexCmd.PersistentFlags().Lookup("db"))

	rootCmd.AddCommand(indexCmd)
}

func indexConfig(outdir string, maxResults int) types.IndexConfig {
	db := viper.GetString("db")
	if db == "" {
		db = filepath.Join(outdir, defaultDBFile)
	}
	return types.IndexConfig{DBPath: db, MaxResults: maxResults}
}

func runIndex(cmd *cobra.Command, args []string) error {
	outdir, _ := cmd.Flags().GetString("outdir")
	if outdir == "" {
		outdir = viper.GetString("outdir")
	}

	paths := args
	if len(paths) == 0 {
		for _, k := range collect.Kinds {
			p := filepath.Join(outdir, k.CollectionName())
			if _, err := os.Stat(p); err == nil {
				paths = append(paths, p)
			}
		}
		if len(paths) == 0 {
			return fmt.Errorf("no collection files found in %q", outdir)
		}
	}

	store, err := index.NewStore(indexConfig(outdir, 0))
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Import(context.Background(), paths, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d collection file(s) failed indexing", summary.Failed)
	}
	return nil
}
