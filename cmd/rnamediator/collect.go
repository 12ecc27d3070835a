// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/rnamediator/internal/logchan"
	"github.com/pdiddy/rnamediator/internal/pipeline"
	"github.com/pdiddy/rnamediator/pkg/types"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Score constrained profiles and append significant positions to the collections",
	Long: `Collect discovers the raw, unpaired-constraint and paired-constraint
profiles of every gene in the annotation, scores each raw profile against its
companions on a pool of workers, and appends the reportable positions to
Collection_unpaired.bed.gz and Collection_paired.bed.gz in the output
directory. A run.yaml manifest with the run's configuration and counts is
written next to the collections.

Bad inputs never stop the run: they are logged and counted. The command only
fails on invalid configuration.`,
	RunE: runCollect,
}

func init() {
	f := collectCmd.Flags()
	f.StringP("dir", "d", "", "directory holding one subdirectory of profiles per gene")
	f.StringP("genes", "g", "", "gene annotation in BED6 format (plain or .gz)")
	f.StringP("outdir", "o", "", "output directory for the collections (default: working directory)")
	f.StringP("pattern", "w", "", `window and span of the folding run as "<window>,<span>"`)
	f.Float64P("cutoff", "c", 1.0, "maximum absolute mean raw accessibility over the constraint")
	f.Float64P("border", "b", 0.0, "minimum absolute accessibility difference reported")
	f.IntP("ulimit", "u", 1, "flank width (stretch of unpaired bases) of the profiles")
	f.StringP("temperature", "t", "37", "folding temperature as written in the file names")
	f.IntP("procs", "z", 1, "number of concurrent workers")
	f.StringP("unconstrained", "x", "raw", "marker token of unconstrained profiles")
	f.IntP("padding", "y", 1, "distance around the constraint never reported")
	f.String("logdir", "LOGS", "directory for log files")
	f.String("loglevel", "WARNING", "minimum log level: DEBUG, INFO, WARNING, ERROR")

	for _, name := range []string{
		"dir", "genes", "outdir", "pattern", "cutoff", "border", "ulimit",
		"temperature", "procs", "unconstrained", "padding", "logdir", "loglevel",
	} {
		viper.BindPFlag(name, f.Lookup(name))
	}

	rootCmd.AddCommand(collectCmd)
}

func collectConfig() types.CollectConfig {
	return types.CollectConfig{
		ScoringConfig: types.ScoringConfig{
			Cutoff:  viper.GetFloat64("cutoff"),
			Border:  viper.GetFloat64("border"),
			Ulimit:  viper.GetInt("ulimit"),
			Padding: viper.GetInt("padding"),
		},
		Dir:           viper.GetString("dir"),
		Genes:         viper.GetString("genes"),
		OutDir:        viper.GetString("outdir"),
		Pattern:       viper.GetString("pattern"),
		Temperature:   viper.GetString("temperature"),
		Procs:         viper.GetInt("procs"),
		Unconstrained: viper.GetString("unconstrained"),
		Log: types.LogConfig{
			Dir:   viper.GetString("logdir"),
			Level: viper.GetString("loglevel"),
		},
	}
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg := collectConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, err := logchan.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	logfile, err := logchan.PrepareLogFile(cfg.Log.Dir, "collect", time.Now())
	if err != nil {
		return err
	}
	listener := logchan.NewListener(os.Stderr, os.Stderr)
	if color.NoColor {
		listener.DisableColor()
	}
	if err := listener.Configure(logfile, level); err != nil {
		return err
	}
	defer listener.Close()

	hub := logchan.Start(listener, logchan.DefaultBuffer)
	log := hub.Worker("main", level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := pipeline.Runner{
		Config:    cfg,
		Log:       log,
		WorkerLog: func(name string) *slog.Logger { return hub.Worker(name, level) },
	}
	summary, runErr := runner.Run(ctx)

	if summary.OutDir != "" {
		path, err := pipeline.WriteManifest(summary.OutDir, pipeline.Manifest{
			Config:  cfg,
			Summary: summary,
			LogFile: logfile,
		})
		if err != nil {
			log.Error("writing manifest", "error", err)
		} else {
			log.Info("manifest written", "path", path)
		}
	}

	if err := hub.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "logging stopped early: %v\n", err)
	}
	if lost := hub.Lost(); lost > 0 {
		fmt.Fprintf(os.Stderr, "%d log event(s) lost\n", lost)
	}

	printSummary(summary, logfile)
	return runErr
}

func printSummary(s pipeline.Summary, logfile string) {
	fmt.Fprintf(os.Stdout, "\nrun %s\n", s.RunID)
	fmt.Fprintf(os.Stdout, "genes: %d, skipped: %d, mismatched: %d, tasks: %d, failed: %d, empty: %d\n",
		s.Match.Genes, s.Match.GenesSkipped, s.Match.Mismatched, s.Total(), s.TasksFailed, s.TasksEmpty)
	fmt.Fprintf(os.Stdout, "unpaired: %d, paired: %d, write failures: %d\n",
		s.Written.Unpaired, s.Written.Paired, s.Written.Failures)
	if s.OutDir != "" {
		fmt.Fprintf(os.Stdout, "collections in %s\n", s.OutDir)
	}
	fmt.Fprintf(os.Stdout, "log in %s\n", logfile)
}
