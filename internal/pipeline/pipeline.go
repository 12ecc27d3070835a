// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives a collect run: it loads the gene annotation,
// matches profile triplets, scores every task on a bounded pool of
// goroutines and streams the resulting bundles to a single aggregator that
// owns the collection files.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/rnamediator/internal/annotation"
	"github.com/pdiddy/rnamediator/internal/collect"
	"github.com/pdiddy/rnamediator/internal/discover"
	"github.com/pdiddy/rnamediator/internal/logchan"
	"github.com/pdiddy/rnamediator/internal/profile"
	"github.com/pdiddy/rnamediator/internal/score"
	"github.com/pdiddy/rnamediator/pkg/types"
)

// Runner holds the collaborators of a collect run.
type Runner struct {
	Config types.CollectConfig

	// Loader reads accessibility profiles; nil means profile.NPY.
	Loader profile.Loader

	// Log receives the coordinator's own records.
	Log *slog.Logger

	// WorkerLog returns the logger handed to a task's scorer. Nil means Log.
	WorkerLog func(name string) *slog.Logger

	// Now is the clock used for the summary; nil means time.Now.
	Now func() time.Time
}

// Summary reports the outcome of a run.
type Summary struct {
	RunID       string           `json:"run_id" yaml:"run_id"`
	Started     time.Time        `json:"started" yaml:"started"`
	Finished    time.Time        `json:"finished" yaml:"finished"`
	OutDir      string           `json:"outdir" yaml:"outdir"`
	Match       discover.Summary `json:"match" yaml:"match"`
	TasksFailed int              `json:"tasks_failed" yaml:"tasks_failed"`
	TasksEmpty  int              `json:"tasks_empty" yaml:"tasks_empty"`
	Written     collect.Counts   `json:"written" yaml:"written"`
}

// Total returns the number of tasks that were scheduled.
func (s Summary) Total() int {
	return s.Match.Tasks
}

// HasFailures reports whether any task or write failed.
func (s Summary) HasFailures() bool {
	return s.TasksFailed > 0 || s.Written.Failures > 0
}

type result struct {
	bundle types.ResultBundle
	err    error
}

func (r Runner) logger() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return logchan.Discard()
}

func (r Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run executes the collect stage. Failures of single genes, tasks or writes
// are logged and counted in the summary; only invalid configuration, an
// unreadable annotation, an unusable output directory or cancellation of
// ctx end the run with an error.
func (r Runner) Run(ctx context.Context) (Summary, error) {
	cfg := r.Config
	log := r.logger()
	sum := Summary{RunID: uuid.NewString(), Started: r.now()}

	if err := cfg.Validate(); err != nil {
		return sum, fmt.Errorf("invalid configuration: %w", err)
	}
	window, span, err := cfg.WindowSpan()
	if err != nil {
		return sum, err
	}
	procs := cfg.Procs
	if procs < 1 {
		procs = 1
	}
	loader := r.Loader
	if loader == nil {
		loader = profile.NPY{}
	}

	log.Info("starting collect run", "run_id", sum.RunID, "dir", cfg.Dir, "genes", cfg.Genes,
		"window", window, "span", span, "temperature", cfg.Temperature, "procs", procs)

	genes, err := annotation.Load(cfg.Genes, log)
	if err != nil {
		return sum, err
	}

	writer, err := collect.NewWriter(cfg.OutDir, log)
	if err != nil {
		return sum, err
	}
	sum.OutDir = writer.Dir()

	m := discover.Matcher{
		Root:    cfg.Dir,
		Sig:     discover.NewSignature(window, span, cfg.Temperature, cfg.Unconstrained),
		Padding: cfg.Padding,
		Log:     log,
	}
	tasks, msum := m.Tasks(genes)
	sum.Match = msum
	log.Info("tasks matched", "genes", msum.Genes, "skipped", msum.GenesSkipped,
		"mismatched", msum.Mismatched, "tasks", msum.Tasks)

	results := make(chan result, procs*2)

	// Aggregator: the only goroutine touching the collection files.
	aggDone := make(chan struct{})
	go func() {
		defer close(aggDone)
		for res := range results {
			if res.err != nil {
				sum.TasksFailed++
				continue
			}
			if res.bundle.IsEmpty() {
				sum.TasksEmpty++
				continue
			}
			writer.Save(res.bundle)
		}
	}()

	params := score.ParamsFrom(cfg.ScoringConfig)
	g := new(errgroup.Group)
	g.SetLimit(procs)

feed:
	for i, task := range tasks {
		if ctx.Err() != nil {
			break feed
		}
		name := fmt.Sprintf("task-%d", i+1)
		task := task
		g.Go(func() error {
			j := score.Judge{Loader: loader, Params: params, Log: r.workerLog(name)}
			bundle, err := j.Run(task)
			select {
			case results <- result{bundle: bundle, err: err}:
			case <-ctx.Done():
			}
			return nil
		})
	}

	g.Wait()
	close(results)
	<-aggDone

	sum.Written = writer.Counts()
	sum.Finished = r.now()
	log.Info("collect run finished", "run_id", sum.RunID, "tasks", sum.Total(),
		"failed", sum.TasksFailed, "unpaired", sum.Written.Unpaired,
		"paired", sum.Written.Paired, "write_failures", sum.Written.Failures)

	if err := ctx.Err(); err != nil {
		return sum, err
	}
	return sum, nil
}

func (r Runner) workerLog(name string) *slog.Logger {
	if r.WorkerLog != nil {
		return r.WorkerLog(name)
	}
	return r.logger()
}
