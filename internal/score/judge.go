// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime/debug"

	"github.com/pdiddy/rnamediator/internal/coords"
	"github.com/pdiddy/rnamediator/internal/profile"
	"github.com/pdiddy/rnamediator/pkg/types"
)

// Judge runs the scorer for one task at a time, loading profiles with
// Loader. Every failure, including a panic, is logged with the task's
// files and turned into an empty bundle plus an error.
type Judge struct {
	Loader profile.Loader
	Params Params
	Log    *slog.Logger
}

func (j Judge) logger() *slog.Logger {
	if j.Log != nil {
		return j.Log
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Run scores task. The returned bundle is empty whenever err is non-nil.
func (j Judge) Run(task types.Task) (bundle types.ResultBundle, err error) {
	log := j.logger().With("gene", task.Gene.ID)

	defer func() {
		if r := recover(); r != nil {
			bundle = types.ResultBundle{}
			err = fmt.Errorf("panic scoring %s: %v", task.Files.RawPath, r)
			log.Error("scoring panicked",
				"raw", task.Files.RawPath,
				"unpaired", task.Files.UnpairedPath,
				"paired", task.Files.PairedPath,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()

	bundle, err = j.run(task, log)
	if err != nil {
		log.Error("scoring failed",
			"raw", task.Files.RawPath,
			"unpaired", task.Files.UnpairedPath,
			"paired", task.Files.PairedPath,
			"error", err)
		return types.ResultBundle{}, err
	}
	return bundle, nil
}

func (j Judge) run(task types.Task, log *slog.Logger) (types.ResultBundle, error) {
	p := j.Params
	p.Padding = task.Padding
	p.Border = math.Abs(p.Border)

	desc, err := coords.ParseDescriptor(task.Files.RawPath, task.Gene.ID)
	if err != nil {
		return types.ResultBundle{}, err
	}
	if desc.Strand != task.Gene.Strand {
		log.Warn("file name strand differs from annotation, coordinates follow the annotation",
			"raw", task.Files.RawPath, "file_strand", desc.Strand, "annotation_strand", task.Gene.Strand)
	}
	win, err := desc.Resolve(task.Gene)
	if err != nil {
		return types.ResultBundle{}, err
	}
	log.Debug("window resolved",
		"chrom", desc.Chrom, "strand", desc.Strand,
		"constraint", desc.Constraint.String(), "region", desc.Region.String(),
		"gene_start", task.Gene.Start, "gene_end", task.Gene.End,
		"cs", win.Constraint.Start, "ce", win.Constraint.End,
		"ws", win.Genomic.Start, "we", win.Genomic.End)
	log.Info("scoring", "cutoff", p.Cutoff, "border", p.Border)

	raw, err := j.Loader.Load(task.Files.RawPath, p.Ulimit)
	if err != nil {
		return types.ResultBundle{}, err
	}

	mean, ok, err := Eligible(raw, win, p.Cutoff)
	if err != nil {
		return types.ResultBundle{}, err
	}
	if !ok {
		log.Debug("constraint region not scoreable", "raw", task.Files.RawPath, "mean", mean)
		return types.ResultBundle{}, nil
	}

	in := Input{Desc: desc, Window: win, Raw: raw}
	if in.Unpaired, err = j.Loader.Load(task.Files.UnpairedPath, p.Ulimit); err != nil {
		return types.ResultBundle{}, err
	}
	if task.Files.HasPaired() {
		if in.Paired, err = j.Loader.Load(task.Files.PairedPath, p.Ulimit); err != nil {
			return types.ResultBundle{}, err
		}
	}

	bundle, err := Score(in, p)
	if err != nil {
		return types.ResultBundle{}, err
	}
	log.Debug("scored", "raw", task.Files.RawPath,
		"unpaired", len(bundle.Unpaired), "paired", len(bundle.Paired))
	return bundle, nil
}
