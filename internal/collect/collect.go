// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect persists scored intervals to the two collection streams,
// Collection_unpaired.bed.gz and Collection_paired.bed.gz. Every save appends
// one gzip member per stream, so a collection file is a multistream gzip
// that grows across runs and is never rewritten.
package collect

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/pdiddy/rnamediator/pkg/types"
)

// Kinds lists the collection streams in write order.
var Kinds = []types.ConstraintKind{types.KindUnpaired, types.KindPaired}

// Counts tallies what a Writer has persisted.
type Counts struct {
	Bundles  int `json:"bundles" yaml:"bundles"`
	Unpaired int `json:"unpaired" yaml:"unpaired"`
	Paired   int `json:"paired" yaml:"paired"`
	Failures int `json:"write_failures" yaml:"write_failures"`
}

// Total returns the number of intervals written to both streams.
func (c Counts) Total() int {
	return c.Unpaired + c.Paired
}

// Writer appends result bundles to the collection files in Dir. It is meant
// to be driven by a single aggregating goroutine and is not safe for
// concurrent use.
type Writer struct {
	dir    string
	log    *slog.Logger
	counts Counts
}

// NewWriter makes dir absolute, creates it, and returns a Writer for it. An
// empty dir means the working directory.
func NewWriter(dir string, log *slog.Logger) (*Writer, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", abs, err)
	}
	return &Writer{dir: abs, log: log}, nil
}

// Dir returns the absolute output directory.
func (w *Writer) Dir() string { return w.dir }

// Path returns the collection file for kind.
func (w *Writer) Path(kind types.ConstraintKind) string {
	return filepath.Join(w.dir, kind.CollectionName())
}

// Save appends the bundle's intervals to their streams. An empty list leaves
// its stream untouched. A failed write is logged and counted; the other
// stream is still attempted.
func (w *Writer) Save(b types.ResultBundle) {
	w.counts.Bundles++
	for _, kind := range Kinds {
		lines := b.Lines(kind)
		if len(lines) == 0 {
			continue
		}
		path := w.Path(kind)
		if err := Append(path, lines); err != nil {
			w.counts.Failures++
			w.log.Error("writing collection", "path", path, "intervals", len(lines), "error", err)
			continue
		}
		if kind == types.KindPaired {
			w.counts.Paired += len(lines)
		} else {
			w.counts.Unpaired += len(lines)
		}
	}
}

// Counts returns the running totals.
func (w *Writer) Counts() Counts { return w.counts }

// memberSink wraps the open collection file for writing one member.
var memberSink = func(f *os.File) io.Writer { return f }

// Append writes lines as one gzip member at the end of path, creating the
// file if needed. A failed write truncates the file back to its previous
// size, leaving earlier members readable.
func Append(path string, lines []string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if err := writeMember(memberSink(f), lines); err != nil {
		if terr := f.Truncate(info.Size()); terr != nil {
			err = errors.Join(err, fmt.Errorf("truncating: %w", terr))
		}
		f.Close()
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	return f.Close()
}

func writeMember(w io.Writer, lines []string) error {
	zw := gzip.NewWriter(w)
	bw := bufio.NewWriter(zw)
	for _, line := range lines {
		if _, err := bw.WriteString(line); err != nil {
			return fmt.Errorf("compressing: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("compressing: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("compressing: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing gzip member: %w", err)
	}
	return nil
}

// ReadCollection decodes every member of a collection file.
func ReadCollection(path string) ([]types.ScoredInterval, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading gzip header of %s: %w", path, err)
	}
	defer zr.Close()

	return Parse(zr)
}

// Parse reads interval lines from r. Blank lines are ignored.
func Parse(r io.Reader) ([]types.ScoredInterval, error) {
	var out []types.ScoredInterval
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		si, err := types.ParseScoredInterval(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		out = append(out, si)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning collection: %w", err)
	}
	return out, nil
}
