// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"io"
	"log/slog"

	"github.com/pdiddy/rnamediator/pkg/types"
)

// Matcher builds scoring tasks from the profiles under Root.
type Matcher struct {
	Root    string
	Sig     Signature
	Padding int
	Log     *slog.Logger
}

// Summary counts the outcome of matching.
type Summary struct {
	Genes        int `json:"genes" yaml:"genes"`
	GenesSkipped int `json:"genes_skipped" yaml:"genes_skipped"`
	Mismatched   int `json:"mismatched" yaml:"mismatched"`
	UnpairedOnly int `json:"unpaired_only" yaml:"unpaired_only"`
	Tasks        int `json:"tasks" yaml:"tasks"`
}

func (m Matcher) logger() *slog.Logger {
	if m.Log != nil {
		return m.Log
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Tasks discovers and matches the profiles of every gene and returns the
// flat task list. Genes without raw or unpaired profiles are skipped; raw
// profiles without an unpaired companion are dropped. Neither stops the run.
func (m Matcher) Tasks(genes []types.GeneRecord) ([]types.Task, Summary) {
	log := m.logger()
	var (
		tasks []types.Task
		sum   Summary
	)

	for _, g := range genes {
		sum.Genes++
		log.Info("working on gene", "gene", g.ID)

		c, err := Find(m.Root, g.ID, m.Sig)
		if err != nil {
			log.Error("discovering profiles", "gene", g.ID, "error", err)
			sum.GenesSkipped++
			continue
		}
		log.Debug("candidates", "gene", g.ID,
			"raw", len(c.Raw), "unpaired", len(c.Unpaired), "paired", len(c.Paired))

		if len(c.Raw) == 0 || len(c.Unpaired) == 0 {
			sum.GenesSkipped++
		}
		gt, mismatched, unpairedOnly := m.Match(g, c)
		sum.Mismatched += mismatched
		sum.UnpairedOnly += unpairedOnly
		tasks = append(tasks, gt...)
	}

	sum.Tasks = len(tasks)
	return tasks, sum
}

// Match pairs the candidates of one gene. It returns the tasks, the number
// of raw profiles dropped for lack of an unpaired companion, and the number
// of tasks scored without a paired companion.
func (m Matcher) Match(g types.GeneRecord, c Candidates) (tasks []types.Task, mismatched, unpairedOnly int) {
	log := m.logger().With("gene", g.ID,
		"window", m.Sig.Window, "span", m.Sig.Span, "temperature", m.Sig.Temperature)

	if len(c.Raw) == 0 {
		log.Warn("no raw profiles found, skipping gene")
		return nil, 0, 0
	}
	if len(c.Unpaired) == 0 {
		log.Warn("no unpaired-constraint profiles found, skipping gene")
		return nil, 0, 0
	}
	if len(c.Paired) == 0 {
		log.Warn("no paired-constraint profiles found, scoring unpaired only")
	}

	unpaired := toSet(c.Unpaired)
	paired := toSet(c.Paired)

	for _, raw := range c.Raw {
		u := CompanionPath(raw, g.ID, m.Sig.Marker, MarkerUnpaired)
		if !unpaired[u] {
			log.Warn("raw and constraint profiles do not match, skipping", "raw", raw, "unpaired", u)
			mismatched++
			continue
		}

		files := types.FileTriplet{Gene: g.ID, RawPath: raw, UnpairedPath: u}
		if p := CompanionPath(raw, g.ID, m.Sig.Marker, MarkerPaired); paired[p] {
			files.PairedPath = p
		} else {
			if len(c.Paired) > 0 {
				log.Info("no paired-constraint companion, scoring unpaired only", "raw", raw, "paired", p)
			}
			unpairedOnly++
		}

		tasks = append(tasks, types.Task{Files: files, Gene: g, Padding: m.Padding})
	}
	return tasks, mismatched, unpairedOnly
}

func toSet(paths []string) map[string]bool {
	s := make(map[string]bool, len(paths))
	for _, p := range paths {
		s[p] = true
	}
	return s
}
