// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logchan funnels log events from many concurrent workers into a
// single listener that owns the physical sinks (log file and console).
// Workers never write to a sink directly: their loggers ship records over a
// bounded channel, and exactly one nil sentinel stops the listener once all
// workers are done.
package logchan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"sync"
)

// Event is one log record in transit from a worker to the listener.
// A nil *Event is the termination sentinel.
type Event struct {
	Worker string
	Record slog.Record
}

// ParseLevel converts a level name (DEBUG, INFO, WARNING/WARN, ERROR,
// CRITICAL) to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO", "":
		return slog.LevelInfo, nil
	case "WARNING", "WARN":
		return slog.LevelWarn, nil
	case "ERROR", "CRITICAL":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// Listener owns the log sinks. Configure attaches them; Loop drains a
// channel of events into them.
type Listener struct {
	mu      sync.Mutex
	file    *os.File
	fileH   slog.Handler
	consH   slog.Handler
	console io.Writer
	stderr  io.Writer
	noColor bool
}

// NewListener returns a listener writing its console sink to console and
// reporting its own failures to stderr.
func NewListener(console, stderr io.Writer) *Listener {
	if console == nil {
		console = os.Stderr
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Listener{console: console, stderr: stderr}
}

// DisableColor turns off level colouring on the console sink. It takes
// effect at the next Configure.
func (l *Listener) DisableColor() {
	l.mu.Lock()
	l.noColor = true
	l.mu.Unlock()
}

// Configure replaces any previously attached sinks with a file sink
// appending to logfile and a console sink, both at the given minimum level.
// Calling it again is safe; the previous log file is closed.
func (l *Listener) Configure(logfile string, level slog.Level) error {
	f, err := os.OpenFile(logfile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", logfile, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		l.file.Close()
	}
	l.file = f
	l.fileH = slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})
	l.consH = newConsoleHandler(l.console, level, l.noColor)
	return nil
}

// Close releases the log file.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.fileH = nil
	l.consH = nil
	return err
}

// Loop reads events until it receives the nil sentinel or the channel is
// closed. Events are written without level filtering: the producing worker
// already filtered them. A sink failure or panic is reported on stderr and
// ends the loop; the sinks may be unusable at that point.
func (l *Listener) Loop(ch <-chan *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("log listener panic: %v", r)
			fmt.Fprintf(l.stderr, "LOGGING ERROR: %v\n%s", r, debug.Stack())
		}
	}()

	for ev := range ch {
		if ev == nil {
			return nil
		}
		if err := l.dispatch(ev); err != nil {
			fmt.Fprintf(l.stderr, "LOGGING ERROR: %v\n", err)
			return err
		}
	}
	return nil
}

func (l *Listener) dispatch(ev *Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileH == nil {
		return fmt.Errorf("listener is not configured")
	}

	ctx := context.Background()
	if err := l.fileH.Handle(ctx, withWorker(ev)); err != nil {
		return fmt.Errorf("writing log file: %w", err)
	}
	if err := l.consH.Handle(ctx, ev.Record); err != nil {
		return fmt.Errorf("writing console: %w", err)
	}
	return nil
}

// withWorker returns a copy of the event record with the worker name as its
// first attribute.
func withWorker(ev *Event) slog.Record {
	r := slog.NewRecord(ev.Record.Time, ev.Record.Level, ev.Record.Message, ev.Record.PC)
	if ev.Worker != "" {
		r.AddAttrs(slog.String("worker", ev.Worker))
	}
	ev.Record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(a)
		return true
	})
	return r
}
