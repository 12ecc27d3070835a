// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logchan

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the channel capacity used by Start when buffer <= 0.
const DefaultBuffer = 1024

// channelHandler is the worker-side slog.Handler. It filters by level and
// ships cloned records to the listener.
type channelHandler struct {
	ch     chan<- *Event
	done   <-chan struct{}
	lost   *atomic.Int64
	worker string
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

// ConfigureWorker returns a logger whose records travel over ch to the
// listener. Once done is closed (the listener has exited) records are
// dropped and counted in lost instead of blocking the caller.
func ConfigureWorker(ch chan<- *Event, done <-chan struct{}, lost *atomic.Int64, worker string, level slog.Leveler) *slog.Logger {
	if lost == nil {
		lost = new(atomic.Int64)
	}
	return slog.New(&channelHandler{
		ch:     ch,
		done:   done,
		lost:   lost,
		worker: worker,
		level:  level,
	})
}

func (h *channelHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *channelHandler) Handle(_ context.Context, r slog.Record) error {
	rec := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	rec.AddAttrs(h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		rec.AddAttrs(h.prefixed(a))
		return true
	})
	ev := &Event{Worker: h.worker, Record: rec}

	select {
	case <-h.done:
		h.lost.Add(1)
		return nil
	default:
	}
	select {
	case h.ch <- ev:
	case <-h.done:
		h.lost.Add(1)
	}
	return nil
}

func (h *channelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	c.attrs = append(c.attrs, h.attrs...)
	for _, a := range attrs {
		c.attrs = append(c.attrs, h.prefixed(a))
	}
	return &c
}

func (h *channelHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

func (h *channelHandler) prefixed(a slog.Attr) slog.Attr {
	if h.prefix == "" {
		return a
	}
	a.Key = h.prefix + a.Key
	return a
}

// Hub wires a Listener to its channel and hands out worker loggers.
type Hub struct {
	ch       chan *Event
	done     chan struct{}
	listener *Listener
	lost     atomic.Int64
	once     sync.Once
	err      error
}

// Start launches the listener loop on a channel of the given capacity.
// The listener must already be configured.
func Start(l *Listener, buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	h := &Hub{
		ch:       make(chan *Event, buffer),
		done:     make(chan struct{}),
		listener: l,
	}
	go func() {
		defer close(h.done)
		h.err = l.Loop(h.ch)
	}()
	return h
}

// Worker returns a channel-backed logger tagged with the worker name.
func (h *Hub) Worker(name string, level slog.Leveler) *slog.Logger {
	return ConfigureWorker(h.ch, h.done, &h.lost, name, level)
}

// Shutdown sends the single sentinel and waits for the listener to exit.
// It must be called after every worker has finished logging; later events
// are dropped and counted by Lost. It returns the listener's error, if any.
func (h *Hub) Shutdown() error {
	h.once.Do(func() {
		select {
		case h.ch <- nil:
		case <-h.done:
		}
		<-h.done
	})
	return h.err
}

// Lost returns the number of events dropped because the listener had exited.
func (h *Hub) Lost() int64 {
	return h.lost.Load()
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
