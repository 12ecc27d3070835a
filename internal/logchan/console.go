// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logchan

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/fatih/color"
)

const consoleTimeFormat = "2006-01-02 15:04:05"

// consoleHandler writes "time LEVEL message key=value ..." lines.
type consoleHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
	colors map[slog.Level]*color.Color
}

func newConsoleHandler(w io.Writer, level slog.Leveler, noColor bool) *consoleHandler {
	colors := map[slog.Level]*color.Color{
		slog.LevelDebug: color.New(color.FgBlue),
		slog.LevelInfo:  color.New(color.FgGreen),
		slog.LevelWarn:  color.New(color.FgYellow),
		slog.LevelError: color.New(color.FgRed, color.Bold),
	}
	for _, c := range colors {
		if noColor {
			c.DisableColor()
		}
	}
	return &consoleHandler{mu: new(sync.Mutex), w: w, level: level, colors: colors}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	if !r.Time.IsZero() {
		buf.WriteString(r.Time.Format(consoleTimeFormat))
		buf.WriteByte(' ')
	}
	buf.WriteString(h.levelString(r.Level))
	buf.WriteByte(' ')
	buf.WriteString(r.Message)
	for _, a := range h.attrs {
		writeAttr(&buf, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		writeAttr(&buf, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	if h.prefix != "" {
		for i := len(h.attrs); i < len(c.attrs); i++ {
			c.attrs[i].Key = h.prefix + c.attrs[i].Key
		}
	}
	return &c
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

// levelString pads the level name to 8 columns before colouring so
// messages line up.
func (h *consoleHandler) levelString(level slog.Level) string {
	name := fmt.Sprintf("%-8s", levelName(level))
	c, ok := h.colors[level]
	if !ok {
		return name
	}
	return c.Sprint(name)
}

func levelName(level slog.Level) string {
	if level == slog.LevelWarn {
		return "WARNING"
	}
	return level.String()
}

func writeAttr(buf *bytes.Buffer, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	buf.WriteByte(' ')
	buf.WriteString(a.Key)
	buf.WriteByte('=')
	v := a.Value.Resolve().String()
	if needsQuote(v) {
		fmt.Fprintf(buf, "%q", v)
		return
	}
	buf.WriteString(v)
}

func needsQuote(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r == ' ' || r == '=' || r == '"' || r < 0x20 {
			return true
		}
	}
	return false
}
