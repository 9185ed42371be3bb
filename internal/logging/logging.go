// Package logging provides the colourised slog handler used by the CLI.
//
// Each record is one line: the message styled by level, then its attributes
// as key=value pairs. Colours are dropped when the writer is not a terminal.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// SuccessKey marks a record as a success line; the attribute itself is not printed.
const SuccessKey = "success"

// Success returns the attribute that renders a record as a success line.
func Success() slog.Attr {
	return slog.Bool(SuccessKey, true)
}

type styles struct {
	err     lipgloss.Style
	warn    lipgloss.Style
	info    lipgloss.Style
	success lipgloss.Style
	debug   lipgloss.Style
	attr    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		err: r.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#D00000", Dark: "#FF5555"}).
			Bold(true),
		warn:    r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#FFAA00"}),
		info:    r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#5599FF"}),
		success: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#008000", Dark: "#55FF55"}),
		debug:   r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}),
		attr:    r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}),
	}
}

// Handler is an slog.Handler writing styled lines to a writer.
type Handler struct {
	mu     *sync.Mutex
	out    io.Writer
	level  slog.Leveler
	styles styles
	attrs  []slog.Attr
	group  string
}

// NewHandler returns a Handler for w. A nil level means slog.LevelInfo.
func NewHandler(w io.Writer, level slog.Leveler) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &Handler{
		mu:     &sync.Mutex{},
		out:    w,
		level:  level,
		styles: newStyles(lipgloss.NewRenderer(w)),
	}
}

// New returns a logger writing to w at the given level.
func New(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(NewHandler(w, level))
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	success := false
	var pairs []string

	collect := func(a slog.Attr, group string) {
		if a.Key == SuccessKey && a.Value.Kind() == slog.KindBool {
			success = success || a.Value.Bool()
			return
		}
		pairs = appendAttr(pairs, group, a)
	}
	// Stored attrs already carry their group prefix.
	for _, a := range h.attrs {
		collect(a, "")
	}
	r.Attrs(func(a slog.Attr) bool {
		collect(a, h.group)
		return true
	})

	var b strings.Builder
	switch {
	case r.Level >= slog.LevelError:
		b.WriteString(h.styles.err.Render("Error: " + r.Message))
	case r.Level >= slog.LevelWarn:
		b.WriteString(h.styles.warn.Render("Warning: " + r.Message))
	case r.Level < slog.LevelInfo:
		b.WriteString(h.styles.debug.Render(r.Message))
	case success:
		b.WriteString(h.styles.success.Render(r.Message))
	default:
		b.WriteString(h.styles.info.Render(r.Message))
	}
	if len(pairs) > 0 {
		b.WriteByte(' ')
		b.WriteString(h.styles.attr.Render(strings.Join(pairs, " ")))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	h2.attrs = append(h2.attrs, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		h2.attrs = append(h2.attrs, a)
	}
	return &h2
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	if h.group != "" {
		name = h.group + "." + name
	}
	h2.group = name
	return &h2
}

func appendAttr(dst []string, group string, a slog.Attr) []string {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst
	}
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			dst = appendAttr(dst, key, ga)
		}
		return dst
	}
	return append(dst, key+"="+formatValue(a.Value))
}

func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindString:
		s = v.String()
	case slog.KindDuration:
		s = v.Duration().String()
	case slog.KindTime:
		s = v.Time().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
