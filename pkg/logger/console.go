package logger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// DetailKey is the attribute rendered in parentheses after the message by
// the console format instead of as key=value.
const DetailKey = "file"

// palette holds the console styles, bound to one output's renderer.
type palette struct {
	name   lipgloss.Style
	info   lipgloss.Style
	warn   lipgloss.Style
	err    lipgloss.Style
	detail lipgloss.Style
}

func newPalette(w io.Writer, mode string) palette {
	r := lipgloss.NewRenderer(w)
	if strings.EqualFold(mode, "always") {
		r.SetColorProfile(termenv.ANSI)
	}
	return palette{
		name:   r.NewStyle().Foreground(lipgloss.Color("2")),
		info:   r.NewStyle().Foreground(lipgloss.Color("6")),
		warn:   r.NewStyle().Foreground(lipgloss.Color("3")),
		err:    r.NewStyle().Foreground(lipgloss.Color("1")),
		detail: r.NewStyle().Foreground(lipgloss.Color("5")),
	}
}

// message returns the style for a record level.
func (p palette) message(level slog.Level) lipgloss.Style {
	switch {
	case level >= slog.LevelError:
		return p.err
	case level >= slog.LevelWarn:
		return p.warn
	default:
		return p.info
	}
}

// consoleHandler renders records as "[name] message (detail) key=value".
type consoleHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	name   string
	color  bool
	colors palette
	attrs  []slog.Attr
	group  string
}

func newConsoleHandler(w io.Writer, cfg Config, level slog.Leveler) *consoleHandler {
	name := cfg.Name
	if name == "" {
		name = "globwatch"
	}
	h := &consoleHandler{
		mu:    &sync.Mutex{},
		w:     w,
		level: level,
		name:  name,
	}
	if useColor(w, cfg.Color) {
		h.color = true
		h.colors = newPalette(w, cfg.Color)
	}
	return h
}

// useColor resolves the colour mode for w.
func useColor(w io.Writer, mode string) bool {
	switch strings.ToLower(mode) {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// paint renders s with style when colouring is on. Plain output bypasses
// lipgloss so text is written byte for byte.
func (h *consoleHandler) paint(style lipgloss.Style, s string) string {
	if !h.color {
		return s
	}
	return style.Render(s)
}

// Enabled implements slog.Handler.
func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	buf.WriteString("[" + h.paint(h.colors.name, h.name) + "] ")
	buf.WriteString(h.paint(h.colors.message(r.Level), r.Message))

	var detail string
	var rest []slog.Attr
	collect := func(a slog.Attr) bool {
		if a.Key == DetailKey && detail == "" {
			detail = a.Value.String()
			return true
		}
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		rest = append(rest, a)
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(collect)

	if detail != "" {
		buf.WriteString(" (" + h.paint(h.colors.detail, detail) + ")")
	}
	for _, a := range rest {
		fmt.Fprintf(&buf, " %s=%v", a.Key, a.Value)
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// WithAttrs implements slog.Handler.
func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *consoleHandler) WithGroup(name string) slog.Handler {
	clone := *h
	if clone.group != "" {
		name = clone.group + "." + name
	}
	clone.group = name
	return &clone
}
