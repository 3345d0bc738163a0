// Package logger is a small slog front end that keeps the "[TAG] message"
// log lines used throughout the service, with colored levels on terminals.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	debugColor = color.New(color.FgHiBlack)
	infoColor  = color.New(color.FgHiCyan)
	warnColor  = color.New(color.FgHiYellow)
	errorColor = color.New(color.FgHiRed)
	tagColor   = color.New(color.FgHiMagenta)

	Logger *slog.Logger
)

func init() {
	Init("info", os.Stdout)
}

// Init replaces the global logger. level is one of debug, info, warn, error.
func Init(level string, w io.Writer) {
	Logger = slog.New(NewHandler(w, ParseLevel(level)))
	slog.SetDefault(Logger)
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Debug(tag, format string, v ...any) {
	Logger.Debug(fmt.Sprintf(format, v...), slog.String("tag", tag))
}

func Info(tag, format string, v ...any) {
	Logger.Info(fmt.Sprintf(format, v...), slog.String("tag", tag))
}

func Warn(tag, format string, v ...any) {
	Logger.Warn(fmt.Sprintf(format, v...), slog.String("tag", tag))
}

func Error(tag, format string, v ...any) {
	Logger.Error(fmt.Sprintf(format, v...), slog.String("tag", tag))
}

func Fatal(tag, format string, v ...any) {
	Error(tag, format, v...)
	os.Exit(1)
}

// Handler writes "15:04:05 LEVEL [TAG] message key=value" lines.
type Handler struct {
	w     io.Writer
	level slog.Leveler
	attrs []slog.Attr
	mu    *sync.Mutex
}

func NewHandler(w io.Writer, level slog.Leveler) *Handler {
	return &Handler{w: w, level: level, mu: &sync.Mutex{}}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var tag string
	var extra strings.Builder

	writeAttr := func(a slog.Attr) {
		if a.Key == "tag" {
			tag = a.Value.String()
			return
		}
		fmt.Fprintf(&extra, " %s=%v", a.Key, a.Value.Any())
	}
	for _, a := range h.attrs {
		writeAttr(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(a)
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var sb strings.Builder
	sb.WriteString(ts.Format("15:04:05"))
	sb.WriteByte(' ')
	sb.WriteString(levelColor(r.Level).Sprintf("%-5s", r.Level.String()))
	if tag != "" {
		sb.WriteByte(' ')
		sb.WriteString(tagColor.Sprintf("[%s]", tag))
	}
	sb.WriteByte(' ')
	sb.WriteString(r.Message)
	sb.WriteString(extra.String())
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &Handler{w: h.w, level: h.level, attrs: merged, mu: h.mu}
}

// WithGroup is not supported; groups are flattened.
func (h *Handler) WithGroup(_ string) slog.Handler {
	return h
}

func levelColor(level slog.Level) *color.Color {
	switch {
	case level >= slog.LevelError:
		return errorColor
	case level >= slog.LevelWarn:
		return warnColor
	case level >= slog.LevelInfo:
		return infoColor
	default:
		return debugColor
	}
}
