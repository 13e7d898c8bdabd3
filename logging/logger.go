package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Options selects the handler and minimum level.
type Options struct {
	Level  string
	Format string // console|json
}

// New builds a logger writing to w.
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		return slog.New(&consoleHandler{mu: &sync.Mutex{}, writer: w, level: level}), nil
	case "json":
		return slog.New(newJSONHandler(w, level)), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// LogFilePath returns the log file used when a log directory is configured.
func LogFilePath(dir string) string {
	return filepath.Join(dir, "harnorm.log")
}

// OpenLogFile creates dir if needed and opens harnorm.log for appending.
func OpenLogFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	file, err := os.OpenFile(LogFilePath(dir), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

func newJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339))
				}
			case slog.LevelKey:
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			}
			return attr
		},
	})
}

// consoleHandler writes "ts LEVEL component: msg key=value ..." lines.
type consoleHandler struct {
	mu     *sync.Mutex
	writer io.Writer
	level  slog.Level
	attrs  []slog.Attr
	prefix string
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	var component string
	var buf bytes.Buffer
	writeAttr := func(key string, value slog.Value) {
		value = value.Resolve()
		if key == FieldComponent {
			if component == "" {
				component = value.String()
			}
			return
		}
		if key == "" {
			return
		}
		buf.WriteByte(' ')
		buf.WriteString(key)
		buf.WriteByte('=')
		buf.WriteString(formatValue(value))
	}
	for _, attr := range h.attrs {
		writeAttr(attr.Key, attr.Value)
	}
	record.Attrs(func(attr slog.Attr) bool {
		writeAttr(h.prefix+attr.Key, attr.Value)
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	line := ts.UTC().Format(time.RFC3339) + " " + levelLabel(record.Level) + " "
	if component != "" {
		line += component + ": "
	}
	line += record.Message + buf.String() + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, line)
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

// WithGroup prefixes later keys with the group name.
func (h *consoleHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindString, slog.KindAny:
		s := v.String()
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		}
		if s == "" || strings.ContainsAny(s, " =\"\t\n") {
			return strconv.Quote(s)
		}
		return s
	default:
		return v.String()
	}
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
