package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ticketsmith/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level string
	// Format is "console" (default) or "json".
	Format string
	// OutputPaths names sinks: "stdout", "stderr" or a file path. Empty means
	// stderr.
	OutputPaths []string
	// Writer overrides OutputPaths when set.
	Writer      io.Writer
	Hub         *StreamHub
	Development bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level := levelFromString(opts.Level)

	out := opts.Writer
	if out == nil {
		var err error
		if out, err = openSinks(opts.OutputPaths); err != nil {
			return nil, err
		}
	}

	withSource := opts.Development || level <= slog.LevelDebug

	var handler slog.Handler
	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "", "console":
		handler = newConsoleHandler(out, level, withSource)
	case "json":
		handler = newJSONHandler(out, level, withSource)
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
	return slog.New(newStreamHandler(handler, opts.Hub)), nil
}

// NewFromConfig logs to stderr and to the file under paths.log_dir. Stdout is
// left to command output.
func NewFromConfig(cfg *config.Config, hub *StreamHub) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Hub: hub})
	}
	sinks := []string{"stderr"}
	if cfg.Paths.LogDir != "" {
		sinks = append(sinks, cfg.LogPath())
	}
	return New(Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: sinks,
		Hub:         hub,
	})
}

// NewFileFromConfig logs JSON only to the file under paths.log_dir, for
// commands that own the terminal (the wizard).
func NewFileFromConfig(cfg *config.Config, hub *StreamHub) (*slog.Logger, error) {
	if cfg == nil || cfg.Paths.LogDir == "" {
		return New(Options{Writer: io.Discard, Hub: hub})
	}
	return New(Options{
		Level:       cfg.Logging.Level,
		Format:      "json",
		OutputPaths: []string{cfg.LogPath()},
		Hub:         hub,
	})
}

// levelFromString accepts slog level names; anything else means info.
func levelFromString(raw string) slog.Level {
	var level slog.Level
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "warning") {
		raw = "warn"
	}
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func openSinks(names []string) (io.Writer, error) {
	var writers []io.Writer
	opened := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || opened[name] {
			continue
		}
		opened[name] = true
		w, err := openSink(name)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}
	switch len(writers) {
	case 0:
		return os.Stderr, nil
	case 1:
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}

func openSink(name string) (io.Writer, error) {
	switch name {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("open log file %s: permission denied", name)
		}
		return nil, fmt.Errorf("open log file %s: %w", name, err)
	}
	return f, nil
}

// newJSONHandler writes records with a "ts" key in UTC seconds and lowercase
// levels, which is what the logs command parses.
func newJSONHandler(w io.Writer, level slog.Level, withSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: withSource,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey && attr.Value.Kind() == slog.KindTime {
				return slog.String("ts", attr.Value.Time().UTC().Format(time.RFC3339))
			}
			if attr.Key == slog.LevelKey {
				return slog.String(slog.LevelKey, strings.ToLower(attr.Value.String()))
			}
			if src, ok := attr.Value.Any().(*slog.Source); ok && attr.Key == slog.SourceKey && src != nil {
				return slog.String(slog.SourceKey, sourceLabel(src))
			}
			return attr
		},
	})
}

func sourceLabel(src *slog.Source) string {
	return fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line)
}
