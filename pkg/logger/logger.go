// Package logger builds the application's slog logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogsentry "github.com/samber/slog-sentry/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileOptions enables size-based log rotation when Path is set.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Options controls where and how the logger writes.
type Options struct {
	// Level is shared with the caller so it can be changed at runtime.
	Level  *slog.LevelVar
	Format string
	Output io.Writer
	File   FileOptions
	// Sentry forwards records at or above SentryLevel when true. The sentry
	// client must already be initialised.
	Sentry      bool
	SentryLevel slog.Level
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates a masking slog.Logger from opts. The returned Closer releases the log file, if any.
func New(opts Options) (*slog.Logger, io.Closer) {
	level := opts.Level
	if level == nil {
		level = new(slog.LevelVar)
	}

	var (
		out    = opts.Output
		closer io.Closer = nopCloser{}
	)
	if opts.File.Path != "" {
		rotating := &lumberjack.Logger{
			Filename:   opts.File.Path,
			MaxSize:    opts.File.MaxSizeMB,
			MaxBackups: opts.File.MaxBackups,
			MaxAge:     opts.File.MaxAgeDays,
			Compress:   opts.File.Compress,
		}
		out = rotating
		closer = rotating
	}
	if out == nil {
		out = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		handler = slog.NewTextHandler(out, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}

	if opts.Sentry {
		sentryHandler := slogsentry.Option{Level: opts.SentryLevel}.NewSentryHandler()
		handler = newFanoutHandler(handler, sentryHandler)
	}

	return slog.New(NewMaskingHandler(handler)), closer
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("parse log level %q: %w", s, err)
	}

	return level, nil
}
