// Package logging provides the structured diagnostic log for hiscore.
//
// Messages are JSON lines written by log/slog, either to a file next to the
// score table or to stderr. User-facing output never goes through this
// package; it is printed with the style package instead.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Log levels accepted in configuration.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// FileName is the log file created inside the log directory.
const FileName = "hiscore.log"

// Logger writes structured log entries with persistent attributes.
// It is safe for concurrent use.
type Logger struct {
	logger *slog.Logger
	file   *os.File
	mu     *sync.Mutex
	attrs  []any
}

// NewLogger creates a Logger writing JSON lines to {dir}/hiscore.log.
// An empty dir logs to stderr.
func NewLogger(dir, level string) (*Logger, error) {
	var w io.Writer = os.Stderr
	var file *os.File

	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644) //nolint:gosec // G304: path comes from configuration
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		file = f
		w = f
	}

	l := New(w, level)
	l.file = file
	return l, nil
}

// New creates a Logger writing JSON lines to w.
func New(w io.Writer, level string) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	return &Logger{logger: slog.New(handler), mu: &sync.Mutex{}}
}

// NopLogger returns a Logger that discards everything.
func NopLogger() *Logger {
	return New(io.Discard, LevelError)
}

// OrNop returns l, or a discarding logger when l is nil.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return NopLogger()
	}
	return l
}

func parseLevel(level string) slog.Level {
	switch ParseLevel(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel normalizes a level name, defaulting to INFO.
func ParseLevel(level string) string {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn, "WARNING":
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

// IsValidLevel reports whether level names a known level. Empty means the
// default.
func IsValidLevel(level string) bool {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "", LevelDebug, LevelInfo, LevelWarn, "WARNING", LevelError:
		return true
	default:
		return false
	}
}

// ValidLevels returns the accepted level names.
func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}

// With returns a child logger that adds the key-value pairs to every entry.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}
	attrs := make([]any, 0, len(l.attrs)+len(args))
	attrs = append(attrs, l.attrs...)
	attrs = append(attrs, args...)
	return &Logger{logger: l.logger, file: l.file, mu: l.mu, attrs: attrs}
}

// WithRun tags entries with the id of the current process run.
func (l *Logger) WithRun(runID string) *Logger {
	return l.With("run_id", runID)
}

// WithStore tags entries with the score file path.
func (l *Logger) WithStore(path string) *Logger {
	return l.With("store", path)
}

func (l *Logger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	all := make([]any, 0, len(l.attrs)+len(args))
	all = append(all, l.attrs...)
	all = append(all, args...)
	l.logger.Log(context.Background(), level, msg, all...)
}

// Close syncs and closes the log file. Stderr loggers are left open.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		if errors.Is(err, os.ErrClosed) {
			// closed through another logger sharing the file
			l.file = nil
			return nil
		}
		return fmt.Errorf("syncing log file: %w", err)
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing log file: %w", err)
	}
	l.file = nil
	return nil
}
