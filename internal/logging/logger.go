// Package logging provides the leveled console logger. Console lines are
// colored by level; when a log file is configured every line is also
// written there as a JSON record.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/backmassage/codecshift/internal/config"
	"github.com/backmassage/codecshift/internal/term"
)

// Logger provides leveled, optionally colored logging with an optional
// JSON file sink.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	file   *os.File
	sink   *slog.Logger
	now    func() time.Time
}

// New configures the color palette for stdout and opens cfg.Logging.File
// when set. Call Close when done.
func New(cfg *config.Config, stdout, stderr io.Writer) (*Logger, error) {
	term.Configure(cfg.Logging.Color, stdout)
	l := &Logger{out: stdout, errOut: stderr, now: time.Now}

	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		l.file = f
		l.sink = NewJSONLogger(f)
	}
	return l, nil
}

// Discard returns a Logger that writes nowhere. Used by tests and by
// commands that only print structured output.
func Discard() *Logger {
	return &Logger{out: io.Discard, errOut: io.Discard, now: time.Now}
}

// NewJSONLogger returns a slog logger emitting one JSON object per line.
func NewJSONLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		l.sink = nil
		return err
	}
	return nil
}

func (l *Logger) line(level string, slogLevel slog.Level, color, text string) {
	ts := l.now().Format("2006-01-02 15:04:05")
	l.mu.Lock()
	defer l.mu.Unlock()

	out := l.out
	if slogLevel >= slog.LevelError {
		out = l.errOut
	}
	if color != "" {
		_, _ = io.WriteString(out, ts+" "+color+"["+level+"]"+term.NC+" "+text+"\n")
	} else {
		_, _ = io.WriteString(out, ts+" ["+level+"] "+text+"\n")
	}
	if l.sink != nil {
		l.sink.Log(context.Background(), slogLevel, text, slog.String("tag", level))
	}
}

// Info logs at INFO level (blue).
func (l *Logger) Info(format string, args ...any) {
	l.line("INFO", slog.LevelInfo, term.Blue, fmt.Sprintf(format, args...))
}

// Success logs at SUCCESS level (green).
func (l *Logger) Success(format string, args ...any) {
	l.line("SUCCESS", slog.LevelInfo, term.Green, fmt.Sprintf(format, args...))
}

// Warn logs at WARN level (yellow).
func (l *Logger) Warn(format string, args ...any) {
	l.line("WARN", slog.LevelWarn, term.Yellow, fmt.Sprintf(format, args...))
}

// Error logs at ERROR level (red) to stderr.
func (l *Logger) Error(format string, args ...any) {
	l.line("ERROR", slog.LevelError, term.Red, fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level (cyan) only when verbose.
func (l *Logger) Debug(verbose bool, format string, args ...any) {
	if !verbose {
		return
	}
	l.line("DEBUG", slog.LevelDebug, term.Cyan, fmt.Sprintf(format, args...))
}
