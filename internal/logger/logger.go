// Package logger is a small leveled logger shared by the client and the
// server. Output goes through log/slog's text handler into a rotating file,
// stderr, or both.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{DEBUG: "DEBUG", INFO: "INFO", WARN: "WARN", ERROR: "ERROR"}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

func (l Level) toSlog() slog.Level {
	switch l {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// ParseLevel is case-insensitive and falls back to INFO for anything unknown.
func ParseLevel(s string) Level {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		return WARN
	}
	for l, n := range levelNames {
		if n == name {
			return l
		}
	}
	return INFO
}

// Field is one structured key/value attached to an entry.
type Field struct {
	Key   string
	Value any
}

func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// toAttrs renders errors as their message so they print as error=boom
func toAttrs(fields []Field) []slog.Attr {
	out := make([]slog.Attr, 0, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			out = append(out, slog.String(f.Key, err.Error()))
		} else {
			out = append(out, slog.Any(f.Key, f.Value))
		}
	}
	return out
}

// Config controls where entries go. An empty FilePath disables file output;
// MaxSize is in bytes and MaxAge in days.
type Config struct {
	Level      Level
	FilePath   string
	MaxSize    int64
	MaxAge     int
	MaxBackups int
	Console    bool
}

// DefaultConfig writes INFO and above to ~/.trashtalk/logs/trashtalk.log.
// Console output stays off so it cannot draw over the TUI.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Level:      INFO,
		FilePath:   filepath.Join(home, ".trashtalk", "logs", "trashtalk.log"),
		MaxSize:    10 << 20,
		MaxAge:     7,
		MaxBackups: 5,
	}
}

type Logger struct {
	config  Config
	file    *rotatingFile
	handler slog.Handler
}

var (
	std     *Logger
	stdOnce sync.Once
)

// Init sets up the package-level logger. Only the first call has an effect.
func Init(config Config) error {
	var err error
	stdOnce.Do(func() {
		std, err = New(config)
	})
	return err
}

func New(config Config) (*Logger, error) {
	l := &Logger{config: config}

	var sinks []io.Writer
	if config.FilePath != "" {
		f, err := openRotating(config)
		if err != nil {
			return nil, err
		}
		l.file = f
		sinks = append(sinks, f)
	}
	if config.Console {
		sinks = append(sinks, os.Stderr)
	}

	out := io.Discard
	if len(sinks) == 1 {
		out = sinks[0]
	} else if len(sinks) > 1 {
		out = io.MultiWriter(sinks...)
	}

	l.handler = slog.NewTextHandler(out, &slog.HandlerOptions{
		Level:       config.Level.toSlog(),
		AddSource:   true,
		ReplaceAttr: shortCaller,
	})
	return l, nil
}

// shortCaller replaces slog's source group with caller=file.go:line
func shortCaller(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey {
		return a
	}
	if src, ok := a.Value.Any().(*slog.Source); ok {
		return slog.String("caller", fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
	}
	return a
}

// emit records the entry against the caller skip frames above it.
func (l *Logger) emit(skip int, level Level, msg string, fields []Field) {
	ctx := context.Background()
	if !l.handler.Enabled(ctx, level.toSlog()) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(skip, pcs[:])
	r := slog.NewRecord(time.Now(), level.toSlog(), msg, pcs[0])
	r.AddAttrs(toAttrs(fields)...)
	_ = l.handler.Handle(ctx, r)
}

// WithFields returns a child logger that adds fields to every entry. The
// child shares the parent's file; close only the parent.
func (l *Logger) WithFields(fields ...Field) *Logger {
	child := *l
	child.handler = l.handler.WithAttrs(toAttrs(fields))
	return &child
}

func (l *Logger) Debug(msg string, fields ...Field) { l.emit(3, DEBUG, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.emit(3, INFO, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.emit(3, WARN, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.emit(3, ERROR, msg, fields) }

func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Package-level helpers. They do nothing until Init has run, so library
// code can log unconditionally.

func logStd(level Level, msg string, fields []Field) {
	if std != nil {
		std.emit(4, level, msg, fields)
	}
}

func Debug(msg string, fields ...Field) { logStd(DEBUG, msg, fields) }
func Info(msg string, fields ...Field)  { logStd(INFO, msg, fields) }
func Warn(msg string, fields ...Field)  { logStd(WARN, msg, fields) }
func Error(msg string, fields ...Field) { logStd(ERROR, msg, fields) }

// WithFields returns nil before Init.
func WithFields(fields ...Field) *Logger {
	if std == nil {
		return nil
	}
	return std.WithFields(fields...)
}

func Close() error {
	if std == nil {
		return nil
	}
	return std.Close()
}

// GetConfig reports the active configuration, or DefaultConfig before Init.
func GetConfig() Config {
	if std == nil {
		return DefaultConfig()
	}
	return std.config
}
