// Package logging configures the two loggers slatewise runs with: the
// slog default used by internal component loggers, and the logrus
// logger used by the CLI and HTTP layer. Both write to the same sinks.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogLevel is the minimum level emitted
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

const (
	defaultMaxSize    = 10 * 1024 * 1024
	defaultMaxBackups = 3
)

// Config holds logger configuration
type Config struct {
	Level      LogLevel
	OutputFile string // empty means console only
	MaxSize    int64  // bytes before rotation
	MaxBackups int
	JSONFormat bool
	AddSource  bool
}

// Logger owns the shared sinks
type Logger struct {
	slog   *slog.Logger
	logrus *logrus.Logger
	file   *rotatingFile
}

var (
	globalMu     sync.Mutex
	globalLogger *Logger
)

// Initialize builds a Logger on stderr and installs it as the slog
// default. Calling it again replaces the previous logger and closes
// its file.
func Initialize(config Config) (*Logger, error) {
	logger, err := NewLogger(config, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	globalMu.Lock()
	prev := globalLogger
	globalLogger = logger
	globalMu.Unlock()

	slog.SetDefault(logger.slog)
	if prev != nil {
		_ = prev.Close()
	}
	return logger, nil
}

// NewLogger writes to out and, when OutputFile is set, to a rotating file
func NewLogger(config Config, out io.Writer) (*Logger, error) {
	if config.MaxSize <= 0 {
		config.MaxSize = defaultMaxSize
	}
	if config.MaxBackups <= 0 {
		config.MaxBackups = defaultMaxBackups
	}

	logger := &Logger{}
	sink := out
	if config.OutputFile != "" {
		f, err := openRotating(config.OutputFile, config.MaxSize, config.MaxBackups)
		if err != nil {
			return nil, err
		}
		logger.file = f
		sink = io.MultiWriter(out, f)
	}

	opts := &slog.HandlerOptions{
		Level:     toSlogLevel(config.Level),
		AddSource: config.AddSource,
	}
	var handler slog.Handler
	if config.JSONFormat {
		handler = slog.NewJSONHandler(sink, opts)
	} else {
		handler = slog.NewTextHandler(sink, opts)
	}
	logger.slog = slog.New(handler)

	lr := logrus.New()
	lr.SetOutput(sink)
	lr.SetLevel(toLogrusLevel(config.Level))
	if config.JSONFormat {
		lr.SetFormatter(&logrus.JSONFormatter{})
	}
	logger.logrus = lr

	return logger, nil
}

func toSlogLevel(level LogLevel) slog.Level {
	switch level {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func toLogrusLevel(level LogLevel) logrus.Level {
	switch level {
	case DEBUG:
		return logrus.DebugLevel
	case WARN:
		return logrus.WarnLevel
	case ERROR:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// ParseLevel maps "debug", "info", "warn" or "error" to a LogLevel.
// Unknown values map to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Logrus is the logger handed to the CLI commands and the API server
func (l *Logger) Logrus() *logrus.Logger {
	return l.logrus
}

func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Close closes the global logger's file, if any
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		return nil
	}
	return globalLogger.Close()
}

// ConfigFor builds a Config from the logging section of config.yaml.
// Debug level also records source positions.
func ConfigFor(level, format, file string) Config {
	lvl := ParseLevel(level)
	return Config{
		Level:      lvl,
		OutputFile: file,
		MaxSize:    defaultMaxSize,
		MaxBackups: defaultMaxBackups,
		JSONFormat: strings.EqualFold(format, "json"),
		AddSource:  lvl == DEBUG,
	}
}

// rotatingFile renames path to path.1 (shifting older backups) once a
// write would push it past maxSize
type rotatingFile struct {
	mu         sync.Mutex
	path       string
	maxSize    int64
	maxBackups int
	f          *os.File
	size       int64
}

func openRotating(path string, maxSize int64, maxBackups int) (*rotatingFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	r := &rotatingFile{path: path, maxSize: maxSize, maxBackups: maxBackups}
	if err := r.open(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *rotatingFile) open() error {
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", r.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	r.f, r.size = f, info.Size()
	return nil
}

func (r *rotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.f == nil {
		return 0, os.ErrClosed
	}
	if r.size > 0 && r.size+int64(len(p)) > r.maxSize {
		if err := r.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := r.f.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *rotatingFile) rotate() error {
	if err := r.f.Close(); err != nil {
		return err
	}
	r.f = nil

	for i := r.maxBackups - 1; i >= 1; i-- {
		from := fmt.Sprintf("%s.%d", r.path, i)
		if _, err := os.Stat(from); err == nil {
			_ = os.Rename(from, fmt.Sprintf("%s.%d", r.path, i+1))
		}
	}
	if err := os.Rename(r.path, r.path+".1"); err != nil {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}
	return r.open()
}

func (r *rotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}
