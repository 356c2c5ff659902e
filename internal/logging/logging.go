// Package logging provides component-tagged logging with file output and rotation.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Nomadcxx/jellyscout/internal/paths"
)

// Level represents a logging level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the upper-case name written in log lines
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string to a Level. Unknown names fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value any
}

// F creates a new Field
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Config holds logger configuration
type Config struct {
	Level      string    `mapstructure:"level" toml:"level"`             // debug, info, warn, error
	File       string    `mapstructure:"file" toml:"file"`               // empty for the state dir log
	MaxSizeMB  int       `mapstructure:"max_size_mb" toml:"max_size_mb"` // rotate past this size (default: 10)
	MaxBackups int       `mapstructure:"max_backups" toml:"max_backups"` // rotated files kept (default: 5)
	Console    io.Writer `mapstructure:"-" toml:"-"`                     // defaults to stdout
	NoFile     bool      `mapstructure:"-" toml:"-"`                     // console only
}

// DefaultConfig returns default logging configuration
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		MaxSizeMB:  10,
		MaxBackups: 5,
	}
}

// Logger writes component-tagged lines to the console and a rotating file
type Logger struct {
	level      Level
	mu         sync.Mutex
	file       *os.File
	filePath   string
	maxSize    int64 // bytes
	maxBackups int
	console    io.Writer
	writers    []io.Writer
}

// New creates a new Logger with the given configuration
func New(cfg Config) (*Logger, error) {
	console := cfg.Console
	if console == nil {
		console = os.Stdout
	}

	l := &Logger{
		level:      ParseLevel(cfg.Level),
		maxSize:    int64(cfg.MaxSizeMB) * 1024 * 1024,
		maxBackups: cfg.MaxBackups,
		console:    console,
		writers:    []io.Writer{console},
	}

	if l.maxSize == 0 {
		l.maxSize = 10 * 1024 * 1024 // 10MB
	}
	if l.maxBackups == 0 {
		l.maxBackups = 5
	}

	if cfg.NoFile {
		return l, nil
	}

	// Default to the log file under the state directory
	if cfg.File == "" {
		logPath, err := paths.LogPath()
		if err != nil {
			return nil, fmt.Errorf("unable to resolve log path: %w", err)
		}
		cfg.File = logPath
	}

	// Expand a leading ~
	if strings.HasPrefix(cfg.File, "~") {
		home, err := paths.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("unable to get home dir: %w", err)
		}
		cfg.File = filepath.Join(home, cfg.File[1:])
	}

	l.filePath = cfg.File

	// Make sure the log directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}

	if err := l.openFile(); err != nil {
		return nil, err
	}

	return l, nil
}

// openFile opens the log file for appending and adds it to the writers
func (l *Logger) openFile() error {
	if l.filePath == "" {
		return nil
	}

	f, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("unable to open log file: %w", err)
	}

	l.file = f
	l.writers = []io.Writer{l.console, f}
	return nil
}

// checkRotation rotates the file once it reaches maxSize. Callers hold l.mu.
func (l *Logger) checkRotation() error {
	if l.file == nil {
		return nil
	}

	info, err := l.file.Stat()
	if err != nil {
		return err
	}

	if info.Size() < l.maxSize {
		return nil
	}

	// Full
	return l.rotate()
}

// rotate moves the live file to backup 1 and starts a fresh one
func (l *Logger) rotate() error {
	// Close before renaming
	if l.file != nil {
		l.file.Close()
	}

	if err := rotateFiles(l.filePath, l.maxBackups); err != nil {
		return err
	}

	// Reopen at the original path
	return l.openFile()
}

// log formats one line as "<time> [LEVEL] [component] msg | key=value ..."
// and writes it to every writer
func (l *Logger) log(level Level, component, msg string, err error, fields ...Field) {
	if !l.Enabled(level) {
		return
	}

	// Build the line outside the lock
	var sb strings.Builder
	sb.WriteString(time.Now().Format(time.RFC3339))
	fmt.Fprintf(&sb, " [%s] [%s] %s", level, component, msg)
	if err != nil {
		writeField(&sb, "error", err.Error())
	}
	for _, f := range fields {
		writeField(&sb, f.Key, f.Value)
	}
	sb.WriteByte('\n')
	line := []byte(sb.String())

	l.mu.Lock()
	defer l.mu.Unlock()

	// A failed rotation must not lose the line
	if rotErr := l.checkRotation(); rotErr != nil {
		fmt.Fprintf(os.Stderr, "log rotation error: %v\n", rotErr)
	}
	for _, w := range l.writers {
		w.Write(line)
	}
}

// writeField appends " | key=value". Release names are full of spaces, so
// values containing a space or the separator are quoted.
func writeField(sb *strings.Builder, key string, value any) {
	text := fmt.Sprint(value)
	if strings.ContainsAny(text, " |\t\n\"") {
		text = strconv.Quote(text)
	}
	sb.WriteString(" | ")
	sb.WriteString(key)
	sb.WriteByte('=')
	sb.WriteString(text)
}

// Enabled reports whether messages at level are written
func (l *Logger) Enabled(level Level) bool {
	return level >= l.level
}

// Debug logs a debug message
func (l *Logger) Debug(component, msg string, fields ...Field) {
	l.log(LevelDebug, component, msg, nil, fields...)
}

// Info logs an info message
func (l *Logger) Info(component, msg string, fields ...Field) {
	l.log(LevelInfo, component, msg, nil, fields...)
}

// Warn logs a warning message
func (l *Logger) Warn(component, msg string, fields ...Field) {
	l.log(LevelWarn, component, msg, nil, fields...)
}

// Error logs an error message with an error
func (l *Logger) Error(component, msg string, err error, fields ...Field) {
	l.log(LevelError, component, msg, err, fields...)
}

// Close closes the log file
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// FilePath returns the log file path ("" for console-only loggers)
func (l *Logger) FilePath() string {
	return l.filePath
}

// Nop returns a logger that discards all output
func Nop() *Logger {
	return &Logger{
		level:   LevelError + 1, // above every real level
		writers: []io.Writer{},
	}
}
