// Package logger is a small leveled logger with stdout output and optional
// daily-rotated file output.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"tasker/internal/constants"
)

const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

var levelOrder = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// Logger writes "[LEVEL] timestamp | message" lines.
type Logger struct {
	mu         sync.Mutex
	level      string
	out        io.Writer // nil disables console output
	dir        string    // empty disables file output
	file       *os.File
	currentDay int // year*1000 + yday of the open file
}

// Options configures a Logger.
type Options struct {
	Level string
	// Dir enables file logging to Dir/<YYYY-MM-DD>.log.
	Dir string
	// Output defaults to os.Stdout. Set Quiet to disable console output.
	Output io.Writer
	Quiet  bool
}

// NewLogger creates a stdout-only logger.
func NewLogger(level string) *Logger {
	return New(Options{Level: level})
}

// New creates a logger from options. Unknown levels fall back to DEBUG.
func New(opts Options) *Logger {
	l := &Logger{
		level: normalizeLevel(opts.Level),
		dir:   opts.Dir,
		out:   opts.Output,
	}
	if l.out == nil && !opts.Quiet {
		l.out = os.Stdout
	}
	if opts.Quiet {
		l.out = nil
	}
	return l
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *Logger {
	return New(Options{Level: LevelError, Quiet: true})
}

func normalizeLevel(level string) string {
	level = strings.ToUpper(strings.TrimSpace(level))
	if _, ok := levelOrder[level]; !ok {
		return LevelDebug
	}
	return level
}

// ValidLevel reports whether level names a known level (case-insensitive).
func ValidLevel(level string) bool {
	_, ok := levelOrder[strings.ToUpper(strings.TrimSpace(level))]
	return ok
}

// SetDir enables or changes file logging. Pass "" to disable it.
func (l *Logger) SetDir(dir string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir != "" {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}
	l.closeFileUnsafe()
	l.dir = dir
	return nil
}

// Close closes the open log file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeFileUnsafe()
}

func (l *Logger) closeFileUnsafe() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.currentDay = 0
	return err
}

func (l *Logger) SetLevel(level string) {
	if !ValidLevel(level) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = normalizeLevel(level)
}

func (l *Logger) Level() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func getDayKey(t time.Time) int {
	return t.Year()*1000 + t.YearDay()
}

func getLogFilename(t time.Time) string {
	return t.UTC().Format("2006-01-02") + constants.LogFileExtension
}

// fileUnsafe returns the file for today, rotating at UTC midnight.
// Caller must hold the mutex.
func (l *Logger) fileUnsafe(now time.Time) (*os.File, error) {
	day := getDayKey(now.UTC())
	if l.file != nil && day == l.currentDay {
		return l.file, nil
	}
	l.closeFileUnsafe()

	if err := os.MkdirAll(l.dir, constants.DirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", l.dir, err)
	}
	path := filepath.Join(l.dir, getLogFilename(now))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	l.file = f
	l.currentDay = day
	return f, nil
}

func (l *Logger) log(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if levelOrder[level] < levelOrder[l.level] {
		return
	}

	now := time.Now()
	line := fmt.Sprintf("[%s] %s | %s\n", level, now.Format(constants.LogTimestampFormat), fmt.Sprintf(format, args...))

	if l.out != nil {
		io.WriteString(l.out, line)
	}
	if l.dir == "" {
		return
	}
	f, err := l.fileUnsafe(now)
	if err != nil {
		if l.out != nil {
			fmt.Fprintf(l.out, "[LOGGER_ERROR] %v\n", err)
		}
		return
	}
	if _, err := f.WriteString(line); err != nil && l.out != nil {
		fmt.Fprintf(l.out, "[LOGGER_ERROR] failed to write log file: %v\n", err)
	}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}
