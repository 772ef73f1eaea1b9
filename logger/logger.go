package logger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// noopFunc is returned by Trace when tracing is off
var noopFunc = func() {}

// Trace returns a function that logs how long an operation took.
// Usage: defer logger.Trace("highlight.Run")()
func Trace(name string) func() {
	l := current()
	if !l.shouldLog(LogLevelTrace) {
		return noopFunc
	}
	start := time.Now()
	return func() {
		l.logf(LogLevelTrace, "%s: %v", name, time.Since(start))
	}
}

// MaxLogLines is how many lines a log file keeps before it is trimmed
const MaxLogLines = 5000

// LogLevel is a logging threshold
type LogLevel int

const (
	LogLevelTrace LogLevel = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelTrace:
		return "TRACE"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel parses a level name, defaulting to INFO
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LogLevelTrace
	case "DEBUG":
		return LogLevelDebug
	case "WARN", "WARNING":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// LimitedLogger writes levelled lines to an output. When the output is a log
// file it is trimmed to the last MaxLogLines lines as it grows.
type LimitedLogger struct {
	mu        sync.Mutex
	out       io.Writer
	file      *os.File // set only for trimmed log files
	lineCount int
	level     LogLevel
}

var (
	globalMu     sync.RWMutex
	globalLogger *LimitedLogger
)

// defaultLogger serves package calls until Install is called
var defaultLogger = &LimitedLogger{out: os.Stderr, level: LogLevelInfo}

func current() *LimitedLogger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger != nil {
		return globalLogger
	}
	return defaultLogger
}

// New creates a logger writing to w
func New(w io.Writer, level LogLevel) *LimitedLogger {
	return &LimitedLogger{out: w, level: level}
}

// OpenFile creates a logger appending to the file at path, trimmed to MaxLogLines
func OpenFile(path string, level LogLevel) (*LimitedLogger, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	ll := &LimitedLogger{out: f, file: f, level: level}
	ll.countExistingLines()
	return ll, nil
}

// Install makes ll the target of the package-level functions
func Install(ll *LimitedLogger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = ll
}

// SetLevel changes the threshold
func (ll *LimitedLogger) SetLevel(level LogLevel) {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.level = level
}

// Level returns the threshold
func (ll *LimitedLogger) Level() LogLevel {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	return ll.level
}

// SetGlobalLevel changes the threshold of the installed logger
func SetGlobalLevel(level LogLevel) {
	current().SetLevel(level)
}

func (ll *LimitedLogger) shouldLog(level LogLevel) bool {
	return level >= ll.Level()
}

func (ll *LimitedLogger) logf(level LogLevel, format string, v ...any) {
	if !ll.shouldLog(level) {
		return
	}
	msg := fmt.Sprintf("%s [%s] %s\n", time.Now().Format("2006/01/02 15:04:05"), level, fmt.Sprintf(format, v...))
	ll.Write([]byte(msg))
}

func (ll *LimitedLogger) Debug(format string, v ...any) { ll.logf(LogLevelDebug, format, v...) }

func (ll *LimitedLogger) Info(format string, v ...any) { ll.logf(LogLevelInfo, format, v...) }

func (ll *LimitedLogger) Warn(format string, v ...any) { ll.logf(LogLevelWarn, format, v...) }

func (ll *LimitedLogger) Error(format string, v ...any) { ll.logf(LogLevelError, format, v...) }

// Fatal logs at ERROR and exits with code 1
func (ll *LimitedLogger) Fatal(format string, v ...any) {
	ll.logf(LogLevelError, format, v...)
	os.Exit(1)
}

// Package-level logging through the installed logger

func Debug(format string, v ...any) { current().Debug(format, v...) }

func Info(format string, v ...any) { current().Info(format, v...) }

func Warn(format string, v ...any) { current().Warn(format, v...) }

func Error(format string, v ...any) { current().Error(format, v...) }

func Fatal(format string, v ...any) { current().Fatal(format, v...) }

func (ll *LimitedLogger) countExistingLines() {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	ll.file.Seek(0, io.SeekStart)
	scanner := bufio.NewScanner(ll.file)
	count := 0
	for scanner.Scan() {
		count++
	}
	ll.lineCount = count
	ll.file.Seek(0, io.SeekEnd)
}

// Write implements io.Writer so the standard log package can be redirected here
func (ll *LimitedLogger) Write(p []byte) (int, error) {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	n, err := ll.out.Write(p)
	if err != nil || ll.file == nil {
		return n, err
	}

	ll.lineCount += strings.Count(string(p), "\n")
	if ll.lineCount > MaxLogLines {
		ll.trimFile()
	}
	return n, nil
}

// trimFile keeps only the last MaxLogLines lines (caller holds the lock)
func (ll *LimitedLogger) trimFile() {
	ll.file.Seek(0, io.SeekStart)
	scanner := bufio.NewScanner(ll.file)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) > MaxLogLines {
		lines = lines[len(lines)-MaxLogLines:]
	}

	ll.file.Truncate(0)
	ll.file.Seek(0, io.SeekStart)
	for _, line := range lines {
		ll.file.WriteString(line + "\n")
	}
	ll.lineCount = len(lines)
}

// Close closes the log file, if any
func (ll *LimitedLogger) Close() error {
	if ll.file == nil {
		return nil
	}
	return ll.file.Close()
}
