package chatio

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelSuccess
	LevelWarning
	LevelError
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelSuccess:
		return "SUCCESS"
	case LevelWarning:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a config string such as "debug" or "warn" to a level
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "success":
		return LevelSuccess, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// LogFormat defines the output format for log messages
type LogFormat int

const (
	LogFormatCircles LogFormat = iota // 🔵 🟢 🟡 🔴 🟣
	LogFormatSymbols                  // ◆ ✓ ▲ ✗ ●
	LogFormatTagged                   // [INFO] [SUCCESS] [WARN] [ERROR] [DEBUG]
	LogFormatPlain                    // No prefix
)

// ParseFormat converts a config string to a log format
func ParseFormat(s string) (LogFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "circles":
		return LogFormatCircles, nil
	case "symbols":
		return LogFormatSymbols, nil
	case "tagged":
		return LogFormatTagged, nil
	case "plain":
		return LogFormatPlain, nil
	}
	return LogFormatCircles, fmt.Errorf("unknown log format %q", s)
}

var prefixTables = map[LogFormat]map[LogLevel]string{
	LogFormatCircles: {
		LevelDebug:   "🟣",
		LevelInfo:    "🔵",
		LevelSuccess: "🟢",
		LevelWarning: "🟡",
		LevelError:   "🔴",
	},
	LogFormatSymbols: {
		LevelDebug:   "●",
		LevelInfo:    "◆",
		LevelSuccess: "✓",
		LevelWarning: "▲",
		LevelError:   "✗",
	},
	LogFormatTagged: {
		LevelDebug:   "[DEBUG]",
		LevelInfo:    "[INFO]",
		LevelSuccess: "[SUCCESS]",
		LevelWarning: "[WARN]",
		LevelError:   "[ERROR]",
	},
	LogFormatPlain: {},
}

// Theme maps levels to color attributes
type Theme map[LogLevel][]color.Attribute

// DefaultTheme returns the standard level colors
func DefaultTheme() Theme {
	return Theme{
		LevelDebug:   {color.FgMagenta},
		LevelInfo:    {color.FgBlue},
		LevelSuccess: {color.FgGreen},
		LevelWarning: {color.FgYellow},
		LevelError:   {color.FgRed, color.Bold},
	}
}

// Logger writes leveled messages to the terminal and, optionally, to a
// rotating log file. It is safe for concurrent use.
type Logger struct {
	mu           sync.Mutex
	io           *IOManager
	format       LogFormat
	prefixes     map[LogLevel]string
	minLevel     LogLevel
	withTime     bool
	timeFormat   string
	errorsStderr bool
	theme        Theme
	file         io.WriteCloser
	now          func() time.Time
}

// NewLogger creates a new logger bound to the given IOManager
func NewLogger(m *IOManager) *Logger {
	return &Logger{
		io:           m,
		format:       LogFormatCircles,
		prefixes:     prefixTables[LogFormatCircles],
		minLevel:     LevelInfo,
		errorsStderr: true,
		timeFormat:   "15:04:05",
		theme:        DefaultTheme(),
		now:          time.Now,
	}
}

// WithFormat sets the log format and returns the logger for chaining
func (l *Logger) WithFormat(format LogFormat) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.format = format
	l.prefixes = prefixTables[format]
	return l
}

// WithLevel drops messages below level
func (l *Logger) WithLevel(level LogLevel) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
	return l
}

// WithTimestamp enables or disables timestamp in terminal output
func (l *Logger) WithTimestamp(enabled bool) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.withTime = enabled
	return l
}

// ErrorsToStderr controls whether errors and warnings go to stderr
func (l *Logger) ErrorsToStderr(enabled bool) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorsStderr = enabled
	return l
}

// WithTheme sets a custom theme for semantic colors
func (l *Logger) WithTheme(theme Theme) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.theme = theme
	return l
}

// WithFile mirrors every message, uncolored and timestamped, to w.
// The logger closes w on Close.
func (l *Logger) WithFile(w io.WriteCloser) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.file = w
	return l
}

// Enabled reports whether messages at level are written
func (l *Logger) Enabled(level LogLevel) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.minLevel
}

// Log outputs a log message at the specified level
func (l *Logger) Log(level LogLevel, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.minLevel {
		return
	}

	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(l.selectWriter(level), l.formatMessage(level, msg))

	if l.file != nil {
		fmt.Fprintf(l.file, "%s %-7s %s\n", l.now().Format(time.RFC3339), level, msg)
	}
}

// Close closes the file sink, if any
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *Logger) formatMessage(level LogLevel, msg string) string {
	// blank lines pass through untouched
	if strings.TrimSpace(msg) == "" {
		return msg
	}

	var b strings.Builder
	if prefix := l.prefixes[level]; prefix != "" {
		b.WriteString(prefix)
		b.WriteByte(' ')
	}
	if l.withTime {
		b.WriteString("[" + l.now().Format(l.timeFormat) + "] ")
	}
	b.WriteString(msg)

	attrs, ok := l.theme[level]
	if !ok {
		return b.String()
	}
	return l.io.Colorize(b.String(), attrs...)
}

// selectWriter chooses stdout or stderr based on log level and configuration
func (l *Logger) selectWriter(level LogLevel) io.Writer {
	if l.errorsStderr && level >= LevelWarning {
		return l.io.Err()
	}
	return l.io.Out()
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...any) {
	l.Log(LevelDebug, format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...any) {
	l.Log(LevelInfo, format, args...)
}

// Success logs a success message
func (l *Logger) Success(format string, args ...any) {
	l.Log(LevelSuccess, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...any) {
	l.Log(LevelWarning, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...any) {
	l.Log(LevelError, format, args...)
}
