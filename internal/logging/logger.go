// Package logging provides a small, goroutine-safe, leveled logger shared
// across the whole process: one instance, safe concurrent writes from
// every executor worker and the recovery path. The level hierarchy
// (Disabled < Error < Warn < Info < Debug < Trace) follows
// mutagen-io/mutagen's pkg/logging.Level — a standard-library logger
// despite that repo's otherwise large dependency surface, and the closest
// idiomatic precedent in this corpus for ordered log levels.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents a log level. Its value hierarchy is ordered and
// comparable: a message logs only if its own level is at or above the
// severity of the configured threshold (lower numeric value = more
// severe / always shown).
type Level int

const (
	LevelDisabled Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

// NameToLevel converts a string (as read from a config file or CLI flag)
// into a Level, reporting whether the name was recognized.
func NameToLevel(name string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "disabled":
		return LevelDisabled, true
	case "error":
		return LevelError, true
	case "warn", "warning":
		return LevelWarn, true
	case "info":
		return LevelInfo, true
	case "debug":
		return LevelDebug, true
	case "trace":
		return LevelTrace, true
	default:
		return LevelInfo, false
	}
}

func (l Level) String() string {
	switch l {
	case LevelDisabled:
		return "disabled"
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	case LevelTrace:
		return "trace"
	default:
		return "unknown"
	}
}

// kindLevel maps the label that appears in each log line to the Level it
// is gated by. SUCCESS and COUNT are this package's own additions to the
// mutagen hierarchy (end-of-run summaries), both gated at Info.
var kindLevel = map[string]Level{
	"TRACE":   LevelTrace,
	"DEBUG":   LevelDebug,
	"INFO":    LevelInfo,
	"SUCCESS": LevelInfo,
	"COUNT":   LevelInfo,
	"WARN":    LevelWarn,
	"ERROR":   LevelError,
	"FATAL":   LevelError,
}

// LogSettings controls where logs go and how verbose they are.
//
// Modes:
// - NoLogs=true  => console-only (stdout). No log files are created.
// - NoLogs=false => write logs to files under LogDir only; nothing goes to stdout.
type LogSettings struct {
	NoLogs bool
	LogDir string
	Level  Level
}

// Field is one structured key=value pair appended to a log line, in the
// same field-oriented shape mutagen's log lines use.
type Field struct {
	Key   string
	Value any
}

// F constructs a Field; the common call shape is
// logging.F("job_id", jobID).
func F(key string, value any) Field { return Field{Key: key, Value: value} }

// Logger is a lightweight, goroutine-safe logger intended for a single
// shared instance across the entire process.
//
// Thread safety model: all file writes are guarded by mu so multiple
// executor workers can call Log concurrently without interleaving lines.
type Logger struct {
	settings LogSettings
	mu       sync.Mutex
}

// New initializes a Logger. If settings.NoLogs is false, settings.LogDir
// must be set and is created eagerly so permission problems surface at
// startup rather than on the first log line of a long-running recovery.
func New(settings LogSettings) (*Logger, error) {
	if settings.Level == LevelDisabled && !settings.NoLogs {
		settings.Level = LevelInfo
	}
	if !settings.NoLogs {
		if settings.LogDir == "" {
			return nil, fmt.Errorf("log dir is empty (settings.LogDir)")
		}
		if err := os.MkdirAll(settings.LogDir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	return &Logger{settings: settings}, nil
}

// Enabled reports whether kind (e.g. "INFO", "DEBUG") would currently be
// written, given the configured level threshold.
func (l *Logger) Enabled(kind string) bool {
	level, ok := kindLevel[strings.ToUpper(strings.TrimSpace(kind))]
	if !ok {
		return true // fail-open: an unrecognized kind is not silently dropped
	}
	return level <= l.settings.Level
}

// Log writes a single log line, appending any structured fields as
// trailing key=value pairs.
//
// Output format:
//
//	[MM/DD/YY HH:MM:SS] [LEVEL] -> message key1=value1 key2=value2
//
// File mode behavior mirrors the original maintenance logger: every line
// goes to the daily main log, COUNT lines are duplicated to a count log,
// and ERROR lines are duplicated to an errors log for quick scanning.
func (l *Logger) Log(kind, msg string, fields ...Field) {
	kind = strings.ToUpper(strings.TrimSpace(kind))
	if !l.Enabled(kind) {
		return
	}

	line := formatLine(kind, msg, fields)

	if l.settings.NoLogs {
		fmt.Print(line)
		return
	}

	date := time.Now().Format("2006-01-02")
	mainFile := filepath.Join(l.settings.LogDir, fmt.Sprintf("reorg_%s.log", date))

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := appendLine(mainFile, line); err != nil {
		fmt.Printf("error writing to log file: %v\n", err)
		return
	}
	if kind == "COUNT" {
		countFile := filepath.Join(l.settings.LogDir, fmt.Sprintf("count_%s.log", date))
		_ = appendLine(countFile, line)
	}
	if kind == "ERROR" {
		errorFile := filepath.Join(l.settings.LogDir, fmt.Sprintf("errors_%s.log", date))
		_ = appendLine(errorFile, line)
	}
}

func formatLine(kind, msg string, fields []Field) string {
	stamp := time.Now().Format("01/02/06 15:04:05")
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] -> %s", stamp, kind, msg)
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	b.WriteByte('\n')
	return b.String()
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line)
	return err
}

// Convenience methods avoid passing level strings everywhere.
func (l *Logger) Trace(msg string, fields ...Field)   { l.Log("TRACE", msg, fields...) }
func (l *Logger) Debug(msg string, fields ...Field)   { l.Log("DEBUG", msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)    { l.Log("INFO", msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)    { l.Log("WARN", msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field)   { l.Log("ERROR", msg, fields...) }
func (l *Logger) Success(msg string, fields ...Field) { l.Log("SUCCESS", msg, fields...) }
func (l *Logger) Count(msg string, fields ...Field)   { l.Log("COUNT", msg, fields...) }

// Fatal logs the message and exits the process with code 1. os.Exit
// terminates immediately (defers do NOT run) so this is reserved for
// unrecoverable startup states.
func (l *Logger) Fatal(msg string, fields ...Field) { l.Log("FATAL", msg, fields...); os.Exit(1) }

// Formatted helpers reduce repeated fmt.Sprintf usage at call sites where
// structured fields aren't needed.
func (l *Logger) Debugf(format string, args ...any)   { l.Debug(fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...any)    { l.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...any)    { l.Warn(fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...any)   { l.Error(fmt.Sprintf(format, args...)) }
func (l *Logger) Successf(format string, args ...any) { l.Success(fmt.Sprintf(format, args...)) }
func (l *Logger) Countf(format string, args ...any)   { l.Count(fmt.Sprintf(format, args...)) }
func (l *Logger) Fatalf(format string, args ...any)   { l.Fatal(fmt.Sprintf(format, args...)) }
