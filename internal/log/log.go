// Package log provides structured logging for rulebook.
// Entries carry level, category and timestamp fields and are only written
// when logging is enabled via --debug or RULEBOOK_DEBUG.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/zjrosen/rulebook/internal/pubsub"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

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

// Category groups related log messages.
type Category string

const (
	CatConfig   Category = "config"   // Configuration loading/saving
	CatDB       Category = "db"       // Database operations
	CatStore    Category = "store"    // Rule persistence
	CatRegistry Category = "registry" // Provider type registration and construction
	CatEditor   Category = "editor"   // Provider field editors
	CatRules    Category = "rules"    // Rule collection operations
	CatCache    Category = "cache"    // cache operations
	CatWatcher  Category = "watcher"  // File watcher events
	CatTrace    Category = "trace"    // Tracing setup
)

// Logger provides structured logging.
type Logger struct {
	mu       sync.Mutex
	file     *os.File
	writer   io.Writer
	enabled  bool
	minLevel Level
	entries  *pubsub.Subject[string] // Fan-out of formatted entries
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init initializes the global logger writing to path.
// Returns a cleanup function to close the log file.
func Init(path string) (func(), error) {
	var initErr error
	once.Do(func() {
		defaultLogger, initErr = newLogger(path)
	})
	if initErr != nil {
		return nil, initErr
	}
	// Check if logger was initialized (handles case where once.Do already ran)
	if defaultLogger == nil {
		return nil, fmt.Errorf("logger initialization failed or already attempted")
	}
	return func() {
		if defaultLogger != nil && defaultLogger.file != nil {
			_ = defaultLogger.file.Close()
		}
	}, nil
}

// InitWriter replaces the global logger with one writing to w.
// Used by tests and by commands that want log lines on stderr.
func InitWriter(w io.Writer) {
	defaultLogger = &Logger{
		writer:   w,
		enabled:  true,
		minLevel: LevelDebug,
		entries:  pubsub.NewSubject[string](),
	}
}

func newLogger(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) //nolint:gosec // G304: path is user-controlled debug log path
	if err != nil {
		return nil, err
	}

	return &Logger{
		file:     f,
		writer:   f,
		enabled:  true,
		minLevel: LevelDebug,
		entries:  pubsub.NewSubject[string](),
	}, nil
}

// SetEnabled toggles logging on/off.
func SetEnabled(enabled bool) {
	if defaultLogger != nil {
		defaultLogger.mu.Lock()
		defaultLogger.enabled = enabled
		defaultLogger.mu.Unlock()
	}
}

// SetMinLevel sets the minimum log level.
func SetMinLevel(level Level) {
	if defaultLogger != nil {
		defaultLogger.mu.Lock()
		defaultLogger.minLevel = level
		defaultLogger.mu.Unlock()
	}
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	log(LevelDebug, cat, msg, fields...)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	log(LevelInfo, cat, msg, fields...)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	log(LevelWarn, cat, msg, fields...)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	log(LevelError, cat, msg, fields...)
}

// ErrorErr logs an error with the error value.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	} else {
		fields = append(fields, "error", "<nil>")
	}
	log(LevelError, cat, msg, fields...)
}

func log(level Level, cat Category, msg string, fields ...any) {
	logger := defaultLogger
	if logger == nil {
		return
	}

	logger.mu.Lock()
	if !logger.enabled || level < logger.minLevel {
		logger.mu.Unlock()
		return
	}

	entry := format(time.Now(), level, cat, msg, fields...)
	if logger.writer != nil {
		_, _ = logger.writer.Write([]byte(entry))
	}
	logger.mu.Unlock()

	// Published outside the lock so subscribers may log themselves.
	if logger.entries != nil {
		logger.entries.Publish(pubsub.LoggedEvent, entry)
	}
}

// format renders one entry.
// Format: 2025-12-06T10:45:00 [ERROR] [store] message key=value key2=value2
func format(ts time.Time, level Level, cat Category, msg string, fields ...any) string {
	entry := fmt.Sprintf("%s [%s] [%s] %s", ts.Format("2006-01-02T15:04:05"), level, cat, msg)

	for i := 0; i+1 < len(fields); i += 2 {
		entry += fmt.Sprintf(" %v=%v", fields[i], fields[i+1])
	}
	// Handle odd field count - append orphan key with no value
	if len(fields)%2 != 0 {
		entry += fmt.Sprintf(" %v=<missing>", fields[len(fields)-1])
	}
	return entry + "\n"
}

// Subscribe registers fn to receive every formatted entry that is written.
// Returns an unsubscribe function; a no-op when logging was never initialized.
func Subscribe(fn func(entry string)) func() {
	if defaultLogger == nil || defaultLogger.entries == nil {
		return func() {}
	}
	return defaultLogger.entries.Subscribe(func(e pubsub.Event[string]) {
		fn(e.Payload)
	})
}
