// Package log provides structured logging for scrollcode. It wraps
// tea.LogToFile with leveled, categorized fields. The categories cover the
// four core subsystems (virtualizer, per-file renderer, highlighter,
// reconciler) plus config loading, the TUI shell, and the file watcher.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
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

// Category groups related log messages by subsystem.
type Category string

const (
	CatVirtualizer Category = "virtualizer"
	CatRender      Category = "render"
	CatHighlight   Category = "highlight"
	CatReconcile   Category = "reconcile"
	CatConfig      Category = "config"
	CatTUI         Category = "tui"
	CatWatcher     Category = "watcher"
)

// Logger writes structured log lines to a single destination.
type Logger struct {
	mu       sync.Mutex
	file     *os.File
	writer   io.Writer
	enabled  bool
	minLevel Level
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// InitWithTeaLog opens path via tea.LogToFile (which also redirects Bubble
// Tea's own debug output there) and installs it as the package-level
// destination for Debug/Info/Warn/Error. Returns a cleanup func to close the
// file; safe to defer from cmd/scrollcode's runApp.
func InitWithTeaLog(path, prefix string) (func(), error) {
	f, err := tea.LogToFile(path, prefix)
	if err != nil {
		return nil, err
	}
	defaultLogger = &Logger{file: f, writer: f, enabled: true, minLevel: LevelDebug}
	return func() { _ = f.Close() }, nil
}

// Init opens path directly (no Bubble Tea redirection), for callers that
// need logging outside of a running tea.Program, e.g. a --watch CLI mode
// with no TUI attached.
func Init(path string) (func(), error) {
	var initErr error
	once.Do(func() {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			initErr = err
			return
		}
		defaultLogger = &Logger{file: f, writer: f, enabled: true, minLevel: LevelDebug}
	})
	if initErr != nil {
		return nil, initErr
	}
	if defaultLogger == nil {
		return nil, fmt.Errorf("log: initialization already attempted")
	}
	return func() {
		if defaultLogger != nil && defaultLogger.file != nil {
			_ = defaultLogger.file.Close()
		}
	}, nil
}

// SetEnabled toggles logging globally.
func SetEnabled(enabled bool) {
	if defaultLogger == nil {
		return
	}
	defaultLogger.mu.Lock()
	defaultLogger.enabled = enabled
	defaultLogger.mu.Unlock()
}

// SetMinLevel sets the minimum level that is written out.
func SetMinLevel(level Level) {
	if defaultLogger == nil {
		return
	}
	defaultLogger.mu.Lock()
	defaultLogger.minLevel = level
	defaultLogger.mu.Unlock()
}

func Debug(cat Category, msg string, fields ...any) { write(LevelDebug, cat, msg, fields...) }
func Info(cat Category, msg string, fields ...any)  { write(LevelInfo, cat, msg, fields...) }
func Warn(cat Category, msg string, fields ...any)  { write(LevelWarn, cat, msg, fields...) }
func Error(cat Category, msg string, fields ...any) { write(LevelError, cat, msg, fields...) }

// ErrorErr logs msg at error level with err appended as a field, or "<nil>"
// when err is nil (matching a call site that always wants an "error" key).
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	} else {
		fields = append(fields, "error", "<nil>")
	}
	write(LevelError, cat, msg, fields...)
}

func write(level Level, cat Category, msg string, fields ...any) {
	if defaultLogger == nil || !defaultLogger.enabled || level < defaultLogger.minLevel {
		return
	}

	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02T15:04:05")
	entry := fmt.Sprintf("%s [%s] [%s] %s", timestamp, level, cat, msg)
	for i := 0; i+1 < len(fields); i += 2 {
		entry += fmt.Sprintf(" %v=%v", fields[i], fields[i+1])
	}
	if len(fields)%2 != 0 {
		entry += fmt.Sprintf(" %v=<missing>", fields[len(fields)-1])
	}
	entry += "\n"

	if defaultLogger.writer != nil {
		_, _ = defaultLogger.writer.Write([]byte(entry))
	}
}
