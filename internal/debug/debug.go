// Package debug provides development logging for the unwind client.
//
// Logging is off by default. When enabled, every line is written to a file
// with a millisecond timestamp and flushed immediately so the log can be
// followed with tail -f while the TUI owns the terminal.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	enabled bool
	out     io.Writer
	logFile *os.File
	mu      sync.Mutex
	logPath string
)

// Enable turns on debug logging to the specified file.
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	//nolint:gosec // G304: path comes from xdg data dir or an explicit flag.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	logFile = f
	out = f
	logPath = path
	enabled = true

	// Write the header directly; calling Log here would deadlock.
	now := time.Now()
	stamp := now.Format("15:04:05.000")
	writeLocked(fmt.Sprintf("[%s] === Unwind Debug Session Started ===\n", stamp))
	writeLocked(fmt.Sprintf("[%s] Time: %s\n", stamp, now.Format(time.RFC3339)))
	writeLocked(fmt.Sprintf("[%s] Log file: %s\n", stamp, path))

	return nil
}

// EnableWriter turns on debug logging to an arbitrary writer.
// The writer is not closed by Disable.
func EnableWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	out = w
	logFile = nil
	logPath = ""
	enabled = true
}

// Disable turns off debug logging and closes the file.
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if !enabled {
		return
	}

	if logFile != nil {
		_ = logFile.Close() //nolint:errcheck // Nothing useful to do on close failure.
		logFile = nil
	}
	out = nil
	enabled = false
}

// IsEnabled returns whether debug logging is enabled.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Log writes a debug message if logging is enabled.
func Log(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || out == nil {
		return
	}

	stamp := time.Now().Format("15:04:05.000")
	writeLocked(fmt.Sprintf("[%s] %s\n", stamp, fmt.Sprintf(format, args...)))
}

func writeLocked(line string) {
	_, _ = io.WriteString(out, line) //nolint:errcheck // Logging must never fail the caller.
	if logFile != nil {
		_ = logFile.Sync() //nolint:errcheck // Flush for real-time viewing.
	}
}

// LogPath returns the path to the log file.
func LogPath() string {
	mu.Lock()
	defer mu.Unlock()
	return logPath
}

// Event logs an event with component context.
func Event(component, eventType, details string) {
	Log("[%s] %s: %s", component, eventType, details)
}

// Error logs an error with context.
func Error(component string, err error, context string) {
	Log("[%s] ERROR: %s - %v", component, context, err)
}

// Auth logs credential lookups. Token values are never passed here.
func Auth(eventType, details string) {
	Log("[auth] %s: %s", eventType, details)
}
