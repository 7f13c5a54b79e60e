// Package logger is the verbose diagnostic log for stratus. Nothing is
// written unless verbose mode is on. While the TUI owns the terminal the
// output is redirected to a file with OpenFile.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	verbose bool
	out     io.Writer = os.Stderr
	now               = time.Now
)

// SetVerbose turns verbose logging on or off.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether verbose logging is on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects log output. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// OpenFile appends log output to path and returns the file so the caller
// can close it on exit.
func OpenFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	SetOutput(f)
	return f, nil
}

func write(level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose {
		return
	}
	fmt.Fprintf(out, "%s [%s] %s\n", now().Format("15:04:05.000"), level, fmt.Sprintf(format, args...))
}

// Debug logs pipeline detail.
func Debug(format string, args ...any) { write("DEBUG", format, args...) }

// Info logs normal progress, e.g. requests issued.
func Info(format string, args ...any) { write("INFO", format, args...) }

// Warn logs recoverable problems such as discarded stale responses.
func Warn(format string, args ...any) { write("WARN", format, args...) }

// Error logs failures that are also surfaced to the user.
func Error(format string, args ...any) { write("ERROR", format, args...) }
