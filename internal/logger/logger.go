// Package logger prints pipeline diagnostics to stderr. Debug and Info lines
// only appear in verbose mode; warnings always do.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	verbose bool
	output  io.Writer = os.Stderr
	now               = time.Now
)

// SetVerbose enables or disables Debug and Info output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether verbose output is enabled.
func IsVerbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return verbose
}

// SetOutput redirects log output. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func write(level string, always bool, format string, args []any) {
	mu.Lock()
	defer mu.Unlock()
	if !always && !verbose {
		return
	}
	fmt.Fprintf(output, "%s [%s] %s\n", now().Format("15:04:05"), level, fmt.Sprintf(format, args...))
}

// Debug logs pipeline detail in verbose mode.
func Debug(format string, args ...any) { write("DEBUG", false, format, args) }

// Info logs progress in verbose mode.
func Info(format string, args ...any) { write("INFO", false, format, args) }

// Warn logs a recovered failure.
func Warn(format string, args ...any) { write("WARN", true, format, args) }

// Section prints a header in verbose mode.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
