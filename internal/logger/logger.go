// Package logger is ragvault's process-wide diagnostic log. Errors always
// print; everything else needs --verbose. It writes to stderr so stdout
// stays clean for --json output and the MCP stdio transport.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

type level uint8

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

var tags = [...]string{
	levelDebug: "[DEBUG] ",
	levelInfo:  "[INFO] ",
	levelWarn:  "[WARN] ",
	levelError: "[ERROR] ",
}

// state is guarded by mu; writes hold the lock so lines never interleave.
var (
	mu      sync.Mutex
	verbose bool
	out     io.Writer = os.Stderr
)

func SetVerbose(v bool) {
	mu.Lock()
	verbose = v
	mu.Unlock()
}

func IsVerbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return verbose
}

// SetOutput redirects the log, mainly for tests. nil restores stderr.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	mu.Lock()
	out = w
	mu.Unlock()
}

func write(l level, format string, args []any) {
	mu.Lock()
	defer mu.Unlock()
	if l < levelError && !verbose {
		return
	}
	fmt.Fprintf(out, tags[l]+format+"\n", args...)
}

func Debug(format string, args ...any) { write(levelDebug, format, args) }

func Info(format string, args ...any) { write(levelInfo, format, args) }

func Warn(format string, args ...any) { write(levelWarn, format, args) }

// Error prints even without --verbose.
func Error(format string, args ...any) { write(levelError, format, args) }

// Section starts a visually separated block in verbose output.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(out, "\n=== %s ===\n", name)
	}
}
