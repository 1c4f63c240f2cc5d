// Package logger prints trufflepig's diagnostic output.
//
// Debug, Info and Warn lines appear only in verbose mode (the --verbose
// flag) and follow the cache as it scans roots and applies file changes.
// Error lines always appear. Lines look like "[WARN] message".
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

var (
	mu      sync.RWMutex
	verbose bool
	sink    io.Writer = os.Stderr
	zl                = console(os.Stderr)
)

// console returns a zerolog logger writing bracketed level tags.
// Colour is used only when w is a terminal.
func console(w io.Writer) zerolog.Logger {
	plain := true
	if f, ok := w.(*os.File); ok {
		plain = !term.IsTerminal(int(f.Fd()))
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    plain,
		PartsOrder: []string{zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatLevel: func(lvl any) string {
			return "[" + strings.ToUpper(fmt.Sprint(lvl)) + "]"
		},
	})
}

// SetVerbose turns verbose output on or off.
func SetVerbose(v bool) {
	mu.Lock()
	verbose = v
	mu.Unlock()
}

// IsVerbose reports whether verbose output is on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects all log output. The default is os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	sink = w
	zl = console(w)
	mu.Unlock()
}

// emit writes one line at level. Lines below error level are dropped
// unless verbose output is on.
func emit(level zerolog.Level, format string, args []any) {
	mu.RLock()
	defer mu.RUnlock()
	if level < zerolog.ErrorLevel && !verbose {
		return
	}
	zl.WithLevel(level).Msgf(format, args...)
}

// Debug logs cache internals such as individual file events.
func Debug(format string, args ...any) { emit(zerolog.DebugLevel, format, args) }

// Info logs notable cache activity.
func Info(format string, args ...any) { emit(zerolog.InfoLevel, format, args) }

// Warn logs recoverable problems such as unreadable directories.
func Warn(format string, args ...any) { emit(zerolog.WarnLevel, format, args) }

// Error logs failures. It prints whether or not verbose output is on.
func Error(format string, args ...any) { emit(zerolog.ErrorLevel, format, args) }

// Section prints a "=== name ===" banner in verbose mode.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(sink, "\n=== %s ===\n", name)
	}
}
