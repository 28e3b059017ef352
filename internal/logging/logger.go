package logging

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Logger writes verbose diagnostics and timings. It is kept off stdout,
// which carries the per-file report and summary.
type Logger struct {
	Writer  io.Writer
	Verbose bool
}

// New returns a logger writing to writer, or to stderr when writer is nil.
func New(writer io.Writer, verbose bool) Logger {
	if writer == nil {
		writer = os.Stderr
	}
	return Logger{Writer: writer, Verbose: verbose}
}

// Silenced returns a copy that drops every line, for use while a
// full-screen view owns the terminal.
func (l Logger) Silenced() Logger {
	return Logger{Verbose: l.Verbose}
}

func (l Logger) Infof(format string, args ...any) {
	if l.Writer == nil {
		return
	}
	fmt.Fprintf(l.Writer, format+"\n", args...)
}

func (l Logger) Verbosef(format string, args ...any) {
	if !l.Verbose {
		return
	}
	l.Infof("Verbose: "+format, args...)
}

// Measure returns a stop function that logs the elapsed time when called.
func (l Logger) Measure(label string) func() {
	if !l.Verbose || l.Writer == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		elapsed := time.Since(start).Round(time.Millisecond)
		l.Verbosef("%s took %s", label, elapsed)
	}
}
