package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestVerbosefSilentUnlessVerbose(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Verbosef("decoded %s", "a.jpg")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}

	New(&buf, true).Verbosef("decoded %s", "a.jpg")
	if got := buf.String(); got != "Verbose: decoded a.jpg\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestMeasureLogsElapsed(t *testing.T) {
	var buf bytes.Buffer
	stop := New(&buf, true).Measure("Processing batch")
	stop()
	if !strings.HasPrefix(buf.String(), "Verbose: Processing batch took ") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestNilWriterIsSafe(t *testing.T) {
	Logger{Verbose: true}.Infof("ignored")
}

func TestNewDefaultsToStderr(t *testing.T) {
	if logger := New(nil, true); logger.Writer != os.Stderr {
		t.Fatalf("expected stderr writer, got %v", logger.Writer)
	}
}

func TestSilencedDropsOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true).Silenced()
	logger.Verbosef("hidden")
	logger.Measure("hidden")()
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
	if !logger.Verbose {
		t.Fatalf("silenced logger should keep its verbosity flag")
	}
}
