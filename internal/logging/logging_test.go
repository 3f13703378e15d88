package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	t.Parallel()

	for _, verbose := range []bool{false, true} {
		l, err := New(verbose)
		if err != nil {
			t.Fatalf("New(%v): %v", verbose, err)
		}
		if got := l.Core().Enabled(zap.DebugLevel); got != verbose {
			t.Fatalf("New(%v) debug enabled = %v", verbose, got)
		}
	}
}

func TestNewWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewWriter(&buf, false)
	l.Debug("hidden")
	l.Info("stage done", zap.Int("rows", 3))
	_ = l.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line emitted at info level: %q", out)
	}
	if !strings.Contains(out, "stage done") || !strings.Contains(out, `"rows": 3`) {
		t.Fatalf("unexpected output: %q", out)
	}
}
