package logger

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf, false)
	t.Cleanup(func() { Init(io.Discard, false) })

	Debug("hidden %d", 1)
	Info("loaded %s", "doc.pdf")
	Warn("slow")
	Error("failed: %v", "boom")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug output written while debug disabled")
	}
	for _, want := range []string{"INFO: ", "loaded doc.pdf", "WARN: ", "ERROR: ", "failed: boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestDebugEnabled(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf, true)
	t.Cleanup(func() { Init(io.Discard, false) })

	if !IsDebugEnabled() {
		t.Fatal("expected debug enabled")
	}
	Debug("visible")
	if !strings.Contains(buf.String(), "DEBUG: ") || !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug line missing: %q", buf.String())
	}
}
