package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	defer SetSink(os.Stdout)
	defer SetLevel(Notice)

	logger := New("test")

	SetLevel(Warning)
	logger.Info("hidden message")
	logger.Warning("visible message")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("Expected info message to be filtered, got %q", out)
	}
	if !strings.Contains(out, "visible message") {
		t.Errorf("Expected warning message in output, got %q", out)
	}
	if !strings.Contains(out, "[test]") {
		t.Errorf("Expected module name in output, got %q", out)
	}

	buf.Reset()
	SetLevel(Debug)
	logger.Debugf("value=%d", 42)
	if !strings.Contains(buf.String(), "value=42") {
		t.Errorf("Expected debug message after SetLevel(Debug), got %q", buf.String())
	}
}

func TestModuleLevel(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	defer SetSink(os.Stdout)
	defer SetLevel(Notice)

	SetLevel(Warning)
	SetModuleLevel("chatty", Debug)

	New("chatty").Debug("chatty detail")
	New("quiet").Info("quiet detail")

	out := buf.String()
	if !strings.Contains(out, "chatty detail") {
		t.Errorf("Expected module override to let debug through, got %q", out)
	}
	if strings.Contains(out, "quiet detail") {
		t.Errorf("Expected other modules to keep the global level, got %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("Expected no colour codes in a buffer sink, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want Level
		ok   bool
	}{
		{"debug", Debug, true},
		{" Warning ", Warning, true},
		{"error", Error, true},
		{"loud", 0, false},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.name)
		if (err == nil) != tc.ok {
			t.Errorf("%q: expected ok %v, got error %v", tc.name, tc.ok, err)
			continue
		}
		if tc.ok && got != tc.want {
			t.Errorf("%q: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
