package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LvlWarn)
	l.Debug("should not appear")
	if buf.Len() != 0 {
		t.Fatalf("expected debug line to be filtered out, got %q", buf.String())
	}
	l.Warn("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("expected warn line in output, got %q", buf.String())
	}
}

func TestContextPropagation(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LvlInfo).New("component", "svm")
	l.Info("hello", "n", 3)
	out := buf.String()
	if !strings.Contains(out, "component=svm") || !strings.Contains(out, "n=3") {
		t.Fatalf("expected context pairs in output, got %q", out)
	}
}
