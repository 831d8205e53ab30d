package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		in   string
		want logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"loud", FallbackLevel},
		{"", FallbackLevel},
	}
	for _, tt := range tests {
		if got := New(tt.in, nil).GetLevel(); got != tt.want {
			t.Errorf("New(%q) level = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVerbose(t *testing.T) {
	var buf bytes.Buffer
	l := New("warn", &buf)

	l.Debug("hidden")
	Verbose(l)
	l.WithField("sheet", "Data").Debug("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug entry logged before Verbose")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "sheet=Data") {
		t.Errorf("unexpected output: %q", out)
	}
}
