package progress

import (
	"bytes"
	"testing"
)

func TestNewDisabledForBuffers(t *testing.T) {
	var buf bytes.Buffer
	bar := New(&buf, "run", 10)
	if bar.Enabled {
		t.Error("expected bar to be disabled when not writing to a terminal")
	}
	bar.Increment("step-1")
	bar.Finish()
	if buf.Len() != 0 {
		t.Errorf("disabled bar wrote %q", buf.String())
	}
}

func TestNewWithEnvDisable(t *testing.T) {
	t.Setenv("XLKIT_NO_PROGRESS", "1")
	if New(nil, "run", 10).Enabled {
		t.Error("expected bar to be disabled with XLKIT_NO_PROGRESS=1")
	}
}

func TestBarIncrement(t *testing.T) {
	bar := &Bar{Total: 3, Width: 30}
	for i := 0; i < 5; i++ {
		bar.Increment("x")
	}
	if bar.Current != 3 {
		t.Errorf("Current = %d, should stop at Total", bar.Current)
	}
	if bar.Pct() != 100 {
		t.Errorf("Pct = %v", bar.Pct())
	}
}

func TestBarRender(t *testing.T) {
	var buf bytes.Buffer
	bar := &Bar{Total: 4, Width: 8, Label: "run", Enabled: true, out: &buf}
	bar.Increment("step-1")
	bar.Increment("step-2")

	want := "run [====    ] 2/4  step-2"
	if got := bar.Line("step-2"); got != want {
		t.Errorf("Line = %q, want %q", got, want)
	}
	if !bytes.HasSuffix(buf.Bytes(), []byte(want)) {
		t.Errorf("rendered %q", buf.String())
	}

	bar.Finish()
	if !bytes.HasSuffix(buf.Bytes(), []byte("\r\033[K")) {
		t.Error("Finish should clear the line")
	}
}

func TestPctEmpty(t *testing.T) {
	if (&Bar{}).Pct() != 0 {
		t.Error("empty bar should be 0%")
	}
}
