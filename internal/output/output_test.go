package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/klytics/xlkit/internal/workbook"
)

func init() {
	color.NoColor = true
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"validation", &workbook.Error{Kind: workbook.KindValidation, Op: "x"}, ExitUserError},
		{"not found", &workbook.Error{Kind: workbook.KindNotFound, Op: "x"}, ExitUserError},
		{"io", &workbook.Error{Kind: workbook.KindIO, Op: "x"}, ExitSystemError},
		{"plain", errors.New("flag error"), ExitUserError},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("%s: ExitCode = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestResultText(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, FormatText)

	w.Result("sheet create", workbook.Result{Outcome: workbook.Applied, Message: "New sheet Data is created successfully."})
	w.Result("sheet create", workbook.Result{Outcome: workbook.Skipped, Message: "Sheet Data already exists in the workbook."})

	out := buf.String()
	if !strings.Contains(out, "New sheet Data is created successfully.\n") {
		t.Errorf("missing applied line: %q", out)
	}
	if !strings.Contains(out, "skipped: Sheet Data already exists") {
		t.Errorf("missing skipped line: %q", out)
	}
}

func TestResultJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, FormatJSON)

	res := workbook.Result{Op: "create_sheet", Path: "a.xlsx", Sheet: "Data", Outcome: workbook.Skipped, Message: "exists"}
	if err := w.Result("sheet create", res); err != nil {
		t.Fatal(err)
	}

	var env struct {
		OK      bool   `json:"ok"`
		Command string `json:"command"`
		Data    struct {
			Outcome string `json:"outcome"`
			Sheet   string `json:"sheet"`
		} `json:"data"`
	}
	if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if !env.OK || env.Command != "sheet create" || env.Data.Outcome != "skipped" || env.Data.Sheet != "Data" {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestErrorJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, FormatJSON)

	err := &workbook.Error{Kind: workbook.KindNotFound, Op: "update_cell", Msg: "sheet missing"}
	if werr := w.Error("update", err, nil); werr != nil {
		t.Fatal(werr)
	}

	var env JSONResult
	if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.OK || env.Kind != "not_found" || env.Code != ExitUserError {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestErrorText(t *testing.T) {
	var out, errOut bytes.Buffer
	w := NewWriter(&out, FormatText)

	w.Error("delete", errors.New("permission denied"), &errOut)
	if out.Len() != 0 {
		t.Errorf("text errors should not go to stdout: %q", out.String())
	}
	if errOut.String() != "Error: permission denied\n" {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestShouldPageNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	if ShouldPage(&buf, strings.Repeat("x\n", 500), DefaultPageHeight) {
		t.Error("buffers are never paged")
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("json") != FormatJSON || ParseFormat("text") != FormatText || ParseFormat("") != FormatText {
		t.Error("ParseFormat mismatch")
	}
}
