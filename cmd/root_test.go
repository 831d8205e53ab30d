package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/viper"
	"github.com/xuri/excelize/v2"

	"github.com/klytics/xlkit/internal/audit"
	"github.com/klytics/xlkit/internal/output"
)

func init() {
	color.NoColor = true
}

// setup isolates config in a temp HOME and returns a workbook path there.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XLKIT_NO_PAGER", "1")
	viper.Reset()
	t.Cleanup(viper.Reset)
	return filepath.Join(dir, "book.xlsx")
}

func run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func cell(t *testing.T, path, sheet, addr string) string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	v, err := f.GetCellValue(sheet, addr)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestCreateUpdateOpen(t *testing.T) {
	path := setup(t)

	data := filepath.Join(filepath.Dir(path), "rows.json")
	if err := os.WriteFile(data, []byte(`[["Item", "Qty"], ["Widget", 3], ["Gadget", 2.5]]`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, errOut, code := run(t, "create", "-f", path, "--data", data)
	if code != output.ExitOK {
		t.Fatalf("create exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "created successfully") {
		t.Errorf("unexpected create output: %q", out)
	}
	if got := cell(t, path, "Sheet1", "B2"); got != "3" {
		t.Errorf("B2 = %q", got)
	}

	if _, errOut, code := run(t, "update", "Sheet1", "C1", "Total", "-f", path); code != output.ExitOK {
		t.Fatalf("update exit %d: %s", code, errOut)
	}
	if _, _, code := run(t, "update", "Sheet1", "C2", "-f", path); code != output.ExitOK {
		t.Fatal("update without a value should succeed")
	}
	if got := cell(t, path, "Sheet1", "C2"); got != "0" {
		t.Errorf("C2 = %q, want default 0", got)
	}

	out, _, code = run(t, "open", "-f", path, "--csv")
	if code != output.ExitOK {
		t.Fatalf("open exit %d", code)
	}
	want := "Item,Qty,Total\nWidget,3,0\nGadget,2.5\n"
	if out != want {
		t.Errorf("open --csv = %q, want %q", out, want)
	}
}

func TestOpenJSON(t *testing.T) {
	path := setup(t)
	run(t, "create", "-f", path)

	out, _, code := run(t, "open", "-f", path, "--json")
	if code != output.ExitOK {
		t.Fatalf("exit %d", code)
	}

	var env struct {
		OK      bool   `json:"ok"`
		Command string `json:"command"`
		Data    struct {
			Sheets []struct {
				Name string `json:"name"`
			} `json:"sheets"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if !env.OK || env.Command != "open" || len(env.Data.Sheets) != 1 || env.Data.Sheets[0].Name != "Sheet1" {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestOpenCreatesMissingFile(t *testing.T) {
	path := setup(t)
	// Extension is appended.
	base := strings.TrimSuffix(path, ".xlsx")

	if _, errOut, code := run(t, "open", "-f", base); code != output.ExitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("open should create %s: %v", path, err)
	}
}

func TestSheetCommands(t *testing.T) {
	path := setup(t)
	run(t, "create", "-f", path)

	if _, errOut, code := run(t, "sheet", "create", "Data", "-f", path); code != output.ExitOK {
		t.Fatalf("sheet create exit %d: %s", code, errOut)
	}

	out, _, code := run(t, "sheet", "create", "Data", "-f", path)
	if code != output.ExitOK || !strings.Contains(out, "skipped:") {
		t.Errorf("second create should be skipped, got %d %q", code, out)
	}

	if _, _, code := run(t, "sheet", "rename", "Data", "Summary", "-f", path); code != output.ExitOK {
		t.Fatal("rename failed")
	}
	if _, _, code := run(t, "sheet", "delete", "Sheet1", "-f", path); code != output.ExitOK {
		t.Fatal("delete failed")
	}

	_, errOut, code := run(t, "sheet", "delete", "Summary", "-f", path)
	if code != output.ExitUserError || !strings.Contains(errOut, "Error:") {
		t.Errorf("deleting the last sheet: code %d, stderr %q", code, errOut)
	}
}

func TestErrorsAndExitCodes(t *testing.T) {
	path := setup(t)
	run(t, "create", "-f", path)

	tests := []struct {
		name string
		args []string
		code int
		kind string
	}{
		{"missing file flag", []string{"delete"}, output.ExitUserError, "configuration"},
		{"bad address", []string{"update", "Sheet1", "a1", "-f", path}, output.ExitUserError, "validation"},
		{"unknown sheet", []string{"update", "Nope", "A1", "-f", path}, output.ExitUserError, "not_found"},
		{"sheet op on missing file", []string{"sheet", "create", "X", "-f", path + ".gone.xlsx"}, output.ExitSystemError, "io"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, code := run(t, append(tt.args, "--json")...)
			if code != tt.code {
				t.Errorf("exit code = %d, want %d", code, tt.code)
			}
			var env output.JSONResult
			if err := json.Unmarshal([]byte(out), &env); err != nil {
				t.Fatalf("invalid JSON %q: %v", out, err)
			}
			if env.OK || env.Kind != tt.kind {
				t.Errorf("envelope = %+v, want kind %q", env, tt.kind)
			}
		})
	}
}

func TestDeleteCommand(t *testing.T) {
	path := setup(t)
	run(t, "create", "-f", path)

	out, _, code := run(t, "delete", "-f", path)
	if code != output.ExitOK || !strings.Contains(out, "successfully deleted") {
		t.Errorf("delete: %d %q", code, out)
	}
	out, _, code = run(t, "delete", "-f", path)
	if code != output.ExitOK || !strings.Contains(out, "skipped:") {
		t.Errorf("second delete should be skipped: %d %q", code, out)
	}
}

func TestRunScript(t *testing.T) {
	path := setup(t)
	script := filepath.Join(filepath.Dir(path), "script.yaml")
	err := os.WriteFile(script, []byte(`
workbook: book.xlsx
create_if_missing: true
steps:
  - action: sheet.create
    sheet: Data
  - action: cell.update
    sheet: Data
    cell: B2
    value: 42
`), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	out, errOut, code := run(t, "run", script, "--dry-run")
	if code != output.ExitOK {
		t.Fatalf("dry run exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Dry run") {
		t.Errorf("unexpected dry run output: %q", out)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("dry run should not create the workbook, stat error = %v", err)
	}

	out, errOut, code = run(t, "run", script)
	if code != output.ExitOK {
		t.Fatalf("run exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Saved") {
		t.Errorf("unexpected run output: %q", out)
	}
	if got := cell(t, path, "Data", "B2"); got != "42" {
		t.Errorf("B2 = %q", got)
	}
}

func TestAuditRecordsChanges(t *testing.T) {
	path := setup(t)
	t.Setenv("XLKIT_AUDIT_ENABLED", "true")

	run(t, "create", "-f", path)
	run(t, "update", "Missing", "A1", "-f", path)
	run(t, "open", "-f", path)

	entries, err := audit.ReadEntries(filepath.Join(filepath.Dir(path), ".xlkit", "audit.log"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 audited commands, got %d: %+v", len(entries), entries)
	}
	if entries[0].Command != "create" || entries[0].Outcome != "ok" || entries[0].Workbook != path {
		t.Errorf("create entry = %+v", entries[0])
	}
	if entries[1].Outcome != "not_found" || entries[1].ExitCode != output.ExitUserError {
		t.Errorf("update entry = %+v", entries[1])
	}

	out, _, code := run(t, "audit", "log", "--command", "update")
	if code != output.ExitOK || !strings.Contains(out, "not_found") {
		t.Errorf("audit log: %d %q", code, out)
	}
}

func TestShellEval(t *testing.T) {
	path := setup(t)
	run(t, "create", "-f", path)

	out, errOut, code := run(t, "shell", "-f", path, "--eval", "update Sheet1 A1 'hello world'")
	if code != output.ExitOK {
		t.Fatalf("shell exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Updated cell A1") {
		t.Errorf("unexpected shell output: %q", out)
	}
	if got := cell(t, path, "Sheet1", "A1"); got != "hello world" {
		t.Errorf("A1 = %q", got)
	}
}

func TestVersion(t *testing.T) {
	setup(t)
	out, _, code := run(t, "version")
	if code != output.ExitOK || !strings.HasPrefix(out, "xlkit ") {
		t.Errorf("version: %d %q", code, out)
	}
}

func TestDoctor(t *testing.T) {
	path := setup(t)
	run(t, "create", "-f", path)

	out, errOut, code := run(t, "doctor", "-f", path)
	if code != output.ExitOK {
		t.Fatalf("doctor exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Workbook") || !strings.Contains(out, "(1 sheets)") {
		t.Errorf("doctor output missing workbook check: %q", out)
	}

	_, _, code = run(t, "doctor", "-f", path+".gone")
	if code == output.ExitOK {
		t.Error("doctor should fail for a missing workbook")
	}
}
