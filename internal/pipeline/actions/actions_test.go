package actions

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/klytics/xlkit/internal/pipeline"
	"github.com/klytics/xlkit/internal/workbook"
)

func openSession(t *testing.T) *workbook.Session {
	t.Helper()
	h, err := workbook.New(filepath.Join(t.TempDir(), "actions.xlsx"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.Create([][]any{}); err != nil {
		t.Fatal(err)
	}
	s, err := h.Begin()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func cellValue(t *testing.T, s *workbook.Session, sheet, addr string) string {
	t.Helper()
	wb, err := s.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	sh, err := wb.Sheet(sheet)
	if err != nil {
		t.Fatal(err)
	}
	v, err := sh.Value(addr)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestCellUpdateDefaultValue(t *testing.T) {
	s := openSession(t)
	step := pipeline.Step{ID: "u", Action: "cell.update", Sheet: "Sheet1", Cell: "C2"}

	res, err := CellUpdateAction(context.Background(), s, step)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != workbook.Applied {
		t.Errorf("outcome = %v", res.Outcome)
	}
	if got := cellValue(t, s, "Sheet1", "C2"); got != "0" {
		t.Errorf("C2 = %q, want 0", got)
	}
}

func TestSheetActions(t *testing.T) {
	s := openSession(t)
	ctx := context.Background()

	if _, err := SheetCreateAction(ctx, s, pipeline.Step{Sheet: "Data"}); err != nil {
		t.Fatal(err)
	}
	res, err := SheetCreateAction(ctx, s, pipeline.Step{Sheet: "Data"})
	if err != nil || res.Outcome != workbook.Skipped {
		t.Errorf("second create: %v %v", res.Outcome, err)
	}
	if _, err := SheetRenameAction(ctx, s, pipeline.Step{Sheet: "Data", To: "Summary"}); err != nil {
		t.Fatal(err)
	}
	if _, err := SheetDeleteAction(ctx, s, pipeline.Step{Sheet: "Sheet1"}); err != nil {
		t.Fatal(err)
	}

	names := s.SheetNames()
	if len(names) != 1 || names[0] != "Summary" {
		t.Errorf("sheets = %v", names)
	}

	if _, err := SheetDeleteAction(ctx, s, pipeline.Step{Sheet: "Summary"}); !errors.Is(err, workbook.ErrValidation) {
		t.Errorf("deleting the last sheet should fail validation, got %v", err)
	}
}

func TestRegisterAll(t *testing.T) {
	h, err := workbook.New(filepath.Join(t.TempDir(), "all.xlsx"))
	if err != nil {
		t.Fatal(err)
	}

	p, err := pipeline.ParsePipeline([]byte(`
create_if_missing: true
steps:
  - {action: sheet.create, sheet: Data}
  - {action: cell.update, sheet: Data, cell: A1, value: hello}
  - {action: sheet.rename, sheet: Data, to: Final}
  - {action: sheet.delete, sheet: Sheet1}
`))
	if err != nil {
		t.Fatal(err)
	}

	exec := pipeline.NewExecutor(nil)
	RegisterAll(exec)
	if _, err := exec.Apply(context.Background(), h, p); err != nil {
		t.Fatal(err)
	}

	wb, err := h.Open()
	if err != nil {
		t.Fatal(err)
	}
	if names := wb.SheetNames(); len(names) != 1 || names[0] != "Final" {
		t.Fatalf("sheets = %v", names)
	}
	if v, _ := wb.Sheets[0].Value("A1"); v != "hello" {
		t.Errorf("A1 = %q", v)
	}
}
