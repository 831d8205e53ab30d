package workbook

import (
	"errors"
	"strings"
	"testing"
)

func TestSheetToCSV(t *testing.T) {
	sheet := Sheet{
		Name: "Test",
		Rows: [][]string{
			{"Name", "Value"},
			{"Test", "123"},
			{"a,b", `say "hi"`},
		},
	}

	expected := "Name,Value\nTest,123\n\"a,b\",\"say \"\"hi\"\"\"\n"
	if csv := sheet.ToCSV(); csv != expected {
		t.Errorf("expected CSV %q, got %q", expected, csv)
	}
}

func TestWorkbookSheet(t *testing.T) {
	wb := &Workbook{
		Path:   "x.xlsx",
		Sheets: []Sheet{{Name: "One"}, {Name: "Two"}},
	}

	s, err := wb.Sheet("Two")
	if err != nil {
		t.Fatalf("Sheet failed: %v", err)
	}
	if s.Name != "Two" {
		t.Errorf("expected 'Two', got %q", s.Name)
	}

	_, err = wb.Sheet("Missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
	if !strings.Contains(err.Error(), "One, Two") {
		t.Errorf("error should list available sheets: %v", err)
	}
}

func TestSheetCounts(t *testing.T) {
	sheet := Sheet{
		Rows: [][]string{
			{"A", "B"},
			{"", "D"},
			{"", ""},
		},
	}

	if rc := sheet.RowCount(); rc != 2 {
		t.Errorf("expected 2 non-empty rows, got %d", rc)
	}
	if cc := sheet.CellCount(); cc != 3 {
		t.Errorf("expected 3 non-empty cells, got %d", cc)
	}
	if v := sheet.Cell(2, 2); v != "D" {
		t.Errorf("Cell(2,2) = %q", v)
	}
	if v := sheet.Cell(9, 9); v != "" {
		t.Errorf("Cell out of range = %q", v)
	}
	if _, err := sheet.Value("b2"); !errors.Is(err, ErrValidation) {
		t.Errorf("Value(b2) error = %v", err)
	}
}

func TestErrorKinds(t *testing.T) {
	err := wrapError(KindNotFound, "delete_sheet", "a.xlsx", errors.New("boom"), "sheet %q", "X")
	if !errors.Is(err, ErrNotFound) || errors.Is(err, ErrIO) {
		t.Errorf("sentinel matching wrong for %v", err)
	}
	if got := err.Error(); got != `delete_sheet a.xlsx: sheet "X": boom` {
		t.Errorf("Error() = %q", got)
	}
	if KindOf(err).String() != "not_found" {
		t.Errorf("KindOf = %v", KindOf(err))
	}
	if KindOf(errors.New("plain")) != 0 {
		t.Error("plain errors have no kind")
	}
}
