package benchmarks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klytics/xlkit/internal/workbook"
)

// sampleXlsx is produced by: go run testdata/generate_fixtures.go
var sampleXlsx = filepath.Join("..", "testdata", "sample.xlsx")

var benchRows = [][]any{
	{"Name", "Value", "Category"},
	{"Alpha", 100, "A"},
	{"Beta", 200, "B"},
	{"Gamma", 300.5, "A"},
	{"Delta", 400, "C"},
}

func benchHandle(b *testing.B) *workbook.Handle {
	b.Helper()
	h, err := workbook.New(filepath.Join(b.TempDir(), "bench.xlsx"))
	if err != nil {
		b.Fatal(err)
	}
	if _, err := h.Create(benchRows); err != nil {
		b.Fatal(err)
	}
	return h
}

func BenchmarkOpenSample(b *testing.B) {
	if _, err := os.Stat(sampleXlsx); os.IsNotExist(err) {
		b.Skip("sample.xlsx not found")
	}
	h, err := workbook.New(sampleXlsx)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := h.Open(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCreate(b *testing.B) {
	h := benchHandle(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := h.Create(benchRows); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkUpdateCellPerCall pays one load and one save for every cell.
func BenchmarkUpdateCellPerCall(b *testing.B) {
	h := benchHandle(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for row := 2; row <= 11; row++ {
			addr, _ := workbook.FormatAddress(4, row)
			if _, err := h.UpdateCell("Sheet1", addr, i); err != nil {
				b.Fatal(err)
			}
		}
	}
}

// BenchmarkUpdateCellSession writes the same ten cells in one session.
func BenchmarkUpdateCellSession(b *testing.B) {
	h := benchHandle(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s, err := h.Begin()
		if err != nil {
			b.Fatal(err)
		}
		for row := 2; row <= 11; row++ {
			addr, _ := workbook.FormatAddress(4, row)
			if _, err := s.UpdateCell("Sheet1", addr, i); err != nil {
				b.Fatal(err)
			}
		}
		if err := s.Commit(); err != nil {
			b.Fatal(err)
		}
		s.Close()
	}
}

func BenchmarkSheetCSV(b *testing.B) {
	wb, err := benchHandle(b).Open()
	if err != nil {
		b.Fatal(err)
	}
	sheet := &wb.Sheets[0]
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = sheet.ToCSV()
	}
}
