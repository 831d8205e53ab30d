package workbook

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet is a read-only copy of one worksheet's cell values.
type Sheet struct {
	Name string     `json:"name"`
	Rows [][]string `json:"rows"`
}

// Workbook is a read-only copy of a workbook taken when it was loaded. It
// holds no file handles.
type Workbook struct {
	Path   string  `json:"path"`
	Active string  `json:"active"`
	Sheets []Sheet `json:"sheets"`
}

func snapshot(path string, f *excelize.File) (*Workbook, error) {
	wb := &Workbook{
		Path:   path,
		Active: f.GetSheetName(f.GetActiveSheetIndex()),
	}

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, wrapError(KindIO, "open", path, err, "could not read sheet %q", name)
		}
		if err := restoreBools(f, name, rows); err != nil {
			return nil, wrapError(KindIO, "open", path, err, "could not read sheet %q", name)
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: name, Rows: rows})
	}

	return wb, nil
}

// restoreBools rewrites boolean cells, which raw reads return as 1 or 0, to
// TRUE or FALSE. Raw reads keep numbers at full precision.
func restoreBools(f *excelize.File, sheet string, rows [][]string) error {
	for r, row := range rows {
		for c, v := range row {
			if v != "1" && v != "0" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			typ, err := f.GetCellType(sheet, cell)
			if err != nil {
				return err
			}
			if typ != excelize.CellTypeBool {
				continue
			}
			if v == "1" {
				row[c] = "TRUE"
			} else {
				row[c] = "FALSE"
			}
		}
	}
	return nil
}

// SheetNames returns the sheet titles in workbook order.
func (wb *Workbook) SheetNames() []string {
	names := make([]string, len(wb.Sheets))
	for i, s := range wb.Sheets {
		names[i] = s.Name
	}
	return names
}

// Sheet returns the sheet with the given title.
func (wb *Workbook) Sheet(name string) (*Sheet, error) {
	for i := range wb.Sheets {
		if wb.Sheets[i].Name == name {
			return &wb.Sheets[i], nil
		}
	}
	return nil, wrapError(KindNotFound, "sheet", wb.Path, excelize.ErrSheetNotExist{SheetName: name},
		"available sheets: %s", strings.Join(wb.SheetNames(), ", "))
}

// Cell returns the value at the 1-based row and column, or "" when the cell
// is empty or outside the used range.
func (s *Sheet) Cell(row, col int) string {
	if row < 1 || col < 1 || row > len(s.Rows) {
		return ""
	}
	r := s.Rows[row-1]
	if col > len(r) {
		return ""
	}
	return r[col-1]
}

// Value returns the value at an A1-style address.
func (s *Sheet) Value(addr string) (string, error) {
	col, row, err := ParseAddress(addr)
	if err != nil {
		return "", err
	}
	return s.Cell(row, col), nil
}

// RowCount returns the number of rows with at least one non-empty cell.
func (s *Sheet) RowCount() int {
	count := 0
	for _, row := range s.Rows {
		for _, cell := range row {
			if cell != "" {
				count++
				break
			}
		}
	}
	return count
}

// CellCount returns the number of non-empty cells.
func (s *Sheet) CellCount() int {
	count := 0
	for _, row := range s.Rows {
		for _, cell := range row {
			if cell != "" {
				count++
			}
		}
	}
	return count
}

// ToCSV renders the sheet as RFC 4180 CSV.
func (s *Sheet) ToCSV() string {
	var sb strings.Builder
	for _, row := range s.Rows {
		for j, cell := range row {
			if j > 0 {
				sb.WriteByte(',')
			}
			if strings.ContainsAny(cell, ",\"\r\n") {
				sb.WriteByte('"')
				sb.WriteString(strings.ReplaceAll(cell, `"`, `""`))
				sb.WriteByte('"')
			} else {
				sb.WriteString(cell)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
