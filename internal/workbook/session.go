package workbook

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// Session keeps one workbook loaded so that several changes share a single
// load and save. It is not safe for concurrent use. Close must always be
// called; Commit alone does not release the file.
type Session struct {
	h      *Handle
	f      *excelize.File
	dirty  bool
	closed bool
}

// Begin loads the workbook for a batch of changes. The file must exist.
func (h *Handle) Begin() (*Session, error) {
	return h.begin("begin")
}

// BeginEmpty starts a batch on a fresh in-memory workbook, as Create would
// write it, without touching the disk. Commit writes the file, replacing any
// existing one.
func (h *Handle) BeginEmpty() (*Session, error) {
	f, err := h.newFile("begin")
	if err != nil {
		return nil, err
	}
	return &Session{h: h, f: f, dirty: true}, nil
}

func (h *Handle) begin(op string) (*Session, error) {
	if _, err := os.Stat(h.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, wrapError(KindIO, op, h.path, err, "the file does not exist")
		}
		return nil, wrapError(KindIO, op, h.path, err, "could not stat file")
	}

	f, err := excelize.OpenFile(h.path)
	if err != nil {
		return nil, wrapError(KindIO, op, h.path, err, "could not open — is this a valid .xlsx file?")
	}
	return &Session{h: h, f: f}, nil
}

// Path returns the path of the loaded workbook.
func (s *Session) Path() string {
	return s.h.path
}

// Dirty reports whether the session holds changes that Commit would save.
func (s *Session) Dirty() bool {
	return s.dirty
}

// SheetNames returns the current sheet titles, including uncommitted changes.
func (s *Session) SheetNames() []string {
	return s.f.GetSheetList()
}

// Snapshot copies the current state, including uncommitted changes.
func (s *Session) Snapshot() (*Workbook, error) {
	if err := s.checkOpen("snapshot"); err != nil {
		return nil, err
	}
	return snapshot(s.h.path, s.f)
}

// UpdateCell sets the value at addr in sheet. The sheet must already exist.
func (s *Session) UpdateCell(sheet, addr string, value any) (Result, error) {
	const op = "update_cell"
	res := Result{Op: op, Path: s.h.path, Sheet: sheet, Cell: addr}

	if err := s.checkOpen(op); err != nil {
		return res, err
	}
	if err := validateUpdate(op, s.h.path, sheet, addr, value); err != nil {
		return res, err
	}
	if !s.hasSheet(sheet) {
		return res, s.sheetNotFound(op, sheet)
	}

	if err := s.f.SetCellValue(sheet, addr, value); err != nil {
		return res, wrapError(KindValidation, op, s.h.path, err, "could not set cell %s", addr)
	}
	s.dirty = true

	s.trace(op, "workbook changed", logrus.Fields{"sheet": sheet, "cell": addr, "value": value})

	res.Outcome = Applied
	res.Message = fmt.Sprintf("Updated cell %s in %s with value '%v'.", addr, sheet, value)
	return res, nil
}

// CreateSheet appends an empty sheet. A sheet whose title matches name
// case-insensitively already counts as existing.
func (s *Session) CreateSheet(name string) (Result, error) {
	const op = "create_sheet"
	res := Result{Op: op, Path: s.h.path, Sheet: name}

	if err := s.checkOpen(op); err != nil {
		return res, err
	}
	if err := requireName(op, s.h.path, "sheet name", name); err != nil {
		return res, err
	}

	if existing := s.foldSheet(name); existing != "" {
		res.Outcome = Skipped
		res.Message = fmt.Sprintf("Sheet %s already exists in the workbook.", existing)
		return res, nil
	}

	if _, err := s.f.NewSheet(name); err != nil {
		return res, wrapError(KindValidation, op, s.h.path, err, "could not create sheet %q", name)
	}
	s.dirty = true

	s.trace(op, "workbook changed", logrus.Fields{"sheet": name})

	res.Outcome = Applied
	res.Message = fmt.Sprintf("New sheet %s is created successfully.", name)
	return res, nil
}

// RenameSheet retitles name to newName. newName may differ from name only in
// case, but must not match any other sheet.
func (s *Session) RenameSheet(name, newName string) (Result, error) {
	const op = "rename_sheet"
	res := Result{Op: op, Path: s.h.path, Sheet: name}

	if err := s.checkOpen(op); err != nil {
		return res, err
	}
	if err := requireName(op, s.h.path, "sheet name", name); err != nil {
		return res, err
	}
	if err := requireName(op, s.h.path, "new sheet name", newName); err != nil {
		return res, err
	}

	if !s.hasSheet(name) {
		res.Outcome = Skipped
		res.Message = fmt.Sprintf("%s does not exist in the workbook.", name)
		res.Cause = s.sheetNotFound(op, name)
		return res, nil
	}
	if name == newName {
		res.Outcome = Skipped
		res.Message = fmt.Sprintf("Sheet %s already has that name.", name)
		return res, nil
	}
	if existing := s.foldSheet(newName); existing != "" && existing != name {
		return res, newError(KindValidation, op, s.h.path, "sheet %q already exists", existing)
	}

	if err := s.f.SetSheetName(name, newName); err != nil {
		return res, wrapError(KindValidation, op, s.h.path, err, "could not rename sheet %q", name)
	}
	s.dirty = true

	s.trace(op, "workbook changed", logrus.Fields{"sheet": name, "to": newName})

	res.Outcome = Applied
	res.Message = fmt.Sprintf("Sheet %s renamed to %s.", name, newName)
	return res, nil
}

// DeleteSheet removes a sheet. The last remaining sheet cannot be removed.
func (s *Session) DeleteSheet(name string) (Result, error) {
	const op = "delete_sheet"
	res := Result{Op: op, Path: s.h.path, Sheet: name}

	if err := s.checkOpen(op); err != nil {
		return res, err
	}
	if err := requireName(op, s.h.path, "sheet name", name); err != nil {
		return res, err
	}

	if !s.hasSheet(name) {
		res.Outcome = Skipped
		res.Message = fmt.Sprintf("The sheet '%s' does not exist.", name)
		res.Cause = s.sheetNotFound(op, name)
		return res, nil
	}
	if len(s.f.GetSheetList()) <= 1 {
		return res, newError(KindValidation, op, s.h.path, "cannot delete %q: a workbook must keep at least one sheet", name)
	}

	if err := s.f.DeleteSheet(name); err != nil {
		return res, wrapError(KindIO, op, s.h.path, err, "could not delete sheet %q", name)
	}
	s.dirty = true

	s.trace(op, "workbook changed", logrus.Fields{"sheet": name})

	res.Outcome = Applied
	res.Message = fmt.Sprintf("The sheet '%s' has been deleted.", name)
	return res, nil
}

// Commit saves pending changes. It is a no-op when nothing changed.
func (s *Session) Commit() error {
	const op = "commit"
	if err := s.checkOpen(op); err != nil {
		return err
	}
	if !s.dirty {
		return nil
	}
	if err := s.f.SaveAs(s.h.path); err != nil {
		return wrapError(KindIO, op, s.h.path, err, "could not save")
	}
	s.dirty = false
	s.trace(op, "workbook saved", nil)
	return nil
}

// Close releases the loaded workbook and discards uncommitted changes.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.f.Close(); err != nil {
		return wrapError(KindIO, "close", s.h.path, err, "could not release workbook")
	}
	return nil
}

func (s *Session) checkOpen(op string) error {
	if s.closed {
		return newError(KindIO, op, s.h.path, "session is closed")
	}
	return nil
}

func (s *Session) hasSheet(name string) bool {
	for _, n := range s.f.GetSheetList() {
		if n == name {
			return true
		}
	}
	return false
}

// foldSheet returns the title of the sheet matching name case-insensitively.
func (s *Session) foldSheet(name string) string {
	for _, n := range s.f.GetSheetList() {
		if strings.EqualFold(n, name) {
			return n
		}
	}
	return ""
}

func (s *Session) sheetNotFound(op, name string) error {
	return wrapError(KindNotFound, op, s.h.path, excelize.ErrSheetNotExist{SheetName: name}, "")
}

func (s *Session) trace(op, msg string, fields logrus.Fields) {
	entry := s.h.log.WithFields(logrus.Fields{"op": op, "path": s.h.path})
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	entry.Debug(msg)
}
