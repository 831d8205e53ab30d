// Package workbook wraps single-step operations on .xlsx workbooks.
//
// A Handle holds nothing but a path. Each of its operations loads the file,
// applies one change and saves it again before returning, so no state is
// shared between calls. Callers that want several changes in one
// load/save cycle use a Session from Handle.Begin.
//
// Operations never panic; every failure is an *Error whose Kind tells
// configuration, validation, not-found and I/O problems apart. Requests that
// change nothing (deleting a missing file, creating a sheet that already
// exists) return a Result with Outcome Skipped and a nil error.
package workbook

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	// Extension is appended to paths that do not already carry it.
	Extension = ".xlsx"

	// DefaultSheet is the title of the single sheet in a fresh workbook.
	DefaultSheet = "Sheet1"

	// DefaultValue is written by callers that update a cell without a value.
	DefaultValue = 0
)

// Outcome tells whether an operation changed the workbook.
type Outcome int

const (
	Applied Outcome = iota + 1
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// MarshalText renders the outcome by name in JSON output.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Result describes what an operation did.
type Result struct {
	Op      string  `json:"op"`
	Path    string  `json:"path"`
	Sheet   string  `json:"sheet,omitempty"`
	Cell    string  `json:"cell,omitempty"`
	Outcome Outcome `json:"outcome"`
	Message string  `json:"message"`

	// Cause explains a Skipped outcome, for example an ErrNotFound for a
	// sheet that does not exist.
	Cause error `json:"-"`
}

// Option configures a Handle.
type Option func(*Handle)

// WithLogger sets the logger used for debug tracing of operations.
func WithLogger(l *logrus.Logger) Option {
	return func(h *Handle) {
		if l != nil {
			h.log = l
		}
	}
}

// WithDefaultSheet sets the title of the sheet Create puts in new workbooks.
func WithDefaultSheet(name string) Option {
	return func(h *Handle) {
		if strings.TrimSpace(name) != "" {
			h.defaultSheet = name
		}
	}
}

// Handle addresses one workbook file.
type Handle struct {
	path         string
	defaultSheet string
	log          *logrus.Logger
}

// New returns a Handle for path, appending Extension when it is missing.
// It performs no I/O.
func New(path string, opts ...Option) (*Handle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, newError(KindConfiguration, "new", "", "file name must be a non-empty string")
	}
	if !strings.HasSuffix(strings.ToLower(path), Extension) {
		path += Extension
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	h := &Handle{
		path:         path,
		defaultSheet: DefaultSheet,
		log:          discard,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Path returns the workbook path, including the extension.
func (h *Handle) Path() string {
	return h.path
}

// Create writes a new workbook whose first sheet holds rows, with rows[i][j]
// at row i+1, column j+1. An existing file at the path is replaced. rows must
// be non-nil; an empty slice produces a workbook with one empty sheet.
func (h *Handle) Create(rows [][]any) (Result, error) {
	const op = "create"

	if rows == nil {
		return Result{Op: op, Path: h.path}, newError(KindValidation, op, h.path, "data must be a list of rows")
	}
	for i, row := range rows {
		for j, v := range row {
			if err := checkScalar(v); err != nil {
				return Result{Op: op, Path: h.path}, wrapError(KindValidation, op, h.path, err, "row %d column %d", i+1, j+1)
			}
		}
	}

	f, err := h.newFile(op)
	if err != nil {
		return Result{Op: op, Path: h.path}, err
	}
	defer f.Close()
	sheet := h.defaultSheet

	for rowIdx, row := range rows {
		for colIdx, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return Result{Op: op, Path: h.path}, wrapError(KindValidation, op, h.path, err, "invalid cell coordinates")
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return Result{Op: op, Path: h.path}, wrapError(KindValidation, op, h.path, err, "could not set cell %s", cell)
			}
		}
	}

	if err := f.SaveAs(h.path); err != nil {
		return Result{Op: op, Path: h.path}, wrapError(KindIO, op, h.path, err, "could not save")
	}

	h.log.WithFields(logrus.Fields{"op": op, "path": h.path, "rows": len(rows)}).Debug("workbook created")

	return Result{
		Op:      op,
		Path:    h.path,
		Sheet:   sheet,
		Outcome: Applied,
		Message: fmt.Sprintf("Excel file '%s' created successfully.", h.path),
	}, nil
}

// newFile returns an in-memory workbook holding one empty default sheet.
func (h *Handle) newFile(op string) (*excelize.File, error) {
	f := excelize.NewFile()
	if sheet := f.GetSheetName(0); sheet != h.defaultSheet {
		if err := f.SetSheetName(sheet, h.defaultSheet); err != nil {
			f.Close()
			return nil, wrapError(KindConfiguration, op, h.path, err, "invalid default sheet name %q", h.defaultSheet)
		}
	}
	return f, nil
}

// Delete removes the workbook file. A missing file is reported as Skipped;
// directories and other non-regular files are refused.
func (h *Handle) Delete() (Result, error) {
	const op = "delete"
	res := Result{Op: op, Path: h.path}

	fi, err := os.Stat(h.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			res.Outcome = Skipped
			res.Message = fmt.Sprintf("%s does not exist.", h.path)
			res.Cause = wrapError(KindNotFound, op, h.path, err, "file does not exist")
			return res, nil
		}
		return res, wrapError(KindIO, op, h.path, err, "could not stat file")
	}
	if !fi.Mode().IsRegular() {
		return res, newError(KindIO, op, h.path, "not a regular file")
	}

	if err := os.Remove(h.path); err != nil {
		return res, wrapError(KindIO, op, h.path, err, "could not remove file")
	}

	h.log.WithFields(logrus.Fields{"op": op, "path": h.path}).Debug("workbook deleted")

	res.Outcome = Applied
	res.Message = fmt.Sprintf("%s has been successfully deleted.", h.path)
	return res, nil
}

// Open loads the workbook, creating an empty one first when the file does
// not exist.
func (h *Handle) Open() (*Workbook, error) {
	const op = "open"

	if _, err := os.Stat(h.path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, wrapError(KindIO, op, h.path, err, "could not stat file")
		}
		h.log.WithFields(logrus.Fields{"op": op, "path": h.path}).Debug("file does not exist, creating")
		if _, err := h.Create([][]any{}); err != nil {
			return nil, err
		}
	}

	s, err := h.begin(op)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	return s.Snapshot()
}

// UpdateCell sets one cell of an existing sheet.
func (h *Handle) UpdateCell(sheet, addr string, value any) (Result, error) {
	const op = "update_cell"
	if err := validateUpdate(op, h.path, sheet, addr, value); err != nil {
		return Result{Op: op, Path: h.path, Sheet: sheet, Cell: addr}, err
	}
	return h.apply(op, func(s *Session) (Result, error) {
		return s.UpdateCell(sheet, addr, value)
	})
}

// CreateSheet appends an empty sheet named name.
func (h *Handle) CreateSheet(name string) (Result, error) {
	const op = "create_sheet"
	if err := requireName(op, h.path, "sheet name", name); err != nil {
		return Result{Op: op, Path: h.path, Sheet: name}, err
	}
	return h.apply(op, func(s *Session) (Result, error) {
		return s.CreateSheet(name)
	})
}

// RenameSheet retitles the sheet name to newName.
func (h *Handle) RenameSheet(name, newName string) (Result, error) {
	const op = "rename_sheet"
	if err := requireName(op, h.path, "sheet name", name); err != nil {
		return Result{Op: op, Path: h.path, Sheet: name}, err
	}
	if err := requireName(op, h.path, "new sheet name", newName); err != nil {
		return Result{Op: op, Path: h.path, Sheet: name}, err
	}
	return h.apply(op, func(s *Session) (Result, error) {
		return s.RenameSheet(name, newName)
	})
}

// DeleteSheet removes the sheet name.
func (h *Handle) DeleteSheet(name string) (Result, error) {
	const op = "delete_sheet"
	if err := requireName(op, h.path, "sheet name", name); err != nil {
		return Result{Op: op, Path: h.path, Sheet: name}, err
	}
	return h.apply(op, func(s *Session) (Result, error) {
		return s.DeleteSheet(name)
	})
}

func (h *Handle) apply(op string, fn func(*Session) (Result, error)) (Result, error) {
	s, err := h.begin(op)
	if err != nil {
		return Result{Op: op, Path: h.path}, err
	}
	defer s.Close()

	res, err := fn(s)
	if err != nil {
		return res, err
	}
	if err := s.Commit(); err != nil {
		return res, err
	}
	return res, nil
}

func requireName(op, path, what, name string) error {
	if strings.TrimSpace(name) == "" {
		return newError(KindValidation, op, path, "%s must be a non-empty string", what)
	}
	return nil
}

func validateUpdate(op, path, sheet, addr string, value any) error {
	if err := ValidateAddress(addr); err != nil {
		return wrapError(KindValidation, op, path, err, "")
	}
	if err := requireName(op, path, "sheet name", sheet); err != nil {
		return err
	}
	if err := checkScalar(value); err != nil {
		return wrapError(KindValidation, op, path, err, "")
	}
	return nil
}

// ValidateValue reports whether v can be stored in a single cell: nil, a
// string, a bool or a Go number.
func ValidateValue(v any) error {
	if err := checkScalar(v); err != nil {
		return wrapError(KindValidation, "value", "", err, "")
	}
	return nil
}

func checkScalar(v any) error {
	switch v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return nil
	}
	return fmt.Errorf("unsupported cell value type %T", v)
}
