// Package actions provides the built-in pipeline actions.
package actions

import (
	"context"

	"github.com/klytics/xlkit/internal/pipeline"
	"github.com/klytics/xlkit/internal/workbook"
)

// RegisterAll registers all built-in actions with the given executor.
func RegisterAll(exec *pipeline.Executor) {
	exec.RegisterAction("cell.update", CellUpdateAction)
	exec.RegisterAction("sheet.create", SheetCreateAction)
	exec.RegisterAction("sheet.rename", SheetRenameAction)
	exec.RegisterAction("sheet.delete", SheetDeleteAction)
}

// CellUpdateAction sets step.Cell in step.Sheet. A step without a value
// writes workbook.DefaultValue.
func CellUpdateAction(_ context.Context, s *workbook.Session, step pipeline.Step) (workbook.Result, error) {
	value := step.Value
	if value == nil {
		value = workbook.DefaultValue
	}
	return s.UpdateCell(step.Sheet, step.Cell, value)
}

// SheetCreateAction appends step.Sheet.
func SheetCreateAction(_ context.Context, s *workbook.Session, step pipeline.Step) (workbook.Result, error) {
	return s.CreateSheet(step.Sheet)
}

// SheetRenameAction renames step.Sheet to step.To.
func SheetRenameAction(_ context.Context, s *workbook.Session, step pipeline.Step) (workbook.Result, error) {
	return s.RenameSheet(step.Sheet, step.To)
}

// SheetDeleteAction removes step.Sheet.
func SheetDeleteAction(_ context.Context, s *workbook.Session, step pipeline.Step) (workbook.Result, error) {
	return s.DeleteSheet(step.Sheet)
}
