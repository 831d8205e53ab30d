// Package output provides formatting utilities for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/klytics/xlkit/internal/workbook"
)

// Format represents an output format.
type Format int

const (
	// FormatText is coloured, human-readable output.
	FormatText Format = iota
	// FormatJSON is the JSON envelope.
	FormatJSON
)

// ParseFormat maps a config or flag value to a Format. Unknown values mean text.
func ParseFormat(s string) Format {
	if s == "json" {
		return FormatJSON
	}
	return FormatText
}

// Writer handles formatted output to a destination.
type Writer struct {
	dest   io.Writer
	format Format

	ok   *color.Color
	skip *color.Color
	fail *color.Color
}

// NewWriter creates an output writer for dest.
func NewWriter(dest io.Writer, format Format) *Writer {
	return &Writer{
		dest:   dest,
		format: format,
		ok:     color.New(color.FgGreen),
		skip:   color.New(color.FgYellow),
		fail:   color.New(color.FgRed, color.Bold),
	}
}

// Format returns the writer's output format.
func (w *Writer) Format() Format {
	return w.format
}

// Dest returns the underlying writer.
func (w *Writer) Dest() io.Writer {
	return w.dest
}

// WriteJSON encodes a value as pretty-printed JSON.
func (w *Writer) WriteJSON(v interface{}) error {
	enc := json.NewEncoder(w.dest)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteText writes plain text.
func (w *Writer) WriteText(s string) error {
	_, err := fmt.Fprint(w.dest, s)
	return err
}

// WriteLn writes a line of text.
func (w *Writer) WriteLn(s string) error {
	_, err := fmt.Fprintln(w.dest, s)
	return err
}

// Result reports the outcome of a workbook operation. In JSON mode the
// result is wrapped in the standard envelope under command.
func (w *Writer) Result(command string, res workbook.Result) error {
	if w.format == FormatJSON {
		return PrintJSON(w.dest, command, res)
	}
	switch res.Outcome {
	case workbook.Skipped:
		_, err := w.skip.Fprintf(w.dest, "skipped: %s\n", res.Message)
		return err
	default:
		_, err := w.ok.Fprintf(w.dest, "%s\n", res.Message)
		return err
	}
}

// Error reports a failed command. In text mode the message goes to errDest.
func (w *Writer) Error(command string, err error, errDest io.Writer) error {
	if w.format == FormatJSON {
		return PrintJSONError(w.dest, command, err)
	}
	_, werr := w.fail.Fprintf(errDest, "Error: %s\n", err)
	return werr
}
