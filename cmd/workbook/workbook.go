// Package workbook provides the CLI commands that act on a whole workbook
// file or on single cells.
package workbook

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/klytics/xlkit/cmd/cmdutil"
	wb "github.com/klytics/xlkit/internal/workbook"
)

// NewCommands returns the top-level workbook commands.
func NewCommands() []*cobra.Command {
	return []*cobra.Command{
		newCreateCommand(),
		newDeleteCommand(),
		newOpenCommand(),
		newUpdateCommand(),
	}
}

func newCreateCommand() *cobra.Command {
	var dataPath string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a workbook, optionally filled from JSON rows",
		Long: `Creates the workbook named by --file, replacing any existing file.

--data takes a JSON array of rows, each an array of strings, numbers,
booleans or nulls, written to the first sheet from A1:

  [["Name", "Qty"], ["Widget", 3]]`,
		Example: `  xlkit create -f report.xlsx
  xlkit create -f report.xlsx --data rows.json
  echo '[["a", 1]]' | xlkit create -f report.xlsx --data -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := cmdutil.Handle(cmd)
			if err != nil {
				return err
			}

			rows := [][]any{}
			if dataPath != "" {
				rows, err = readRows(cmd.InOrStdin(), dataPath)
				if err != nil {
					return err
				}
			}

			res, err := h.Create(rows)
			if err != nil {
				return err
			}
			return cmdutil.Writer(cmd).Result(cmdutil.Name(cmd), res)
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "Path to a JSON file of rows (or - for stdin)")
	return cmd
}

// readRows decodes a JSON array of rows. Numbers stay numbers: integers
// become int64, everything else float64.
func readRows(stdin io.Reader, path string) ([][]any, error) {
	var r io.Reader
	if path == "-" {
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("could not read data: %w", err)
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw [][]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid JSON data: %w — expected an array of rows, e.g. [[\"a\", 1]]", err)
	}
	if raw == nil {
		raw = [][]any{}
	}

	for _, row := range raw {
		for j, v := range row {
			n, ok := v.(json.Number)
			if !ok {
				continue
			}
			if i, err := n.Int64(); err == nil {
				row[j] = i
			} else if f, err := n.Float64(); err == nil {
				row[j] = f
			} else {
				row[j] = n.String()
			}
		}
	}
	return raw, nil
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete the workbook file",
		Long:  "Removes the workbook named by --file. A missing file is reported as skipped.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := cmdutil.Handle(cmd)
			if err != nil {
				return err
			}
			res, err := h.Delete()
			if err != nil {
				return err
			}
			return cmdutil.Writer(cmd).Result(cmdutil.Name(cmd), res)
		},
	}
}

func newUpdateCommand() *cobra.Command {
	var asString bool

	cmd := &cobra.Command{
		Use:   "update <sheet> <cell> [value]",
		Short: "Set one cell of an existing sheet",
		Long: `Writes value to cell (an uppercase address such as B2) in sheet.

The value defaults to 0. Integers, decimals and true/false are stored as
numbers and booleans unless --string is given.`,
		Example: `  xlkit update Sheet1 B2 42 -f report.xlsx
  xlkit update Sheet1 A1 "Total" -f report.xlsx
  xlkit update Sheet1 C3 007 --string -f report.xlsx`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := cmdutil.Handle(cmd)
			if err != nil {
				return err
			}

			var value any = wb.DefaultValue
			if len(args) == 3 {
				value = parseValue(args[2], asString)
			}

			res, err := h.UpdateCell(args[0], args[1], value)
			if err != nil {
				return err
			}
			return cmdutil.Writer(cmd).Result(cmdutil.Name(cmd), res)
		},
	}

	cmd.Flags().BoolVar(&asString, "string", false, "Store the value as text")
	return cmd
}

func parseValue(s string, asString bool) any {
	if asString {
		return s
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	if s == "true" || s == "false" {
		return s == "true"
	}
	return s
}
