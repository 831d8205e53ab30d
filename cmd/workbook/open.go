package workbook

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/klytics/xlkit/cmd/cmdutil"
	"github.com/klytics/xlkit/internal/output"
	wb "github.com/klytics/xlkit/internal/workbook"
)

func newOpenCommand() *cobra.Command {
	var (
		sheetName string
		csvOutput bool
	)

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Load a workbook and print its contents",
		Long: `Loads the workbook named by --file and prints every sheet. A missing
file is created first as an empty workbook.`,
		Example: `  xlkit open -f report.xlsx
  xlkit open -f report.xlsx --sheet Data --csv
  xlkit open -f report.xlsx --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := cmdutil.Handle(cmd)
			if err != nil {
				return err
			}
			book, err := h.Open()
			if err != nil {
				return err
			}

			sheets := book.Sheets
			if sheetName != "" {
				s, err := book.Sheet(sheetName)
				if err != nil {
					return err
				}
				sheets = []wb.Sheet{*s}
			}

			w := cmdutil.Writer(cmd)
			if w.Format() == output.FormatJSON {
				view := *book
				view.Sheets = sheets
				return output.PrintJSON(w.Dest(), cmdutil.Name(cmd), view)
			}

			var content string
			if csvOutput {
				content = renderCSV(sheets)
			} else {
				content = renderText(book, sheets)
			}

			if output.ShouldPage(w.Dest(), content, output.DefaultPageHeight) {
				return output.Page(content, w.Dest())
			}
			return w.WriteText(content)
		},
	}

	cmd.Flags().StringVar(&sheetName, "sheet", "", "Print only this sheet")
	cmd.Flags().BoolVar(&csvOutput, "csv", false, "Print sheets as CSV")
	return cmd
}

func renderCSV(sheets []wb.Sheet) string {
	var sb strings.Builder
	for i := range sheets {
		if len(sheets) > 1 {
			if i > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "# %s\n", sheets[i].Name)
		}
		sb.WriteString(sheets[i].ToCSV())
	}
	return sb.String()
}

func renderText(book *wb.Workbook, sheets []wb.Sheet) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d sheets, active: %s)\n", book.Path, len(book.Sheets), book.Active)

	for i := range sheets {
		s := &sheets[i]
		fmt.Fprintf(&sb, "\n== %s (%d rows, %d cells) ==\n", s.Name, s.RowCount(), s.CellCount())
		if len(s.Rows) == 0 {
			sb.WriteString("(empty)\n")
			continue
		}

		tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
		for r, row := range s.Rows {
			fmt.Fprintf(tw, "%d\t%s\n", r+1, strings.Join(row, "\t"))
		}
		tw.Flush()
	}
	return sb.String()
}
