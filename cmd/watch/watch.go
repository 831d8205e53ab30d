// Package watch provides the "xlkit watch" command.
package watch

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/xlkit/cmd/cmdutil"
	"github.com/klytics/xlkit/internal/output"
	w "github.com/klytics/xlkit/internal/watch"
	"github.com/klytics/xlkit/internal/workbook"
)

// NewCommand creates the "watch" command.
func NewCommand() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print a summary of the workbook each time it is saved",
		Long: `Watches the workbook named by --file and reloads it whenever it changes
on disk, printing its sheets and row counts. Runs until interrupted.

With --json each reload is printed as one JSON object per line.`,
		Example: `  xlkit watch -f report.xlsx
  xlkit watch -f report.xlsx --debounce 2s --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := cmdutil.Handle(cmd)
			if err != nil {
				return err
			}

			watcher, err := w.New(h, w.Config{
				Debounce: debounce,
				Logger:   cmdutil.Logger(cmd),
			})
			if err != nil {
				return err
			}

			jsonOut := cmdutil.Format(cmd) == output.FormatJSON
			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)

			watcher.Handler = func(wb *workbook.Workbook, err error) {
				if jsonOut {
					if err != nil {
						enc.Encode(map[string]string{"error": err.Error()})
						return
					}
					enc.Encode(summarize(wb))
					return
				}
				ts := time.Now().Format("15:04:05")
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "[%s] Error: %s\n", ts, err)
					return
				}
				fmt.Fprintf(out, "[%s] %s reloaded\n", ts, wb.Path)
				for _, s := range summarize(wb).Sheets {
					fmt.Fprintf(out, "  %-31s %d rows, %d cells\n", s.Name, s.Rows, s.Cells)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if !jsonOut {
				fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", h.Path())
			}
			if err := watcher.Start(ctx); err != nil {
				return err
			}
			if !jsonOut {
				fmt.Fprintf(out, "Stopped after %d reload(s)\n", len(watcher.GetEvents()))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", w.DefaultDebounce, "Quiet period before a change is reloaded")
	return cmd
}

type sheetSummary struct {
	Name  string `json:"name"`
	Rows  int    `json:"rows"`
	Cells int    `json:"cells"`
}

type summary struct {
	Path   string         `json:"path"`
	Time   time.Time      `json:"time"`
	Sheets []sheetSummary `json:"sheets"`
}

func summarize(wb *workbook.Workbook) summary {
	s := summary{Path: wb.Path, Time: time.Now()}
	for i := range wb.Sheets {
		sh := &wb.Sheets[i]
		s.Sheets = append(s.Sheets, sheetSummary{Name: sh.Name, Rows: sh.RowCount(), Cells: sh.CellCount()})
	}
	return s
}
