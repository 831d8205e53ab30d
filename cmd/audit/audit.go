// Package audit provides the "xlkit audit" CLI commands for viewing audit logs.
package audit

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/klytics/xlkit/cmd/cmdutil"
	auditpkg "github.com/klytics/xlkit/internal/audit"
	"github.com/klytics/xlkit/internal/output"
)

// NewCommand creates the "audit" command with all subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "View and manage the audit log",
		Long: `View the log of commands run against workbooks. Recording is off until
enabled with: xlkit config set audit.enabled true`,
	}

	cmd.AddCommand(newLogCmd())
	cmd.AddCommand(newClearCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

func auditLogPath() string {
	return viper.GetString("audit.file")
}

func newLogCmd() *cobra.Command {
	var (
		last     int
		command  string
		since    string
		until    string
		workbook string
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent audit log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := auditLogPath()
			entries, err := auditpkg.ReadEntries(path)
			if err != nil {
				return err
			}

			sinceTime, err := parseDate("--since", since)
			if err != nil {
				return err
			}
			untilTime, err := parseDate("--until", until)
			if err != nil {
				return err
			}
			if !untilTime.IsZero() {
				// Include the whole --until day.
				untilTime = untilTime.Add(24*time.Hour - time.Nanosecond)
			}

			filtered := auditpkg.FilterEntries(entries, sinceTime, untilTime, command, workbook)

			if last > 0 && len(filtered) > last {
				filtered = filtered[len(filtered)-last:]
			}

			w := cmdutil.Writer(cmd)
			if w.Format() == output.FormatJSON {
				return output.PrintJSON(w.Dest(), cmdutil.Name(cmd), filtered)
			}

			out := w.Dest()
			if len(filtered) == 0 {
				fmt.Fprintln(out, "No audit log entries found.")
				return nil
			}

			fmt.Fprintf(out, "Audit Log — %d Entries\n", len(filtered))
			fmt.Fprintf(out, "File: %s\n\n", path)

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "TIMESTAMP\tCOMMAND\tWORKBOOK\tOUTCOME\tDURATION\tEXIT\n")
			for _, e := range filtered {
				ts := e.Timestamp.Format("2006-01-02 15:04:05")
				dur := fmt.Sprintf("%dms", e.DurationMs)
				if e.DurationMs >= 1000 {
					dur = fmt.Sprintf("%.1fs", float64(e.DurationMs)/1000)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", ts, e.Command, dash(e.Workbook), dash(e.Outcome), dur, e.ExitCode)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&last, "last", 20, "Show last N entries")
	cmd.Flags().StringVar(&command, "command", "", "Filter by command name")
	cmd.Flags().StringVar(&since, "since", "", "Filter entries since date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&until, "until", "", "Filter entries up to date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&workbook, "workbook", "", "Filter by workbook file name")
	return cmd
}

func parseDate(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date: %w (use YYYY-MM-DD)", flag, err)
	}
	return t, nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := auditLogPath()
			if err := auditpkg.Clear(path); err != nil {
				return err
			}
			w := cmdutil.Writer(cmd)
			if w.Format() == output.FormatJSON {
				return output.PrintJSON(w.Dest(), cmdutil.Name(cmd), map[string]string{"cleared": path})
			}
			return w.WriteLn("Audit log cleared: " + path)
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show audit log path and size",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := auditLogPath()
			size := auditpkg.LogSize(path)
			entries, err := auditpkg.ReadEntries(path)
			if err != nil {
				return err
			}

			w := cmdutil.Writer(cmd)
			if w.Format() == output.FormatJSON {
				return output.PrintJSON(w.Dest(), cmdutil.Name(cmd), map[string]interface{}{
					"path":    path,
					"enabled": viper.GetBool("audit.enabled"),
					"size":    size,
					"entries": len(entries),
				})
			}

			out := w.Dest()
			fmt.Fprintf(out, "Audit log: %s\n", path)
			fmt.Fprintf(out, "Enabled:   %t\n", viper.GetBool("audit.enabled"))
			if size == 0 {
				fmt.Fprintln(out, "Size:      empty (no entries)")
			} else {
				fmt.Fprintf(out, "Size:      %s\n", formatSize(size))
			}
			fmt.Fprintf(out, "Entries:   %d\n", len(entries))
			return nil
		},
	}
}

func formatSize(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}
	if bytes < 1024*1024 {
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	}
	return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
}
