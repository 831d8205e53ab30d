// Package doctor provides the "xlkit doctor" command for checking setup.
package doctor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/klytics/xlkit/cmd/cmdutil"
	"github.com/klytics/xlkit/internal/config"
	"github.com/klytics/xlkit/internal/output"
)

// Check represents a single health check result.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Message string `json:"message"`
}

// NewCommand creates the "doctor" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and the --file workbook",
		Long: `Run diagnostic checks on the xlkit config, the audit and history files
and, when --file is given, whether that workbook can be loaded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := runChecks(cmd)

			w := cmdutil.Writer(cmd)
			if w.Format() == output.FormatJSON {
				return output.PrintJSON(w.Dest(), cmdutil.Name(cmd), checks)
			}

			out := w.Dest()
			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			fmt.Fprintln(out, "xlkit doctor")
			fmt.Fprintln(out, "============")
			fmt.Fprintln(out)

			okCount, warnCount, errCount := 0, 0, 0
			for _, c := range checks {
				var icon string
				switch c.Status {
				case "ok":
					icon = green("✓")
					okCount++
				case "warning":
					icon = yellow("!")
					warnCount++
				case "error":
					icon = red("✗")
					errCount++
				}
				fmt.Fprintf(out, "  %s %s: %s\n", icon, c.Name, c.Message)
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "  %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

			if errCount > 0 {
				return fmt.Errorf("%d check(s) failed", errCount)
			}
			return nil
		},
	}
}

func runChecks(cmd *cobra.Command) []Check {
	var checks []Check

	checks = append(checks, Check{
		Name:    "Go Runtime",
		Status:  "ok",
		Message: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	})

	if _, err := os.Stat(config.ConfigPath()); err == nil {
		checks = append(checks, Check{Name: "Config File", Status: "ok", Message: config.ConfigPath()})
	} else {
		checks = append(checks, Check{
			Name:    "Config File",
			Status:  "warning",
			Message: "Not found, using defaults — run 'xlkit config init'",
		})
	}

	for _, issue := range config.Validate() {
		status := issue.Severity
		if status == "info" {
			status = "ok"
		}
		checks = append(checks, Check{Name: "Config " + issue.Key, Status: status, Message: issue.Message})
	}

	if viper.GetBool("audit.enabled") {
		checks = append(checks, writable("Audit Log", viper.GetString("audit.file")))
	}
	checks = append(checks, writable("Shell History", viper.GetString("shell.history")))

	pager := os.Getenv("PAGER")
	if pager == "" {
		pager = "less"
	}
	if _, err := exec.LookPath(pager); err == nil {
		checks = append(checks, Check{Name: "Pager", Status: "ok", Message: pager})
	} else {
		checks = append(checks, Check{
			Name:    "Pager",
			Status:  "warning",
			Message: fmt.Sprintf("%s not found in PATH — long 'open' output will not be paged", pager),
		})
	}

	if file, _ := cmd.Flags().GetString("file"); file != "" {
		checks = append(checks, checkWorkbook(cmd))
	}

	return checks
}

// writable reports whether path's directory exists or can be created.
func writable(name, path string) Check {
	if path == "" {
		return Check{Name: name, Status: "warning", Message: "no path configured"}
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return Check{Name: name, Status: "error", Message: fmt.Sprintf("cannot create %s: %v", dir, err)}
	}
	return Check{Name: name, Status: "ok", Message: path}
}

func checkWorkbook(cmd *cobra.Command) Check {
	h, err := cmdutil.Handle(cmd)
	if err != nil {
		return Check{Name: "Workbook", Status: "error", Message: err.Error()}
	}
	s, err := h.Begin()
	if err != nil {
		return Check{Name: "Workbook", Status: "error", Message: err.Error()}
	}
	defer s.Close()
	return Check{
		Name:    "Workbook",
		Status:  "ok",
		Message: fmt.Sprintf("%s (%d sheets)", h.Path(), len(s.SheetNames())),
	}
}
