// Package cmd contains all CLI commands for the xlkit binary.
package cmd

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdaudit "github.com/klytics/xlkit/cmd/audit"
	"github.com/klytics/xlkit/cmd/cmdutil"
	"github.com/klytics/xlkit/cmd/completion"
	cmdconfig "github.com/klytics/xlkit/cmd/config"
	"github.com/klytics/xlkit/cmd/doctor"
	"github.com/klytics/xlkit/cmd/pipeline"
	"github.com/klytics/xlkit/cmd/sheet"
	"github.com/klytics/xlkit/cmd/shell"
	"github.com/klytics/xlkit/cmd/version"
	cmdwatch "github.com/klytics/xlkit/cmd/watch"
	cmdworkbook "github.com/klytics/xlkit/cmd/workbook"
	"github.com/klytics/xlkit/internal/audit"
	"github.com/klytics/xlkit/internal/config"
	"github.com/klytics/xlkit/internal/output"
	"github.com/klytics/xlkit/internal/workbook"
)

// audited lists the commands recorded in the audit log.
var audited = map[string]bool{
	"create":       true,
	"delete":       true,
	"update":       true,
	"sheet create": true,
	"sheet rename": true,
	"sheet delete": true,
	"run":          true,
}

// NewRootCommand creates and returns the root cobra command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var (
		jsonOutput bool
		verbose    bool
		noColor    bool
		file       string
	)

	rootCmd := &cobra.Command{
		Use:   "xlkit",
		Short: "Create, inspect and edit Excel workbooks from the terminal",
		Long: `xlkit — small, scriptable edits to .xlsx workbooks.

Create and delete workbook files, print their contents, set single cells,
and add, rename or remove sheets. Every change is loaded, applied and saved
in one step; "xlkit run" batches many changes into a single save.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(); err != nil {
				return err
			}
			if noColor || !viper.GetBool("output.color") {
				color.NoColor = true
			}
			return nil
		},
	}

	// Global persistent flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")
	rootCmd.PersistentFlags().StringVarP(&file, "file", "f", "", "Workbook path (.xlsx is appended when missing)")

	// Register subcommands
	rootCmd.AddCommand(cmdworkbook.NewCommands()...)
	rootCmd.AddCommand(sheet.NewCommand())
	rootCmd.AddCommand(pipeline.NewCommand())
	rootCmd.AddCommand(cmdwatch.NewCommand())
	rootCmd.AddCommand(shell.NewCommand(execute))
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(cmdaudit.NewCommand())
	rootCmd.AddCommand(doctor.NewCommand())
	rootCmd.AddCommand(completion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// Execute runs the root command and exits with the mapped exit code.
func Execute() {
	os.Exit(Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// Run executes one xlkit command line, reports any error and returns the
// process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd, err := executeC(ctx, args, stdout, stderr)
	if err == nil {
		return output.ExitOK
	}

	format := output.FormatText
	name := "xlkit"
	if cmd != nil {
		format = cmdutil.Format(cmd)
		name = cmdutil.Name(cmd)
	}
	output.NewWriter(stdout, format).Error(name, err, stderr)
	return output.ExitCode(err)
}

// execute runs args without reporting errors. The shell uses it to run each
// line it reads.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	_, err := executeC(ctx, args, stdout, stderr)
	return err
}

func executeC(ctx context.Context, args []string, stdout, stderr io.Writer) (*cobra.Command, error) {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	start := time.Now()
	cmd, err := root.ExecuteContextC(ctx)
	if cmd != nil {
		record(ctx, cmd, args, err, time.Since(start))
	}
	return cmd, err
}

// record appends an audit entry for commands that change workbooks.
func record(ctx context.Context, cmd *cobra.Command, args []string, runErr error, elapsed time.Duration) {
	name := cmdutil.Name(cmd)
	if !audited[name] || !viper.GetBool("audit.enabled") {
		return
	}

	entry := audit.Entry{
		Command:    name,
		Args:       args,
		Outcome:    "ok",
		ExitCode:   output.ExitCode(runErr),
		DurationMs: elapsed.Milliseconds(),
	}
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		if h, err := workbook.New(file); err == nil {
			entry.Workbook = h.Path()
		}
	}
	if runErr != nil {
		entry.Outcome = "error"
		if k := workbook.KindOf(runErr); k != 0 {
			entry.Outcome = k.String()
		}
	}

	logger := audit.NewLogger(viper.GetString("audit.file"), true)
	if err := logger.Log(ctx, entry); err != nil {
		cmdutil.Logger(cmd).WithError(err).Warn("could not write audit log")
	}
}
