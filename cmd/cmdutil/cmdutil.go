// Package cmdutil holds helpers shared by xlkit subcommands.
package cmdutil

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/klytics/xlkit/internal/logging"
	"github.com/klytics/xlkit/internal/output"
	"github.com/klytics/xlkit/internal/workbook"
)

// Format returns JSON when --json is set or output.format is "json".
func Format(cmd *cobra.Command) output.Format {
	if jsonFlag, _ := cmd.Flags().GetBool("json"); jsonFlag {
		return output.FormatJSON
	}
	return output.ParseFormat(viper.GetString("output.format"))
}

// Writer returns an output writer on the command's stdout.
func Writer(cmd *cobra.Command) *output.Writer {
	return output.NewWriter(cmd.OutOrStdout(), Format(cmd))
}

// Logger returns a logger on the command's stderr at the configured level,
// or debug with --verbose.
func Logger(cmd *cobra.Command) *logrus.Logger {
	l := logging.New(viper.GetString("log.level"), cmd.ErrOrStderr())
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logging.Verbose(l)
	}
	return l
}

// Handle returns a workbook handle for --file, using the configured default
// sheet name and the command's logger.
func Handle(cmd *cobra.Command) (*workbook.Handle, error) {
	path, _ := cmd.Flags().GetString("file")
	return HandleFor(cmd, path)
}

// HandleFor is Handle for an explicit path.
func HandleFor(cmd *cobra.Command, path string) (*workbook.Handle, error) {
	return workbook.New(path,
		workbook.WithLogger(Logger(cmd)),
		workbook.WithDefaultSheet(viper.GetString("workbook.default_sheet")),
	)
}

// Name returns the command path without the binary name, e.g. "sheet create".
func Name(cmd *cobra.Command) string {
	path := cmd.CommandPath()
	if _, rest, ok := strings.Cut(path, " "); ok {
		return rest
	}
	return path
}
