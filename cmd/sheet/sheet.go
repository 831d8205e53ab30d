// Package sheet provides the "xlkit sheet" commands.
package sheet

import (
	"github.com/spf13/cobra"

	"github.com/klytics/xlkit/cmd/cmdutil"
	"github.com/klytics/xlkit/internal/workbook"
)

// NewCommand returns the sheet subcommand group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheet",
		Short: "Create, rename and delete sheets",
		Long:  "Commands that change the sheets of the workbook named by --file. The file must already exist.",
	}

	cmd.AddCommand(newCreateCommand())
	cmd.AddCommand(newRenameCommand())
	cmd.AddCommand(newDeleteCommand())

	return cmd
}

func newCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "create <name>",
		Short:   "Append an empty sheet",
		Example: "  xlkit sheet create Data -f report.xlsx",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(h *workbook.Handle) (workbook.Result, error) {
				return h.CreateSheet(args[0])
			})
		},
	}
}

func newRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rename <name> <new-name>",
		Short:   "Rename a sheet",
		Example: "  xlkit sheet rename Data Summary -f report.xlsx",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(h *workbook.Handle) (workbook.Result, error) {
				return h.RenameSheet(args[0], args[1])
			})
		},
	}
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name>",
		Short:   "Delete a sheet",
		Example: "  xlkit sheet delete Scratch -f report.xlsx",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(h *workbook.Handle) (workbook.Result, error) {
				return h.DeleteSheet(args[0])
			})
		},
	}
}

func run(cmd *cobra.Command, op func(*workbook.Handle) (workbook.Result, error)) error {
	h, err := cmdutil.Handle(cmd)
	if err != nil {
		return err
	}
	res, err := op(h)
	if err != nil {
		return err
	}
	return cmdutil.Writer(cmd).Result(cmdutil.Name(cmd), res)
}
