// Package shell provides the "xlkit shell" interactive REPL command.
package shell

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	shellpkg "github.com/klytics/xlkit/internal/shell"
)

// NewCommand creates the "shell" command. runner executes each line the
// user types as an xlkit command.
func NewCommand(runner shellpkg.CommandRunner) *cobra.Command {
	var evalCmd string

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive xlkit shell",
		Long: `Start an interactive REPL with history and tab completion.

"use <file>" selects a workbook; commands that take --file then default to
it, so "update Sheet1 B2 42" needs no flags.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			shellpkg.DefaultRunner = runner

			session, err := shellpkg.NewSession(viper.GetString("shell.history"))
			if err != nil {
				return err
			}
			session.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if file, _ := cmd.Flags().GetString("file"); file != "" {
				session.Workbook = file
			}

			if evalCmd != "" {
				output, err := session.Eval(cmd.Context(), evalCmd)
				fmt.Fprint(cmd.OutOrStdout(), output)
				return err
			}
			return session.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&evalCmd, "eval", "", "Run a single command and exit")
	return cmd
}
