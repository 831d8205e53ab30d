// Package completion provides shell completion generation commands.
package completion

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCommand returns the completion command.
func NewCommand(rootCmd *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completions",
		Long: `Generate shell completion scripts for xlkit.

Install instructions:
  Bash:       xlkit completion bash > /etc/bash_completion.d/xlkit
              echo 'source <(xlkit completion bash)' >> ~/.bashrc
  Zsh:        xlkit completion zsh > ~/.zsh/completions/_xlkit
  Fish:       xlkit completion fish > ~/.config/fish/completions/xlkit.fish
  PowerShell: xlkit completion powershell >> $PROFILE`,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				fmt.Fprintln(out, "# xlkit bash completion")
				fmt.Fprintln(out, "# Install: xlkit completion bash > /etc/bash_completion.d/xlkit")
				fmt.Fprintln(out)
				return rootCmd.GenBashCompletion(out)
			case "zsh":
				fmt.Fprintln(out, "# xlkit zsh completion")
				fmt.Fprintln(out, "# Install: xlkit completion zsh > ~/.zsh/completions/_xlkit")
				fmt.Fprintln(out)
				return rootCmd.GenZshCompletion(out)
			case "fish":
				fmt.Fprintln(out, "# xlkit fish completion")
				fmt.Fprintln(out, "# Install: xlkit completion fish > ~/.config/fish/completions/xlkit.fish")
				fmt.Fprintln(out)
				return rootCmd.GenFishCompletion(out, true)
			case "powershell":
				fmt.Fprintln(out, "# xlkit PowerShell completion")
				fmt.Fprintln(out, "# Install: xlkit completion powershell >> $PROFILE")
				fmt.Fprintln(out)
				return rootCmd.GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish, powershell)", args[0])
			}
		},
	}
	return cmd
}
