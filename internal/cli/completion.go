package cli

import (
	"github.com/spf13/cobra"
)

func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Print a completion script for the given shell. Song file arguments
complete to .md, .txt and .cifra files.

  bash:        source <(cifra completion bash)
  zsh:         cifra completion zsh > "${fpath[1]}/_cifra"
  fish:        cifra completion fish > ~/.config/fish/completions/cifra.fish
  powershell:  cifra completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}

	return cmd
}

var songExtensions = []string{"md", "txt", "cifra"}

// completeSongFiles completes every positional argument to song files.
func completeSongFiles(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return songExtensions, cobra.ShellCompDirectiveFilterFileExt
}

// completeSongFile completes only the first positional argument.
func completeSongFile(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return songExtensions, cobra.ShellCompDirectiveFilterFileExt
}
