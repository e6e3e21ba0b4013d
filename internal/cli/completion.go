package cli

import (
	"fmt"
	"os"

	"github.com/billmal071/d5s/internal/db"
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for d5s.

To load completions:

Bash:
  $ source <(d5s completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ d5s completion bash > /etc/bash_completion.d/d5s
  # macOS:
  $ d5s completion bash > /usr/local/etc/bash_completion.d/d5s

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it.  You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ d5s completion zsh > "${fpath[1]}/_d5s"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ d5s completion fish | source

  # To load completions for each session, execute once:
  $ d5s completion fish > ~/.config/fish/completions/d5s.fish

PowerShell:
  PS> d5s completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> d5s completion powershell > d5s.ps1
  # and source this file from your PowerShell profile.`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.ExactValidArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

func init() {
	retryCmd.ValidArgsFunction = completeRunIDs
	verifyCmd.ValidArgsFunction = completeRunIDs
	exportCmd.ValidArgsFunction = completeRunIDs
}

// completeRunIDs offers "ID<tab>Title (status)" for every recorded run
func completeRunIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	runs, err := db.ListRuns("", true)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	completions := make([]string, 0, len(runs))
	for _, r := range runs {
		completions = append(completions, fmt.Sprintf("%d\t%s (%s)", r.ID, truncateTitle(r.Title, 40), r.Status))
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// truncateTitle shortens title to maxLen runes
func truncateTitle(title string, maxLen int) string {
	runes := []rune(title)
	if len(runes) <= maxLen {
		return title
	}
	return string(runes[:maxLen-3]) + "..."
}
