package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/qmap/pkg/device"
)

// completionCommand generates shell completion scripts.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for qmap.

Bash:
  $ source <(qmap completion bash)

Zsh:
  $ qmap completion zsh > "${fpath[1]}/_qmap"

Fish:
  $ qmap completion fish > ~/.config/fish/completions/qmap.fish

PowerShell:
  PS> qmap completion powershell | Out-String | Invoke-Expression

Device names complete from the built-in catalog and the configured
device_dir.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}
}

// completeDevices completes device names. It reads local sources only, so
// completion never waits on MongoDB.
func (c *CLI) completeDevices(_ *cobra.Command, _ []string, prefix string) ([]string, cobra.ShellCompDirective) {
	names := device.Builtin().Names()
	if dir := c.config.DeviceDir; dir != "" {
		if files, err := device.LoadDir(dir); err == nil {
			for _, d := range files {
				names = append(names, d.Name())
			}
		}
	}
	out := names[:0]
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			out = append(out, n)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
