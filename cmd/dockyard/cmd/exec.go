package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dockyard-vm/dockyard/pkg/payload"
)

// execCmd represents the exec command
var execCmd = &cobra.Command{
	Use:   "exec <command> [arg]...",
	Short: "Run a registered command by its qualified key",
	Long: `Submit any registered command, e.g. "dockyard exec assets.value
github_key". Arguments are passed positionally as strings; commands with
richer argument shapes need their dedicated subcommand.`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: setupCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		callArgs := make([]any, 0, len(args)-1)
		for _, arg := range args[1:] {
			callArgs = append(callArgs, arg)
		}

		return runClientCommand(cmd.Context(), payload.New(args[0], callArgs, nil))
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
}
