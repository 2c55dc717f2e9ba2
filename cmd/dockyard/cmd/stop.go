package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dockyard-vm/dockyard/pkg/payload"
)

// stopCmd represents the stop command
var stopCmd = &cobra.Command{
	Use:     "stop",
	Short:   "Stop the VM",
	PreRunE: setupCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClientCommand(cmd.Context(), payload.New("vm.stop", nil, nil))
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
