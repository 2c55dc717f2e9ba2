package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dockyard-vm/dockyard/pkg/payload"
)

// upCmd represents the up command
var upCmd = &cobra.Command{
	Use:     "up",
	Short:   "Create, start and bootstrap the VM",
	PreRunE: setupCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClientCommand(cmd.Context(), payload.New("vm.initialize", nil, nil))
	},
}

func init() {
	rootCmd.AddCommand(upCmd)
}
