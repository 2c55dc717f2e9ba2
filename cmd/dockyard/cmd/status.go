package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dockyard-vm/dockyard/pkg/payload"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Report VM state, IP and disk usage",
	PreRunE: setupCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClientCommand(cmd.Context(), payload.New("vm.status", nil, nil))
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
