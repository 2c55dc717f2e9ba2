package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dockyard-vm/dockyard/pkg/payload"
)

// assetsCmd represents the assets command
var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Inspect and manage named files on the VM",
}

var assetsValueCmd = &cobra.Command{
	Use:     "value <key>",
	Short:   "Print the contents of an asset",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClientCommand(cmd.Context(), payload.New("assets.value", []any{args[0]}, nil))
	},
}

var assetsRemoveCmd = &cobra.Command{
	Use:     "remove <key>",
	Short:   "Delete an asset from the VM",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClientCommand(cmd.Context(), payload.New("assets.remove", []any{args[0]}, nil))
	},
}

var assetsMissingCmd = &cobra.Command{
	Use:     "missing <key>...",
	Short:   "List which of the given assets are absent from the VM",
	Args:    cobra.MinimumNArgs(1),
	PreRunE: setupCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		required := make([]any, 0, len(args))
		for _, key := range args {
			required = append(required, key)
		}

		return runClientCommand(cmd.Context(), payload.New("assets.required_absent", []any{required}, nil))
	},
}

func init() {
	assetsCmd.AddCommand(assetsValueCmd)
	assetsCmd.AddCommand(assetsRemoveCmd)
	assetsCmd.AddCommand(assetsMissingCmd)
	rootCmd.AddCommand(assetsCmd)
}
