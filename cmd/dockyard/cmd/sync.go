package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dockyard-vm/dockyard/pkg/payload"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push local files and directories into the VM",
}

var syncDirCmd = &cobra.Command{
	Use:     "dir <local-dir> <remote-dir>",
	Short:   "Mirror a local directory into the VM over rsync",
	Args:    cobra.ExactArgs(2),
	PreRunE: setupCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		local, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", args[0], err)
		}

		return runClientCommand(cmd.Context(), payload.New("sync.dir", []any{local, args[1]}, nil))
	},
}

var syncFileCmd = &cobra.Command{
	Use:     "file <local-file> <remote-path>",
	Short:   "Copy a single local file to a path on the VM",
	Args:    cobra.ExactArgs(2),
	PreRunE: setupCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		local, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", args[0], err)
		}

		return runClientCommand(cmd.Context(), payload.New("sync.file", []any{local, args[1]}, nil))
	},
}

func init() {
	syncCmd.AddCommand(syncDirCmd)
	syncCmd.AddCommand(syncFileCmd)
	rootCmd.AddCommand(syncCmd)
}
