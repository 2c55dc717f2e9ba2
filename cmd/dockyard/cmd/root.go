package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dockyard-vm/dockyard/internal/config"
	"github.com/dockyard-vm/dockyard/internal/log"
)

var (
	cfgFile  string
	noDaemon bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dockyard",
	Short: "Manage the dockyard development VM",
	Long: `dockyard provisions and drives a local VirtualBox VM through
docker-machine: bring-up, teardown, asset management and file sync.
Most commands talk to a long-running daemon over a unix socket;
--no-daemon executes them in-process instead.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	rootCmd.PersistentFlags().BoolVar(&noDaemon, "no-daemon", false, "execute the command in-process instead of through the daemon")
}

// setupCommand is the shared PreRunE: parse config, init logging.
func setupCommand(cmd *cobra.Command, args []string) error {
	conf, err := config.Parse(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to parse config %s: %w", cfgFile, err)
	}

	err = log.Init(conf.Logs)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}

	return nil
}
