package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/common/version"
	"github.com/spf13/cobra"

	"github.com/dockyard-vm/dockyard/internal/common"
	"github.com/dockyard-vm/dockyard/internal/config"
	"github.com/dockyard-vm/dockyard/internal/daemon"
	"github.com/dockyard-vm/dockyard/internal/factory"
	"github.com/dockyard-vm/dockyard/internal/log"
)

// daemonCmd represents the daemon command
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the command daemon",
	Long: `Listen on the unix socket and execute client commands against
the managed VM. Privileged setup stays in this process; clients only
submit serialized commands.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		err := setupCommand(cmd, args)
		if err != nil {
			return err
		}

		logger := log.Logger()

		// Dump generic information
		logger.Info("Starting dockyard daemon",
			"version", version.Info(),
			"buildContext", version.BuildContext(),
		)
		logger.Info("Using config", "config", fmt.Sprintf("%+v", config.Current()))

		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		logger := log.Logger()

		// Set max procs based on cpu limits
		err := common.SetMaxProcs()
		if err != nil {
			logger.Error(err, "failed to set max procs")

			return
		}

		// Set max memory
		err = common.SetMemLimit()
		if err != nil {
			logger.Error(err, "failed to set mem limit")

			return
		}

		// Listen to sigterm and interrupt signals
		ctx := common.SetupSignalHandler(context.Background())

		conf := config.Current()

		rt, err := buildRuntime(conf)
		if err != nil {
			logger.Error(err, "failed to build runtime")

			return
		}

		logger.V(1).Info("Commands registered", "commands", rt.Registry.Keys())

		// Metrics
		prometheusRegistry := prometheus.NewRegistry()
		prometheusRegistry.MustRegister(collectors.NewGoCollector())

		metricsServer := factory.CreatePrometheusServer(conf.Metrics, prometheusRegistry)

		// Dispatch chain
		processing, err := factory.DecorateDispatch(daemon.NewRegistryProcessing(rt.Registry), prometheusRegistry)
		if err != nil {
			logger.Error(err, "failed to create dispatch chain")

			return
		}

		server := daemon.NewServer(conf.Daemon, processing).
			WithLogger(logger).
			WithMetricsServer(metricsServer)

		err = server.Start(ctx)
		if err != nil {
			logger.Error(err, "daemon stopped with error")

			return
		}

		logger.V(2).Info("Daemon stopped")
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
