package cmd

import (
	"context"
	"fmt"

	"github.com/dockyard-vm/dockyard/internal/assets"
	"github.com/dockyard-vm/dockyard/internal/client"
	"github.com/dockyard-vm/dockyard/internal/config"
	"github.com/dockyard-vm/dockyard/internal/daemon"
	"github.com/dockyard-vm/dockyard/internal/log"
	"github.com/dockyard-vm/dockyard/internal/shell"
	"github.com/dockyard-vm/dockyard/internal/syncer"
	"github.com/dockyard-vm/dockyard/internal/vm"
	"github.com/dockyard-vm/dockyard/pkg/memo"
	"github.com/dockyard-vm/dockyard/pkg/payload"
)

// runtime bundles the daemon-side components. The daemon builds one and
// keeps it for the process lifetime; --no-daemon builds a throwaway one
// per command.
type runtime struct {
	Registry    *payload.Registry
	Provisioner *vm.Provisioner
	Store       assets.Store
	Syncer      syncer.Syncer
}

func buildRuntime(conf *config.Config) (runtime, error) {
	logger := log.Logger()

	var runner shell.Runner = shell.NewRunner()
	if conf.Shell.DemoteUser != "" {
		runner = shell.NewDemotedRunner(conf.Shell.DemoteUser)
	}

	cache := memo.NewCache()

	prov := vm.NewProvisioner(runner, conf.VM, conf.Paths, cache, logger)
	store := assets.NewStore(runner, cache, conf.VM, conf.Paths)
	sync := syncer.NewSyncer(runner, conf.VM, conf.Sync, logger)

	registry := payload.NewRegistry()

	err := daemon.RegisterAll(registry, prov, store, sync)
	if err != nil {
		return runtime{}, fmt.Errorf("failed to register commands: %w", err)
	}

	return runtime{
		Registry:    registry,
		Provisioner: prov,
		Store:       store,
		Syncer:      sync,
	}, nil
}

// dispatchPayload routes a payload either to the daemon socket or to an
// in-process registry when --no-daemon is set.
func dispatchPayload(ctx context.Context, p payload.Payload) (string, error) {
	if noDaemon {
		rt, err := buildRuntime(config.Current())
		if err != nil {
			return "", err
		}

		return p.Run(ctx, rt.Registry)
	}

	return client.Send(ctx, config.DaemonConfig().Socket, p)
}

// runClientCommand is the shared Run body for client-side commands: it
// dispatches the payload and prints the daemon's output.
func runClientCommand(ctx context.Context, p payload.Payload) error {
	out, err := dispatchPayload(ctx, p)
	if err != nil {
		return err
	}

	if out != "" {
		fmt.Println(out)
	}

	return nil
}
