package daemon

import (
	"context"
	"fmt"
	"strings"

	"github.com/dockyard-vm/dockyard/internal/assets"
	"github.com/dockyard-vm/dockyard/internal/syncer"
	"github.com/dockyard-vm/dockyard/internal/vm"
	"github.com/dockyard-vm/dockyard/pkg/payload"
)

// RegisterAll wires every daemon-side command into the registry. Keys
// follow the "<scope>.<name>" convention the clients construct payloads
// with; a collision here is a programming error and aborts startup.
func RegisterAll(registry *payload.Registry, prov *vm.Provisioner, store assets.Store, sync syncer.Syncer) error {
	commands := []struct {
		scope string
		name  string
		fn    payload.HandlerFunc
	}{
		{"vm", "initialize", func(ctx context.Context, args []any, kwargs map[string]any) (string, error) {
			err := prov.Initialize(ctx)
			if err != nil {
				return "", err
			}

			return "VM is up and initialized", nil
		}},
		{"vm", "stop", func(ctx context.Context, args []any, kwargs map[string]any) (string, error) {
			err := prov.Stop(ctx)
			if err != nil {
				return "", err
			}

			return "VM stopped", nil
		}},
		{"vm", "status", func(ctx context.Context, args []any, kwargs map[string]any) (string, error) {
			return vmStatus(ctx, prov)
		}},
		{"assets", "value", func(ctx context.Context, args []any, kwargs map[string]any) (string, error) {
			key, err := stringArg(args, 0, "key")
			if err != nil {
				return "", err
			}

			return store.Value(ctx, key)
		}},
		{"assets", "remove", func(ctx context.Context, args []any, kwargs map[string]any) (string, error) {
			key, err := stringArg(args, 0, "key")
			if err != nil {
				return "", err
			}

			err = store.Remove(ctx, key)
			if err != nil {
				return "", err
			}

			return fmt.Sprintf("Removed asset %s", key), nil
		}},
		{"assets", "required_absent", func(ctx context.Context, args []any, kwargs map[string]any) (string, error) {
			required, err := stringSliceArg(args, 0, "required")
			if err != nil {
				return "", err
			}

			missing, err := store.RequiredAbsent(ctx, required)
			if err != nil {
				return "", err
			}

			return strings.Join(missing, "\n"), nil
		}},
		{"sync", "dir", func(ctx context.Context, args []any, kwargs map[string]any) (string, error) {
			local, remote, err := pathPairArgs(args)
			if err != nil {
				return "", err
			}

			err = sync.SyncDirToVM(ctx, local, remote)
			if err != nil {
				return "", err
			}

			return fmt.Sprintf("Synced %s to %s", local, remote), nil
		}},
		{"sync", "file", func(ctx context.Context, args []any, kwargs map[string]any) (string, error) {
			local, remote, err := pathPairArgs(args)
			if err != nil {
				return "", err
			}

			err = sync.SyncFileToVM(ctx, local, remote)
			if err != nil {
				return "", err
			}

			return fmt.Sprintf("Synced %s to %s", local, remote), nil
		}},
	}

	for _, command := range commands {
		err := registry.Register(command.scope, command.name, command.fn)
		if err != nil {
			return fmt.Errorf("failed to register %s.%s: %w", command.scope, command.name, err)
		}
	}

	return nil
}

// vmStatus composes the human-facing status report. The IP and disk
// probes only make sense on a running VM, so a stopped VM short-circuits
// to a one-liner.
func vmStatus(ctx context.Context, prov *vm.Provisioner) (string, error) {
	running, err := prov.IsRunning(ctx)
	if err != nil {
		return "", err
	}

	if !running {
		return "VM is stopped", nil
	}

	ip, err := prov.IP(ctx)
	if err != nil {
		return "", err
	}

	disk, err := prov.DiskInfo(ctx)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("VM is running\nIP: %s\nDisk: %s", ip, disk), nil
}

func stringArg(args []any, index int, name string) (string, error) {
	if index >= len(args) {
		return "", fmt.Errorf("missing argument %s at position %d", name, index)
	}

	ret, ok := args[index].(string)
	if !ok {
		return "", fmt.Errorf("argument %s must be a string, got %T", name, args[index])
	}

	return ret, nil
}

// stringSliceArg accepts []any because JSON decoding never produces
// []string directly.
func stringSliceArg(args []any, index int, name string) ([]string, error) {
	if index >= len(args) {
		return nil, fmt.Errorf("missing argument %s at position %d", name, index)
	}

	raw, ok := args[index].([]any)
	if !ok {
		return nil, fmt.Errorf("argument %s must be a list, got %T", name, args[index])
	}

	ret := make([]string, 0, len(raw))

	for i, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("argument %s[%d] must be a string, got %T", name, i, item)
		}

		ret = append(ret, s)
	}

	return ret, nil
}

func pathPairArgs(args []any) (string, string, error) {
	local, err := stringArg(args, 0, "local_path")
	if err != nil {
		return "", "", err
	}

	remote, err := stringArg(args, 1, "remote_path")
	if err != nil {
		return "", "", err
	}

	return local, remote, nil
}
