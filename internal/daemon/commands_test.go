package daemon_test

import (
	"context"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockyard-vm/dockyard/internal/assets"
	"github.com/dockyard-vm/dockyard/internal/config"
	"github.com/dockyard-vm/dockyard/internal/daemon"
	"github.com/dockyard-vm/dockyard/internal/syncer"
	"github.com/dockyard-vm/dockyard/internal/vm"
	"github.com/dockyard-vm/dockyard/pkg/memo"
	"github.com/dockyard-vm/dockyard/pkg/payload"
)

type fakeRunner struct {
	handler func(command string) (string, error)
}

func (f *fakeRunner) Run(ctx context.Context, command string) (string, error) {
	if f.handler == nil {
		return "", nil
	}

	return f.handler(command)
}

func newRegistry(t *testing.T, runner *fakeRunner) *payload.Registry {
	t.Helper()

	cache := memo.NewCache()
	vmConf := config.VM{Name: "dockyard"}
	paths := config.Paths{PersistDir: "/persist", CPDir: "/cp", AssetsDir: "/dockyard/assets"}

	prov := vm.NewProvisioner(runner, vmConf, paths, cache, logr.Discard())
	store := assets.NewStore(runner, cache, vmConf, paths)
	sync := syncer.NewSyncer(runner, vmConf, config.Sync{SSHPort: 2022, RemoteUser: "docker"}, logr.Discard())

	registry := payload.NewRegistry()
	require.NoError(t, daemon.RegisterAll(registry, prov, store, sync))

	return registry
}

func TestRegisterAllKeys(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	registry := newRegistry(t, &fakeRunner{})

	assert.Equal([]string{
		"assets.remove",
		"assets.required_absent",
		"assets.value",
		"sync.dir",
		"sync.file",
		"vm.initialize",
		"vm.status",
		"vm.stop",
	}, registry.Keys())
}

func TestRegisterAllIsIdempotent(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	runner := &fakeRunner{}
	cache := memo.NewCache()
	vmConf := config.VM{Name: "dockyard"}
	paths := config.Paths{}

	prov := vm.NewProvisioner(runner, vmConf, paths, cache, logr.Discard())
	store := assets.NewStore(runner, cache, vmConf, paths)
	sync := syncer.NewSyncer(runner, vmConf, config.Sync{}, logr.Discard())

	registry := payload.NewRegistry()
	assert.NoError(daemon.RegisterAll(registry, prov, store, sync))
	assert.Error(daemon.RegisterAll(registry, prov, store, sync))
}

func TestVMStatusStopped(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	runner := &fakeRunner{handler: func(command string) (string, error) {
		if strings.Contains(command, "list runningvms") {
			return "", nil
		}

		t.Fatalf("unexpected command on stopped VM: %s", command)

		return "", nil
	}}

	registry := newRegistry(t, runner)

	out, err := payload.New("vm.status", nil, nil).Run(context.Background(), registry)
	assert.NoError(err)
	assert.Equal("VM is stopped", out)
}

func TestVMStatusRunning(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	runner := &fakeRunner{handler: func(command string) (string, error) {
		switch {
		case strings.Contains(command, "list runningvms"):
			return `"dockyard" {uuid}`, nil
		case strings.Contains(command, "docker-machine ip"):
			return "192.168.99.100\n", nil
		case strings.Contains(command, "df /mnt/sda1"):
			return "/dev/sda1 19009224 2871144 15139752 16% /mnt/sda1", nil
		}

		return "", nil
	}}

	registry := newRegistry(t, runner)

	out, err := payload.New("vm.status", nil, nil).Run(context.Background(), registry)
	assert.NoError(err)
	assert.Contains(out, "VM is running")
	assert.Contains(out, "IP: 192.168.99.100")
	assert.Contains(out, "16%")
}

func TestRequiredAbsentArgDecoding(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	runner := &fakeRunner{handler: func(command string) (string, error) {
		if strings.Contains(command, "ls /dockyard/assets") {
			return "github_key\n", nil
		}

		return "", nil
	}}

	registry := newRegistry(t, runner)

	// JSON decoding hands lists over as []any, never []string.
	p := payload.New("assets.required_absent", []any{[]any{"github_key", "mac_address"}}, nil)

	out, err := p.Run(context.Background(), registry)
	assert.NoError(err)
	assert.Equal("mac_address", out)
}

func TestRequiredAbsentRejectsNonList(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	registry := newRegistry(t, &fakeRunner{})

	_, err := payload.New("assets.required_absent", []any{"github_key"}, nil).Run(context.Background(), registry)
	assert.ErrorContains(err, "must be a list")
}

func TestSyncDirArgDecoding(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	var commands []string

	runner := &fakeRunner{handler: func(command string) (string, error) {
		commands = append(commands, command)

		return "", nil
	}}

	registry := newRegistry(t, runner)

	out, err := payload.New("sync.dir", []any{"/home/dev/repo", "/cp/repo"}, nil).Run(context.Background(), registry)
	assert.NoError(err)
	assert.Equal("Synced /home/dev/repo to /cp/repo", out)
	assert.Len(commands, 2)
}
