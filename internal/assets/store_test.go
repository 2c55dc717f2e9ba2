package assets_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dockyard-vm/dockyard/internal/assets"
	"github.com/dockyard-vm/dockyard/internal/config"
	"github.com/dockyard-vm/dockyard/pkg/memo"
)

type fakeRunner struct {
	commands []string
	handler  func(command string) (string, error)
}

func (f *fakeRunner) Run(ctx context.Context, command string) (string, error) {
	f.commands = append(f.commands, command)

	return f.handler(command)
}

func (f *fakeRunner) count(substring string) int {
	ret := 0

	for _, command := range f.commands {
		if strings.Contains(command, substring) {
			ret++
		}
	}

	return ret
}

func newStore(runner *fakeRunner) assets.Store {
	return assets.NewStore(runner, memo.NewCache(),
		config.VM{Name: "dockyard"},
		config.Paths{AssetsDir: "/dockyard/assets"},
	)
}

func TestIsSetUsesMemoizedListing(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	runner := &fakeRunner{handler: func(command string) (string, error) {
		return "github_key\nnpm_token\n", nil
	}}

	store := newStore(runner)

	set, err := store.IsSet(context.Background(), "github_key")
	assert.NoError(err)
	assert.True(set)

	set, err = store.IsSet(context.Background(), "missing")
	assert.NoError(err)
	assert.False(set)

	assert.Equal(1, runner.count("ls /dockyard/assets"))
}

func TestRequiredAbsent(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	runner := &fakeRunner{handler: func(command string) (string, error) {
		return "b\n", nil
	}}

	store := newStore(runner)

	absent, err := store.RequiredAbsent(context.Background(), []string{"a", "b"})
	assert.NoError(err)
	assert.Equal([]string{"a"}, absent)
}

func TestValue(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	runner := &fakeRunner{handler: func(command string) (string, error) {
		if strings.Contains(command, "sudo cat") {
			return "ssh-rsa AAAA...", nil
		}

		return "", nil
	}}

	store := newStore(runner)

	value, err := store.Value(context.Background(), "github_key")
	assert.NoError(err)
	assert.Equal("ssh-rsa AAAA...", value)
	assert.Equal(1, runner.count("sudo cat /dockyard/assets/github_key"))
}

func TestRemoveInvalidatesListing(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	removed := false

	runner := &fakeRunner{handler: func(command string) (string, error) {
		switch {
		case strings.Contains(command, "sudo rm -f"):
			removed = true

			return "", nil
		case strings.Contains(command, "ls "):
			if removed {
				return "b\n", nil
			}

			return "a\nb\n", nil
		default:
			return "", nil
		}
	}}

	store := newStore(runner)

	set, err := store.IsSet(context.Background(), "a")
	assert.NoError(err)
	assert.True(set)

	assert.NoError(store.Remove(context.Background(), "a"))
	assert.Equal(1, runner.count("sudo rm -f /dockyard/assets/a"))

	// The cached listing was invalidated, so membership reflects the
	// removal instead of reporting stale state.
	set, err = store.IsSet(context.Background(), "a")
	assert.NoError(err)
	assert.False(set)

	assert.Equal(2, runner.count("ls /dockyard/assets"))
}
