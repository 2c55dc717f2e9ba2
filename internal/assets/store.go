// Package assets exposes named files in a fixed directory on the VM's
// filesystem. Membership comes from a memoized directory listing;
// mutations invalidate it so later checks see the change.
package assets

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/dockyard-vm/dockyard/internal/config"
	"github.com/dockyard-vm/dockyard/internal/shell"
	"github.com/dockyard-vm/dockyard/pkg/memo"
)

const memoKeyListing = "assets.listing"

type Store struct {
	runner shell.Runner
	cache  *memo.Cache
	vmName string
	dir    string
}

func NewStore(runner shell.Runner, cache *memo.Cache, vmConf config.VM, paths config.Paths) Store {
	return Store{
		runner: runner,
		cache:  cache,
		vmName: vmConf.Name,
		dir:    paths.AssetsDir,
	}
}

func (s Store) runOnVM(ctx context.Context, remote string) (string, error) {
	return s.runner.Run(ctx, fmt.Sprintf("docker-machine ssh %s %q", s.vmName, remote))
}

// listing returns the set of asset keys present on the VM, cached for
// the process lifetime or until a mutation invalidates it.
func (s Store) listing(ctx context.Context) (map[string]struct{}, error) {
	return memo.Do(s.cache, memoKeyListing, func() (map[string]struct{}, error) {
		out, err := s.runOnVM(ctx, fmt.Sprintf("ls %s", s.dir))
		if err != nil {
			return nil, err
		}

		ret := make(map[string]struct{})

		for _, line := range strings.Split(out, "\n") {
			key := strings.TrimSpace(line)
			if key != "" {
				ret[key] = struct{}{}
			}
		}

		return ret, nil
	})
}

// IsSet reports whether the asset file exists on the VM.
func (s Store) IsSet(ctx context.Context, key string) (bool, error) {
	keys, err := s.listing(ctx)
	if err != nil {
		return false, err
	}

	_, present := keys[key]

	return present, nil
}

// RequiredAbsent returns the required keys not currently present, in
// input order. Callers use it to fail fast before dependent work.
func (s Store) RequiredAbsent(ctx context.Context, required []string) ([]string, error) {
	keys, err := s.listing(ctx)
	if err != nil {
		return nil, err
	}

	ret := []string{}

	for _, key := range required {
		_, present := keys[key]
		if !present {
			ret = append(ret, key)
		}
	}

	return ret, nil
}

// VMPath returns the remote path for an asset key.
func (s Store) VMPath(key string) string {
	return path.Join(s.dir, key)
}

// Value reads the asset file contents from the VM.
func (s Store) Value(ctx context.Context, key string) (string, error) {
	return s.runOnVM(ctx, fmt.Sprintf("sudo cat %s", s.VMPath(key)))
}

// Remove deletes the asset file and invalidates the cached listing so
// IsSet reflects the removal immediately.
func (s Store) Remove(ctx context.Context, key string) error {
	_, err := s.runOnVM(ctx, fmt.Sprintf("sudo rm -f %s", s.VMPath(key)))
	if err != nil {
		return err
	}

	s.cache.Forget(memoKeyListing)

	return nil
}
