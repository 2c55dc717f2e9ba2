package vm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dockyard-vm/dockyard/pkg/memo"
)

// Cache keys for the niladic remote lookups.
const (
	memoKeyIP       = "vm.ip"
	memoKeyBridgeIP = "vm.bridge-ip"
	memoKeyHostIP   = "vm.host-ip"
)

// ErrLookupNotFound reports a value structurally absent from
// otherwise-successful probe output, as opposed to a command failure.
var ErrLookupNotFound = errors.New("lookup not found")

func NewErrLookupNotFound(reason string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrLookupNotFound, fmt.Sprintf(reason, args...))
}

// IP returns the VM's IP as reported by docker-machine, cached for the
// process lifetime.
func (p *Provisioner) IP(ctx context.Context) (string, error) {
	return memo.Do(p.cache, memoKeyIP, func() (string, error) {
		out, err := p.runner.Run(ctx, fmt.Sprintf("docker-machine ip %s", p.conf.Name))
		if err != nil {
			return "", err
		}

		return strings.TrimSpace(out), nil
	})
}

// BridgeIP returns the docker bridge IP inside the VM, cached for the
// process lifetime.
func (p *Provisioner) BridgeIP(ctx context.Context) (string, error) {
	return memo.Do(p.cache, memoKeyBridgeIP, func() (string, error) {
		out, err := p.runOnVM(ctx, "ip route | grep docker0 | awk '{print $NF}'")
		if err != nil {
			return "", err
		}

		ret := strings.TrimSpace(out)
		if ret == "" {
			return "", NewErrLookupNotFound("no docker bridge IP on %s, VM may not be fully initialized", p.conf.Name)
		}

		return ret, nil
	})
}

// HostOnlyAdapter returns the name of the host-only adapter attached to
// the VM.
func (p *Provisioner) HostOnlyAdapter(ctx context.Context) (string, error) {
	lines, err := p.vmInfo(ctx)
	if err != nil {
		return "", err
	}

	for _, line := range lines {
		if !strings.HasPrefix(line, "hostonlyadapter") {
			continue
		}

		_, value, found := strings.Cut(line, "=")
		if found {
			return strings.Trim(value, `"`), nil
		}
	}

	return "", NewErrLookupNotFound("no host-only adapter configured for %s", p.conf.Name)
}

// HostIP returns the host's IP on the VM's host-only network, cached
// for the process lifetime.
func (p *Provisioner) HostIP(ctx context.Context) (string, error) {
	return memo.Do(p.cache, memoKeyHostIP, func() (string, error) {
		adapter, err := p.HostOnlyAdapter(ctx)
		if err != nil {
			return "", err
		}

		out, err := p.runner.Run(ctx, "VBoxManage list hostonlyifs")
		if err != nil {
			return "", err
		}

		inAdapterBlock := false

		for _, line := range strings.Split(out, "\n") {
			if strings.HasPrefix(line, "Name") {
				inAdapterBlock = strings.Contains(line, adapter)
			}

			if inAdapterBlock && strings.HasPrefix(line, "IPAddress") {
				fields := strings.Fields(line)
				if len(fields) >= 2 {
					return fields[1], nil
				}
			}
		}

		return "", NewErrLookupNotFound("host IP on host-only network %s not found", adapter)
	})
}

// ResetLookups drops every cached lookup, forcing re-query on next use.
func (p *Provisioner) ResetLookups() {
	p.cache.Reset()
}
