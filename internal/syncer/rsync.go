// Package syncer pushes local files and directories into the VM over
// rsync. It is a thin wrapper around external commands with no state of
// its own.
package syncer

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/go-logr/logr"

	"github.com/dockyard-vm/dockyard/internal/config"
	"github.com/dockyard-vm/dockyard/internal/shell"
)

type Syncer struct {
	runner shell.Runner
	vmName string
	conf   config.Sync
	logger logr.Logger
}

func NewSyncer(runner shell.Runner, vmConf config.VM, conf config.Sync, logger logr.Logger) Syncer {
	return Syncer{
		runner: runner,
		vmName: vmConf.Name,
		conf:   conf,
		logger: logger,
	}
}

func (s Syncer) ensureRemoteDirExists(ctx context.Context, remoteDir string) error {
	remote := fmt.Sprintf("sudo mkdir -p %s; sudo chown -R %s %s", remoteDir, s.conf.RemoteUser, remoteDir)

	_, err := s.runner.Run(ctx, fmt.Sprintf("docker-machine ssh %s %q", s.vmName, remote))

	return err
}

func (s Syncer) rsyncCommand(localPath, remotePath string, isDir bool) string {
	sshOpts := fmt.Sprintf("ssh -p %d -o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null -i %s",
		s.conf.SSHPort, s.conf.IdentityFile)

	suffix := ""
	if isDir {
		suffix = "/"
	}

	return fmt.Sprintf("rsync -e %q -az --exclude */.git --force %s%s %s@localhost:%s",
		sshOpts, strings.TrimRight(localPath, "/"), suffix, s.conf.RemoteUser, remotePath)
}

// SyncDirToVM mirrors a local directory into remoteDir on the VM.
func (s Syncer) SyncDirToVM(ctx context.Context, localDir, remoteDir string) error {
	err := s.ensureRemoteDirExists(ctx, remoteDir)
	if err != nil {
		return err
	}

	command := s.rsyncCommand(localDir, remoteDir, true)

	s.logger.V(1).Info("Executing rsync command", "command", command)

	_, err = s.runner.Run(ctx, command)

	return err
}

// SyncFileToVM copies a single local file to remotePath on the VM.
func (s Syncer) SyncFileToVM(ctx context.Context, localPath, remotePath string) error {
	err := s.ensureRemoteDirExists(ctx, path.Dir(remotePath))
	if err != nil {
		return err
	}

	command := s.rsyncCommand(localPath, remotePath, false)

	s.logger.V(1).Info("Executing rsync command", "command", command)

	_, err = s.runner.Run(ctx, command)

	return err
}
