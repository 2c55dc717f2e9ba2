// Package shell runs external commands for the provisioner and the
// asset store. Commands are given as single strings; quoted segments
// stay intact, which keeps remote `docker-machine ssh` invocations as
// one argument.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"
	"syscall"

	"github.com/vladimirvivien/gexe/exec"
)

type Runner interface {
	Run(ctx context.Context, command string) (string, error)
}

// GexeRunner executes commands through gexe. When demoteUser is set and
// the process runs as root, children are started with that user's
// credentials instead; demotion never changes what is run, only who
// runs it.
type GexeRunner struct {
	demoteUser string
}

func NewRunner() GexeRunner {
	return GexeRunner{}
}

// NewDemotedRunner returns a runner that executes every command as the
// given less-privileged user.
func NewDemotedRunner(username string) GexeRunner {
	return GexeRunner{demoteUser: username}
}

// Run executes command and returns its combined output. A nonzero exit
// yields ErrCommandExecution carrying the command and captured output.
func (r GexeRunner) Run(ctx context.Context, command string) (string, error) {
	stdout := bytes.NewBufferString("")
	stderr := bytes.NewBufferString("")

	proc := exec.NewProcWithContext(ctx, command)
	proc.Command().Stdout = stdout
	proc.Command().Stderr = stderr

	if r.demoteUser != "" && os.Geteuid() == 0 {
		credential, err := lookupCredential(r.demoteUser)
		if err != nil {
			return "", fmt.Errorf("failed to demote to user %q: %w", r.demoteUser, err)
		}

		proc.Command().SysProcAttr = &syscall.SysProcAttr{Credential: credential}
	}

	proc.Start().Wait()

	output := strings.TrimRight(stdout.String()+stderr.String(), "\n")

	err := proc.Err()
	if err != nil {
		return output, NewErrCommandExecution(err, command, output)
	}

	return output, nil
}

func lookupCredential(username string) (*syscall.Credential, error) {
	ret, err := user.Lookup(username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	uid, err := strconv.ParseUint(ret.Uid, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to parse uid %q: %w", ret.Uid, err)
	}

	gid, err := strconv.ParseUint(ret.Gid, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gid %q: %w", ret.Gid, err)
	}

	return &syscall.Credential{Uid: uint32(uid), Gid: uint32(gid)}, nil
}
