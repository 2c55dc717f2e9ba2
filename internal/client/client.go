// Package client talks to a running daemon over its unix socket. One
// payload per call, one response line back.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"

	"github.com/dockyard-vm/dockyard/internal/daemon"
	"github.com/dockyard-vm/dockyard/pkg/payload"
)

// Send serializes the payload, writes it as one line to the daemon
// socket and decodes the single-line response. A non-ok status comes
// back as an error carrying the daemon's message.
func Send(ctx context.Context, socket string, p payload.Payload) (string, error) {
	doc, err := p.Serialize()
	if err != nil {
		return "", err
	}

	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "unix", socket)
	if err != nil {
		return "", fmt.Errorf("failed to reach daemon at %s, is it running: %w", socket, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		err = conn.SetDeadline(deadline)
		if err != nil {
			return "", fmt.Errorf("failed to set connection deadline: %w", err)
		}
	}

	_, err = fmt.Fprintln(conn, doc)
	if err != nil {
		return "", fmt.Errorf("failed to send payload: %w", err)
	}

	reader := bufio.NewReader(conn)

	line, err := reader.ReadBytes('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read daemon response: %w", err)
	}

	var resp daemon.Response

	err = json.Unmarshal(line, &resp)
	if err != nil {
		return "", fmt.Errorf("failed to decode daemon response: %w", err)
	}

	if resp.Status != daemon.StatusOK {
		return "", fmt.Errorf("daemon rejected command %s: %s", p.Fn, resp.Error)
	}

	return resp.Output, nil
}
