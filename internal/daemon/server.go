// Package daemon hosts the command loop: it accepts serialized
// payloads on a unix socket, resolves them through the registry and
// executes them behind the dispatch decorators. Policy for handler
// failures (logging, retry, metrics) lives here, never in the payload
// itself.
package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/dockyard-vm/dockyard/internal/config"
	"github.com/dockyard-vm/dockyard/pkg/dispatch"
	"github.com/dockyard-vm/dockyard/pkg/payload"
)

const maxLineBytes = 8 * 1024 * 1024

// Response is the wire reply for one dispatched payload.
type Response struct {
	Status string `json:"status"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

type Server struct {
	conf       config.Daemon
	processing dispatch.Processing[payload.Payload]

	metricsServer *http.Server
	logger        *logr.Logger
}

func NewServer(conf config.Daemon, processing dispatch.Processing[payload.Payload]) Server {
	return Server{
		conf:       conf,
		processing: processing,
	}
}

func (s Server) WithLogger(logger logr.Logger) Server {
	s.logger = &logger

	return s
}

func (s Server) WithMetricsServer(metricsServer *http.Server) Server {
	s.metricsServer = metricsServer

	return s
}

// Start listens until ctx is cancelled. The socket and the metrics
// endpoint share one lifecycle: either failing tears both down.
func (s Server) Start(ctx context.Context) error {
	err := os.MkdirAll(filepath.Dir(s.conf.Socket), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create socket dir: %w", err)
	}

	// A previous daemon may have left a stale socket behind.
	err = os.Remove(s.conf.Socket)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", s.conf.Socket)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.conf.Socket, err)
	}

	s.logInfo(0, "Listening for commands", "socket", s.conf.Socket)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		<-ctx.Done()

		listener.Close()

		if s.metricsServer != nil {
			s.metricsServer.Shutdown(context.Background())
		}

		return nil
	})

	group.Go(func() error {
		for {
			conn, err := listener.Accept()
			if err != nil {
				if ctx.Err() != nil {
					s.logInfo(0, "Context expired, stop accepting")

					return nil
				}

				return fmt.Errorf("failed to accept connection: %w", err)
			}

			go s.handleConn(ctx, conn)
		}
	})

	if s.metricsServer != nil {
		group.Go(func() error {
			err := s.metricsServer.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server failed: %w", err)
			}

			return nil
		})
	}

	return group.Wait()
}

func (s Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		s.respond(conn, s.handleLine(ctx, line))
	}
}

func (s Server) handleLine(ctx context.Context, line string) Response {
	p, err := payload.Deserialize(line)
	if err != nil { // Malformed input never crashes the daemon
		s.logError(err, "Failed to decode payload")

		return Response{Status: StatusError, Error: err.Error()}
	}

	// No version negotiation: mismatches are reported, not rejected.
	if p.ClientVersion != payload.Version && !p.SuppressWarnings {
		s.logInfo(1, "Client version differs", "clientVersion", p.ClientVersion, "daemonVersion", payload.Version)
	}

	s.logInfo(3, "Executing command", "fn", p.Fn)

	out, err := s.processing.Process(ctx, p)
	if err != nil {
		s.logError(err, "Command failed", "fn", p.Fn)

		return Response{Status: StatusError, Error: err.Error()}
	}

	return Response{Status: StatusOK, Output: out}
}

func (s Server) respond(conn net.Conn, resp Response) {
	err := json.NewEncoder(conn).Encode(resp)
	if err != nil {
		s.logError(err, "Failed to write response")
	}
}

func (s Server) logInfo(level int, msg string, keysAndValues ...any) {
	if s.logger == nil {
		return
	}

	s.logger.V(level).Info(msg, keysAndValues...)
}

func (s Server) logError(err error, msg string, keysAndValues ...any) {
	if s.logger == nil {
		return
	}

	s.logger.Error(err, msg, keysAndValues...)
}
