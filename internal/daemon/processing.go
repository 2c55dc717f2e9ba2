package daemon

import (
	"context"
	"errors"

	"github.com/dockyard-vm/dockyard/internal/common"
	"github.com/dockyard-vm/dockyard/pkg/dispatch"
	"github.com/dockyard-vm/dockyard/pkg/payload"
)

type registryProcessing struct {
	registry *payload.Registry
}

// NewRegistryProcessing is the main processor at the end of the
// decorator chain: it resolves the payload's symbolic key and runs the
// handler.
func NewRegistryProcessing(registry *payload.Registry) dispatch.Processing[payload.Payload] {
	return registryProcessing{registry: registry}
}

func (r registryProcessing) Process(ctx context.Context, p payload.Payload) (string, error) {
	out, err := p.Run(ctx, r.registry)
	if err != nil {
		unknown := payload.ErrUnknownCommand{}
		if errors.As(err, &unknown) {
			return "", common.NewErrDispatch(err, dispatch.UnknownCategory, "unresolvable command %s", p.Fn)
		}

		return "", common.NewErrDispatch(err, dispatch.ExecutionCategory, "command %s failed", p.Fn)
	}

	return out, nil
}
