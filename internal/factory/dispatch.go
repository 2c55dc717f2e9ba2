package factory

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dockyard-vm/dockyard/pkg/dispatch"
	"github.com/dockyard-vm/dockyard/pkg/payload"
)

/*
 * DecorateDispatch decorates the command dispatch as follow:
 *
 * panic --> duration --> error count --> retry --> main (registry execution)
 */
func DecorateDispatch(mainProcessing dispatch.Processing[payload.Payload], registry prometheus.Registerer) (dispatch.Processing[payload.Payload], error) {
	ret := mainProcessing

	ret = dispatch.NewRetryProcessing(ret, dispatch.RetryConfig{MaxAttempt: 3})

	ret, err := dispatch.NewErrorCountProcessing(ret, registry, dispatch.MetricsConfig{Namespace: "dockyard"})
	if err != nil {
		return nil, fmt.Errorf("failed to create error count processor: %w", err)
	}

	ret, err = dispatch.NewDurationMetricsDecoratorProcessing(ret, registry, clockwork.NewRealClock(), dispatch.MetricsConfig{Namespace: "dockyard"})
	if err != nil {
		return nil, fmt.Errorf("failed to create duration metrics processor: %w", err)
	}

	ret = dispatch.NewPanicHandlerProcessing(ret)

	return ret, nil
}
