package dispatch

import "context"

// Processing executes one unit of dispatched work and returns a
// human-readable result for the client.
type Processing[Payload any] interface {
	Process(ctx context.Context, payload Payload) (string, error)
}

// Func adapts a function to the Processing interface.
type Func[Payload any] func(ctx context.Context, payload Payload) (string, error)

func (f Func[Payload]) Process(ctx context.Context, payload Payload) (string, error) {
	return f(ctx, payload)
}
