package payload

import (
	"context"
	"reflect"
	"sort"
	"sync"
)

// HandlerFunc executes one remote command. The returned string is a
// human-readable result relayed back to the client.
type HandlerFunc func(ctx context.Context, args []any, kwargs map[string]any) (string, error)

// Registry maps qualified symbolic keys back to executable handlers.
// It is the single point translating a wire-level identifier into code.
// One instance is constructed per process and injected into the
// dispatch path.
type Registry struct {
	mu       sync.Mutex
	handlers map[string]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]HandlerFunc),
	}
}

// Register inserts fn under the key "<scope>.<name>". Re-registering
// the same handler is a no-op; a different handler under an occupied
// key returns ErrRegistryCollision, which callers must treat as fatal.
func (r *Registry) Register(scope, name string, fn HandlerFunc) error {
	key := scope + "." + name

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, present := r.handlers[key]
	if present {
		if reflect.ValueOf(existing).Pointer() == reflect.ValueOf(fn).Pointer() {
			return nil
		}

		return NewErrRegistryCollision(key)
	}

	r.handlers[key] = fn

	return nil
}

// Resolve returns the handler for key, or ErrUnknownCommand.
func (r *Registry) Resolve(key string) (HandlerFunc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	handler, present := r.handlers[key]
	if !present {
		return nil, NewErrUnknownCommand(key)
	}

	return handler, nil
}

// Keys lists the registered command keys, sorted.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ret := make([]string, 0, len(r.handlers))
	for key := range r.handlers {
		ret = append(ret, key)
	}

	sort.Strings(ret)

	return ret
}
