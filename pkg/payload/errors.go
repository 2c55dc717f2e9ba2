package payload

import "fmt"

// ErrDeserialization

// ErrDeserialization reports wire bytes that do not decode to a valid
// payload. The partial structure is never returned alongside it.
type ErrDeserialization struct {
	error
}

func NewErrDeserialization(err error) ErrDeserialization {
	return ErrDeserialization{
		error: fmt.Errorf("failed to deserialize payload: %w", err),
	}
}

func (e ErrDeserialization) Unwrap() error {
	return e.error
}

// ErrRegistryCollision

// ErrRegistryCollision reports two distinct handlers claiming the same
// symbolic key. It is fatal at registration time, before any command
// can be dispatched.
type ErrRegistryCollision struct {
	error
	Key string
}

func NewErrRegistryCollision(key string) ErrRegistryCollision {
	return ErrRegistryCollision{
		error: fmt.Errorf("handler mapping key collision: %s, name one of the functions something else", key),
		Key:   key,
	}
}

func (e ErrRegistryCollision) Unwrap() error {
	return e.error
}

// ErrUnknownCommand

// ErrUnknownCommand reports a symbolic key with no registered handler.
type ErrUnknownCommand struct {
	error
	Key string
}

func NewErrUnknownCommand(key string) ErrUnknownCommand {
	return ErrUnknownCommand{
		error: fmt.Errorf("no handler registered for command %q", key),
		Key:   key,
	}
}

func (e ErrUnknownCommand) Unwrap() error {
	return e.error
}
