// Package payload encodes a remote-callable invocation as data. A
// function cannot cross a process boundary; a symbolic key can. The
// client serializes a Payload, the daemon deserializes it and resolves
// the key back to code through a Registry.
package payload

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Version is stamped into every payload as client_version. A consumer
// may compare it against its own version out of band; this package does
// not enforce the check.
var Version = "0.1.0"

type Payload struct {
	Fn               string         `json:"fn"`
	ClientVersion    string         `json:"client_version"`
	SuppressWarnings bool           `json:"suppress_warnings"`
	Args             []any          `json:"args"`
	Kwargs           map[string]any `json:"kwargs"`

	// RunOnDaemon controls client-side routing only and never goes
	// over the wire.
	RunOnDaemon bool `json:"-"`
}

// New binds a symbolic function key and call arguments. Argument values
// must stay within the serializable set: primitives, sequences and
// string-keyed mappings thereof.
func New(fn string, args []any, kwargs map[string]any) Payload {
	return Payload{
		Fn:            fn,
		ClientVersion: Version,
		RunOnDaemon:   true,
		Args:          args,
		Kwargs:        kwargs,
	}
}

// Serialize encodes the payload for transport. The JSON document is
// wrapped in base64 so the result survives text-oriented or
// binary-unsafe transports and contains no newlines. Deserialize
// reverses it exactly.
func (p Payload) Serialize() (string, error) {
	doc, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload doc: %w", err)
	}

	return base64.StdEncoding.EncodeToString(doc), nil
}

// Deserialize is the inverse of Serialize. Malformed or truncated input
// yields ErrDeserialization rather than a partially-valid payload.
func Deserialize(doc string) (Payload, error) {
	raw, err := base64.StdEncoding.DecodeString(doc)
	if err != nil {
		return Payload{}, NewErrDeserialization(err)
	}

	var ret Payload

	err = json.Unmarshal(raw, &ret)
	if err != nil {
		return Payload{}, NewErrDeserialization(err)
	}

	if ret.Fn == "" {
		return Payload{}, NewErrDeserialization(fmt.Errorf("missing fn key"))
	}

	ret.RunOnDaemon = true

	return ret, nil
}

// Equal reports whether both payloads name the same function with the
// same positional and keyword arguments. Version and flags are
// excluded, so payloads stay comparable across protocol version drift.
// Arguments are compared through their canonical JSON encoding, so a
// payload meets its own wire round trip as equal.
func (p Payload) Equal(other Payload) bool {
	a, err := p.identity()
	if err != nil {
		return false
	}

	b, err := other.identity()
	if err != nil {
		return false
	}

	return bytes.Equal(a, b)
}

func (p Payload) identity() ([]byte, error) {
	return json.Marshal(struct {
		Fn     string         `json:"fn"`
		Args   []any          `json:"args"`
		Kwargs map[string]any `json:"kwargs"`
	}{
		Fn:     p.Fn,
		Args:   p.Args,
		Kwargs: p.Kwargs,
	})
}

// Run resolves the symbolic key and invokes the handler with the stored
// arguments. Handler errors propagate unmodified; logging and retry
// policy belong to the daemon loop.
func (p Payload) Run(ctx context.Context, registry *Registry) (string, error) {
	handler, err := registry.Resolve(p.Fn)
	if err != nil {
		return "", err
	}

	return handler(ctx, p.Args, p.Kwargs)
}
