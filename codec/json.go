package codec

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// JSON encodes values with encoding/json.
// Non-finite floats and cyclic values fail to encode.
type JSON[V any] struct {
	// Strict rejects payloads that carry fields V does not declare.
	Strict bool
}

// Name returns "json".
func (JSON[V]) Name() string { return "json" }

// Encode marshals v.
func (c JSON[V]) Encode(v V) ([]byte, error) {
	return encodeGuard(c.Name(), func() ([]byte, error) {
		return json.Marshal(v)
	})
}

// Decode unmarshals exactly one JSON value from payload.
// A bare null is rejected unless V is a pointer, interface, map or slice.
func (c JSON[V]) Decode(payload []byte) (V, error) {
	var v V
	if len(bytes.TrimSpace(payload)) == 0 {
		return v, &DecodeError{Codec: c.Name(), Err: ErrEmptyPayload}
	}
	if !nullable[V]() && isNullPayload(bytes.TrimSpace(payload), jsonNull) {
		return v, &DecodeError{Codec: c.Name(), Err: ErrNullValue}
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	if c.Strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&v); err != nil {
		var zero V
		return zero, &DecodeError{Codec: c.Name(), Err: err}
	}
	if dec.More() {
		var zero V
		return zero, &DecodeError{Codec: c.Name(), Err: errors.New("trailing data after value")}
	}
	return v, nil
}
