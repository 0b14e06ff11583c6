package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// CBOR encodes values as RFC 8949 CBOR.
type CBOR[V any] struct{}

// Name returns "cbor".
func (CBOR[V]) Name() string { return "cbor" }

// Encode marshals v. Cyclic values fail with ErrCycle instead of recursing forever.
func (c CBOR[V]) Encode(v V) ([]byte, error) {
	return encodeGuard(c.Name(), func() ([]byte, error) {
		if err := checkCycles(v); err != nil {
			return nil, err
		}
		return cbor.Marshal(v)
	})
}

// Decode unmarshals a single CBOR data item. Trailing bytes are an error, as is
// null or undefined when V cannot hold it.
func (c CBOR[V]) Decode(payload []byte) (V, error) {
	var v V
	if len(payload) == 0 {
		return v, &DecodeError{Codec: c.Name(), Err: ErrEmptyPayload}
	}
	if !nullable[V]() && isNullPayload(payload, cborNull, cborUndefined) {
		return v, &DecodeError{Codec: c.Name(), Err: ErrNullValue}
	}
	if err := cbor.Unmarshal(payload, &v); err != nil {
		var zero V
		return zero, &DecodeError{Codec: c.Name(), Err: err}
	}
	return v, nil
}
