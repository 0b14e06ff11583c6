// Package codec converts typed values to and from the payload bytes that a
// persistence backend stores.
package codec

import (
	"fmt"

	"github.com/pkg/errors"
)

// Codec encodes and decodes values of type V.
// Implementations must be pure: Decode(Encode(v)) == v for every value the
// format can represent.
type Codec[V any] interface {
	// Encode serializes v. Failures are reported as *EncodeError.
	Encode(v V) ([]byte, error)

	// Decode deserializes payload into a V. Failures are reported as *DecodeError.
	Decode(payload []byte) (V, error)

	// Name identifies the codec in logs and errors.
	Name() string
}

// EncodeError is returned when a value cannot be represented by a codec.
type EncodeError struct {
	Codec string
	Err   error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("%s encode: %v", e.Codec, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// DecodeError is returned when a payload does not match the expected shape.
type DecodeError struct {
	Codec string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s decode: %v", e.Codec, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsEncodeError reports whether err wraps an *EncodeError.
func IsEncodeError(err error) bool {
	var target *EncodeError
	return errors.As(err, &target)
}

// IsDecodeError reports whether err wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var target *DecodeError
	return errors.As(err, &target)
}

// ErrEmptyPayload is the cause of a DecodeError for a zero-length payload.
var ErrEmptyPayload = errors.New("empty payload")

func encodeGuard(name string, fn func() ([]byte, error)) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = &EncodeError{Codec: name, Err: errors.Errorf("panic: %v", r)}
		}
	}()
	data, err = fn()
	if err != nil {
		return nil, &EncodeError{Codec: name, Err: err}
	}
	return data, nil
}
