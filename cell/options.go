package cell

import "github.com/jrsteele09/go-persistcell/codec"

// Option configures a Cell.
// Options are intended to be passed to New.
type Option[V any] func(c *Cell[V])

// WithCodec replaces the default JSON codec.
//
// Example:
//
//	cell.New("session", backend, Session{}, cell.WithCodec[Session](codec.CBOR[Session]{}))
func WithCodec[V any](cdc codec.Codec[V]) Option[V] {
	return func(c *Cell[V]) {
		if cdc != nil {
			c.codec = cdc
		}
	}
}
