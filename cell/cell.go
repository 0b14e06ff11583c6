// Package cell provides Cell, a typed value whose in-memory copy is kept in
// step with a persistence backend.
//
// A cell loads once at construction and from then on serves reads from memory.
// Writes are encoded and written through to the backend before the cached
// value changes, so the cache is never ahead of durable storage.
package cell

import (
	"sync"

	"github.com/jrsteele09/go-persistcell/codec"
	"github.com/jrsteele09/go-persistcell/config"
	"github.com/jrsteele09/go-persistcell/persistence"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrKeyInvalid is returned by New for an empty key.
var ErrKeyInvalid = errors.New("cell key must not be empty")

// Cell holds one persisted value of type V.
// It is safe for concurrent use; writes to a cell are serialized.
type Cell[V any] struct {
	key          string
	backend      persistence.Backend
	codec        codec.Codec[V]
	defaultValue V

	// writeLock is held across encode, backend write, cache update and notification.
	writeLock sync.Mutex
	lock      sync.RWMutex
	cache     V
	observers []observer[V]
	nextID    uint64
}

// New creates a cell for key, loading its value from backend.
// A nil backend selects the file backend at the configured persistent root.
// A key with no stored value, or whose stored payload cannot be read or
// decoded, starts from defaultValue. Loading never writes to the backend.
func New[V any](key string, backend persistence.Backend, defaultValue V, options ...Option[V]) (*Cell[V], error) {
	if key == "" {
		return nil, ErrKeyInvalid
	}
	if backend == nil {
		fs, err := defaultBackend()
		if err != nil {
			return nil, errors.Wrap(err, "cell.New default backend")
		}
		backend = fs
	}

	c := &Cell[V]{
		key:          key,
		backend:      backend,
		codec:        codec.JSON[V]{},
		defaultValue: defaultValue,
	}
	for _, opt := range options {
		opt(c)
	}

	c.cache = c.load()
	return c, nil
}

func defaultBackend() (persistence.Backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return persistence.NewFilesystem(cfg.Root)
}

func (c *Cell[V]) load() V {
	payload, ok, err := c.backend.Read(c.key)
	if err != nil {
		log.Warn().Err(err).Str("key", c.key).Msg("cell load: read failed, using default")
		return c.defaultValue
	}
	if !ok {
		log.Debug().Str("key", c.key).Msg("cell load: no stored value, using default")
		return c.defaultValue
	}
	v, err := c.codec.Decode(payload)
	if err != nil {
		log.Warn().Err(err).Str("key", c.key).Str("codec", c.codec.Name()).Msg("cell load: stored value could not be decoded, using default")
		return c.defaultValue
	}
	return v
}

// Key returns the storage key.
func (c *Cell[V]) Key() string {
	return c.key
}

// Default returns the value used when nothing valid is stored.
func (c *Cell[V]) Default() V {
	return c.defaultValue
}

// Get returns the cached value. It never touches the backend.
func (c *Cell[V]) Get() V {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.cache
}

// Set encodes v and writes it to the backend. The cached value changes, and
// observers are notified, only once the backend write has succeeded.
// On failure the cached value is unchanged and the error is returned:
// a *codec.EncodeError when v cannot be encoded, otherwise the backend error.
func (c *Cell[V]) Set(v V) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	return c.set(v)
}

// Update applies fn to the current value and sets the result, holding the
// cell's write lock so concurrent updates do not interleave.
func (c *Cell[V]) Update(fn func(current V) V) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	return c.set(fn(c.Get()))
}

// Reset writes the default value.
func (c *Cell[V]) Reset() error {
	return c.Set(c.defaultValue)
}

func (c *Cell[V]) set(v V) error {
	payload, err := c.codec.Encode(v)
	if err != nil {
		return errors.Wrapf(err, "cell %q encode", c.key)
	}
	if err := c.backend.Write(c.key, payload); err != nil {
		log.Error().Err(err).Str("key", c.key).Msg("cell write failed, value unchanged")
		return errors.Wrapf(err, "cell %q write", c.key)
	}

	c.lock.Lock()
	c.cache = v
	observers := make([]observer[V], len(c.observers))
	copy(observers, c.observers)
	c.lock.Unlock()

	for _, o := range observers {
		o.fn(v)
	}
	return nil
}
