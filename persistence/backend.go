// Package persistence provides durable byte-level storage for named payloads.
package persistence

// Backend defines the storage contract shared by every persistence strategy.
//
// Read: Retrieves the payload stored under a key.
// A key that was never written is reported as ok == false with a nil error.
//
// Write: Replaces the payload stored under a key.
// Writes are atomic: a failed write leaves the previous payload readable.
//
// Exists: Reports whether a payload is stored under a key.
//
// Delete: Removes a key. Deleting a missing key is not an error.
//
// Keys: Lists every stored key.
type Backend interface {

	// Read returns the payload stored under key.
	Read(key string) (payload []byte, ok bool, err error)

	// Write stores payload under key, replacing any previous payload.
	Write(key string, payload []byte) error

	// Exists reports whether key holds a payload.
	Exists(key string) bool

	// Delete removes the payload stored under key.
	Delete(key string) error

	// Keys returns every key that holds a payload.
	Keys() ([]string, error)

	// Close releases any resources held by the backend.
	Close() error
}
