package persistence

import (
	"fmt"
	"io/fs"

	"github.com/pkg/errors"
)

// Reason classifies why a storage operation failed.
type Reason int

// Storage failure reasons.
const (
	ReasonIOFailure Reason = iota + 1
	ReasonPermissionDenied
	ReasonNotFound // a parent path could not be created or resolved at write time
	ReasonBackendUnavailable
)

func (r Reason) String() string {
	switch r {
	case ReasonPermissionDenied:
		return "permissionDenied"
	case ReasonNotFound:
		return "notFound"
	case ReasonIOFailure:
		return "ioFailure"
	case ReasonBackendUnavailable:
		return "backendUnavailable"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// StorageError is returned by backends for failed operations.
type StorageError struct {
	Reason Reason
	Op     string
	Key    string
	Err    error
}

func (e *StorageError) Error() string {
	msg := e.Reason.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Key != "" {
		msg += fmt.Sprintf(" key %q", e.Key)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is matches the reason sentinels below, so errors.Is(err, ErrPermissionDenied)
// holds for any StorageError carrying that reason.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok || t.Op != "" || t.Key != "" || t.Err != nil {
		return false
	}
	return e.Reason == t.Reason
}

// Reason sentinels for use with errors.Is.
var (
	ErrPermissionDenied   = &StorageError{Reason: ReasonPermissionDenied}
	ErrNotFound           = &StorageError{Reason: ReasonNotFound}
	ErrIOFailure          = &StorageError{Reason: ReasonIOFailure}
	ErrBackendUnavailable = &StorageError{Reason: ReasonBackendUnavailable}
)

var (
	// ErrKeyInvalid is returned when a backend cannot map a key to a storage location.
	ErrKeyInvalid = errors.New("key invalid")

	// ErrClosed is returned by a Buffer after Close.
	ErrClosed = errors.New("backend closed")
)

// ReasonOf returns the Reason carried by err, or 0 when err is not a StorageError.
func ReasonOf(err error) Reason {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Reason
	}
	return 0
}

// storageError wraps err, promoting permission failures over the fallback reason.
func storageError(op, key string, fallback Reason, err error) *StorageError {
	reason := fallback
	if errors.Is(err, fs.ErrPermission) {
		reason = ReasonPermissionDenied
	}
	return &StorageError{Reason: reason, Op: op, Key: key, Err: err}
}
