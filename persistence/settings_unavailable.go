//go:build nosettings

package persistence

import "github.com/pkg/errors"

// SettingsAvailable reports whether this build carries the key-value settings store.
const SettingsAvailable = false

// Settings is not compiled into nosettings builds.
type Settings struct{}

var _ Backend = (*Settings)(nil)

// OpenSettings always reports the settings store as unavailable.
func OpenSettings(path string) (*Settings, error) {
	return nil, &StorageError{
		Reason: ReasonBackendUnavailable,
		Op:     "OpenSettings",
		Err:    errors.Errorf("settings store not compiled in, cannot open %s", path),
	}
}

func (s *Settings) Close() error { return nil }

func (s *Settings) Read(key string) ([]byte, bool, error) { return nil, false, ErrBackendUnavailable }

func (s *Settings) Write(key string, payload []byte) error { return ErrBackendUnavailable }

func (s *Settings) Exists(key string) bool { return false }

func (s *Settings) Delete(key string) error { return ErrBackendUnavailable }

func (s *Settings) Keys() ([]string, error) { return nil, ErrBackendUnavailable }
