package persistence

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Kind selects a storage strategy.
type Kind int

// Storage strategies.
const (
	// KindFile stores one payload per relative path under a root folder.
	KindFile Kind = iota
	// KindKeyValue stores one payload per key in a flat settings store.
	KindKeyValue
)

// DefaultSettingsFile is the settings database name used when Options leaves it empty.
const DefaultSettingsFile = "settings.db"

const defaultBufferSize = 16

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindKeyValue:
		return "keyValue"
	default:
		return "unknown"
	}
}

// ParseKind parses a backend name such as "file" or "keyValue".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "file", "files":
		return KindFile, nil
	case "keyvalue", "kv", "settings":
		return KindKeyValue, nil
	default:
		return KindFile, errors.Errorf("ParseKind: unknown backend %q", s)
	}
}

// Options configures Open.
type Options struct {
	Kind Kind

	// Root is the persistent root folder. Required.
	Root string

	// SettingsFile is the settings database path; relative paths resolve under Root.
	SettingsFile string

	// BufferSize is the command queue length of the settings Buffer.
	BufferSize uint
}

var openSettings = func(path string) (Backend, error) {
	s, err := OpenSettings(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Open returns the backend selected by o together with the kind actually in use.
// A key-value selection whose settings store is unavailable falls back to the
// file backend at o.Root.
func Open(o Options) (Backend, Kind, error) {
	if strings.TrimSpace(o.Root) == "" {
		return nil, o.Kind, errors.New("Open: root is required")
	}

	switch o.Kind {
	case KindFile:
		fs, err := NewFilesystem(o.Root)
		if err != nil {
			return nil, KindFile, errors.Wrap(err, "Open")
		}
		return fs, KindFile, nil

	case KindKeyValue:
		path := o.settingsPath()
		settings, err := openSettings(path)
		if errors.Is(err, ErrBackendUnavailable) {
			log.Warn().Str("root", o.Root).Str("settings", path).Msg("settings store unavailable, falling back to file backend")
			fs, fsErr := NewFilesystem(o.Root)
			if fsErr != nil {
				return nil, KindFile, errors.Wrap(fsErr, "Open fallback")
			}
			return fs, KindFile, nil
		}
		if err != nil {
			return nil, KindKeyValue, errors.Wrap(err, "Open")
		}

		size := o.BufferSize
		if size == 0 {
			size = defaultBufferSize
		}
		buf, err := NewBuffer(settings, size)
		if err != nil {
			_ = settings.Close()
			return nil, KindKeyValue, errors.Wrap(err, "Open")
		}
		return buf, KindKeyValue, nil

	default:
		return nil, o.Kind, errors.Errorf("Open: unknown backend kind %d", int(o.Kind))
	}
}

func (o Options) settingsPath() string {
	name := o.SettingsFile
	if name == "" {
		name = DefaultSettingsFile
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(o.Root, name)
}
