package persistence

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	dirMode      = 0700
	fileMode     = 0600
	tempPrefix   = ".persist-"
	tempSuffix   = ".tmp"
	keySeparator = "/"
)

// Filesystem stores one payload per file under a root folder.
// Keys are slash separated relative paths; intermediate folders are created on write.
type Filesystem struct {
	root string
}

var _ Backend = (*Filesystem)(nil)

// NewFilesystem creates a Filesystem backend rooted at folder.
// The folder itself is created lazily by the first write.
func NewFilesystem(folder string) (*Filesystem, error) {
	if strings.TrimSpace(folder) == "" {
		return nil, errors.New("NewFilesystem: folder is required")
	}
	root, err := filepath.Abs(folder)
	if err != nil {
		return nil, errors.Wrap(err, "NewFilesystem filepath.Abs")
	}
	return &Filesystem{root: root}, nil
}

// Root returns the absolute root folder.
func (fs *Filesystem) Root() string {
	return fs.root
}

// Location returns the file that holds key's payload.
func (fs *Filesystem) Location(key string) (string, error) {
	return fs.path(key)
}

// Close closes the backend. Files are never held open between calls.
func (fs *Filesystem) Close() error {
	return nil
}

// Read reads the payload stored under key.
func (fs *Filesystem) Read(key string) ([]byte, bool, error) {
	p, err := fs.path(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storageError("Filesystem.Read os.ReadFile", key, ReasonIOFailure, err)
	}
	return data, true, nil
}

// Write replaces key's payload by writing a temp file beside it and renaming it into place.
func (fs *Filesystem) Write(key string, payload []byte) error {
	p, err := fs.path(key)
	if err != nil {
		return err
	}

	folder := filepath.Dir(p)
	if err := os.MkdirAll(folder, dirMode); err != nil {
		return storageError("Filesystem.Write os.MkdirAll", key, ReasonNotFound, err)
	}

	tmp := filepath.Join(folder, tempPrefix+uuid.NewString()+tempSuffix)
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, fileMode)
	if err != nil {
		return storageError("Filesystem.Write os.OpenFile", key, ReasonIOFailure, err)
	}

	_, werr := f.Write(payload)
	if werr == nil {
		werr = f.Sync()
	}
	cerr := f.Close()
	if werr != nil {
		os.Remove(tmp)
		return storageError("Filesystem.Write write temp", key, ReasonIOFailure, werr)
	}
	if cerr != nil {
		os.Remove(tmp)
		return storageError("Filesystem.Write close temp", key, ReasonIOFailure, cerr)
	}

	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return storageError("Filesystem.Write os.Rename", key, ReasonIOFailure, err)
	}
	return nil
}

// Exists reports whether key holds a regular file.
func (fs *Filesystem) Exists(key string) bool {
	p, err := fs.path(key)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// Delete removes key's file.
func (fs *Filesystem) Delete(key string) error {
	p, err := fs.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return storageError("Filesystem.Delete os.Remove", key, ReasonIOFailure, err)
	}
	return nil
}

// Keys walks the root and returns the key of every stored payload.
func (fs *Filesystem) Keys() ([]string, error) {
	keys := make([]string, 0)
	err := filepath.WalkDir(fs.root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if p == fs.root && errors.Is(err, os.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if !d.Type().IsRegular() || isTempFile(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(fs.root, p)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, storageError("Filesystem.Keys filepath.WalkDir", "", ReasonIOFailure, err)
	}
	return keys, nil
}

// path maps key to a file below the root, rejecting keys that escape it.
func (fs *Filesystem) path(key string) (string, error) {
	if key == "" || strings.ContainsRune(key, 0) || strings.HasPrefix(key, keySeparator) || filepath.IsAbs(key) {
		return "", errors.Wrapf(ErrKeyInvalid, "Filesystem key %q", key)
	}
	if isTempFile(filepath.Base(key)) {
		return "", errors.Wrapf(ErrKeyInvalid, "Filesystem key %q uses the reserved temp file pattern", key)
	}
	joined := filepath.Join(fs.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(fs.root, joined)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Wrapf(ErrKeyInvalid, "Filesystem key %q escapes the root", key)
	}
	return joined, nil
}

func isTempFile(name string) bool {
	return strings.HasPrefix(name, tempPrefix) && strings.HasSuffix(name, tempSuffix)
}
