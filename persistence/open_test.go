package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	testCases := []struct {
		input string
		kind  Kind
		error bool
	}{
		{input: "", kind: KindFile},
		{input: "file", kind: KindFile},
		{input: " FILE ", kind: KindFile},
		{input: "keyValue", kind: KindKeyValue},
		{input: "kv", kind: KindKeyValue},
		{input: "settings", kind: KindKeyValue},
		{input: "s3", error: true},
	}

	for _, test := range testCases {
		t.Run(test.input, func(t *testing.T) {
			kind, err := ParseKind(test.input)
			if test.error {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.kind, kind)
		})
	}
	assert.Equal(t, "file", KindFile.String())
	assert.Equal(t, "keyValue", KindKeyValue.String())
}

func TestOpen_RequiresRoot(t *testing.T) {
	_, _, err := Open(Options{Kind: KindFile})
	assert.Error(t, err)
}

func TestOpen_UnknownKind(t *testing.T) {
	_, _, err := Open(Options{Kind: Kind(42), Root: testDataDir})
	assert.Error(t, err)
}

func TestOpen_File(t *testing.T) {
	root := filepath.Join(testDataDir, "test_open_file")
	defer os.RemoveAll(root)

	b, kind, err := Open(Options{Kind: KindFile, Root: root})
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, KindFile, kind)
	assert.IsType(t, &Filesystem{}, b)
}

func TestOpen_KeyValue(t *testing.T) {
	if !SettingsAvailable {
		t.Skip("settings store not compiled in")
	}
	root := filepath.Join(testDataDir, "test_open_kv")
	defer os.RemoveAll(root)

	b, kind, err := Open(Options{Kind: KindKeyValue, Root: root})
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, KindKeyValue, kind)
	assert.IsType(t, &Buffer{}, b)

	require.NoError(t, b.Write("k", []byte("v")))
	_, err = os.Stat(filepath.Join(root, DefaultSettingsFile))
	assert.NoError(t, err, "settings database lives under the root")
}

func TestOpen_KeyValueUnavailableFallsBackToFile(t *testing.T) {
	defer func(f func(string) (Backend, error)) { openSettings = f }(openSettings)
	openSettings = func(path string) (Backend, error) {
		return nil, &StorageError{Reason: ReasonBackendUnavailable, Op: "OpenSettings"}
	}

	root := filepath.Join(testDataDir, "test_open_fallback")
	defer os.RemoveAll(root)

	b, kind, err := Open(Options{Kind: KindKeyValue, Root: root})
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, KindFile, kind)
	assert.IsType(t, &Filesystem{}, b)

	require.NoError(t, b.Write("k", []byte("v")))
	payload, ok, err := b.Read("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), payload)
}

func TestOpen_KeyValueOtherFailuresPropagate(t *testing.T) {
	defer func(f func(string) (Backend, error)) { openSettings = f }(openSettings)
	openSettings = func(path string) (Backend, error) {
		return nil, &StorageError{Reason: ReasonPermissionDenied, Op: "OpenSettings", Err: errors.New("denied")}
	}

	_, _, err := Open(Options{Kind: KindKeyValue, Root: testDataDir})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestOptions_SettingsPath(t *testing.T) {
	assert.Equal(t, filepath.Join("root", DefaultSettingsFile), Options{Root: "root"}.settingsPath())
	assert.Equal(t, filepath.Join("root", "prefs.db"), Options{Root: "root", SettingsFile: "prefs.db"}.settingsPath())
	abs := filepath.Join(string(filepath.Separator), "var", "prefs.db")
	assert.Equal(t, abs, Options{Root: "root", SettingsFile: abs}.settingsPath())
}
