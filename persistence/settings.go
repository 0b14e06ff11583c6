//go:build !nosettings

package persistence

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// SettingsAvailable reports whether this build carries the key-value settings store.
const SettingsAvailable = true

const settingsSchema = `
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at INTEGER NOT NULL
);
`

var nowFunc = time.Now

// Settings stores one payload per key in a flat SQLite table.
type Settings struct {
	sqlDB *sql.DB
}

var _ Backend = (*Settings)(nil)

// OpenSettings opens, or creates, the settings database at path.
func OpenSettings(path string) (*Settings, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("OpenSettings: path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), dirMode); err != nil {
		return nil, storageError("OpenSettings os.MkdirAll", "", ReasonNotFound, err)
	}

	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, sqliteError("OpenSettings sql.Open", "", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, sqliteError("OpenSettings Ping", "", err)
	}
	if _, err := sqlDB.Exec(settingsSchema); err != nil {
		_ = sqlDB.Close()
		return nil, sqliteError("OpenSettings create table", "", err)
	}
	return &Settings{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Settings) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Read returns the payload stored under key.
func (s *Settings) Read(key string) ([]byte, bool, error) {
	if !SettingsKeyValid(key) {
		return nil, false, errors.Wrapf(ErrKeyInvalid, "Settings key %q", key)
	}
	var payload []byte
	err := s.sqlDB.QueryRowContext(context.Background(), `SELECT value FROM settings WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, sqliteError("Settings.Read", key, err)
	}
	if payload == nil {
		payload = []byte{}
	}
	return payload, true, nil
}

// Write upserts key's payload in a single statement.
func (s *Settings) Write(key string, payload []byte) error {
	if !SettingsKeyValid(key) {
		return errors.Wrapf(ErrKeyInvalid, "Settings key %q", key)
	}
	if payload == nil {
		payload = []byte{}
	}
	_, err := s.sqlDB.ExecContext(
		context.Background(),
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key,
		payload,
		nowFunc().UTC().UnixMilli(),
	)
	if err != nil {
		return sqliteError("Settings.Write", key, err)
	}
	return nil
}

// Exists reports whether key holds a payload.
func (s *Settings) Exists(key string) bool {
	if !SettingsKeyValid(key) {
		return false
	}
	var one int
	err := s.sqlDB.QueryRowContext(context.Background(), `SELECT 1 FROM settings WHERE key = ?`, key).Scan(&one)
	return err == nil
}

// Delete removes key.
func (s *Settings) Delete(key string) error {
	if !SettingsKeyValid(key) {
		return errors.Wrapf(ErrKeyInvalid, "Settings key %q", key)
	}
	if _, err := s.sqlDB.ExecContext(context.Background(), `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return sqliteError("Settings.Delete", key, err)
	}
	return nil
}

// Keys returns every stored key in lexical order.
func (s *Settings) Keys() ([]string, error) {
	rows, err := s.sqlDB.QueryContext(context.Background(), `SELECT key FROM settings ORDER BY key`)
	if err != nil {
		return nil, sqliteError("Settings.Keys", "", err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, sqliteError("Settings.Keys scan", "", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteError("Settings.Keys rows", "", err)
	}
	return keys, nil
}

func sqliteError(op, key string, err error) *StorageError {
	se := storageError(op, key, ReasonIOFailure, err)
	var sqlErr *msqlite.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code() & 0xff {
		case sqlite3lib.SQLITE_PERM, sqlite3lib.SQLITE_READONLY, sqlite3lib.SQLITE_AUTH:
			se.Reason = ReasonPermissionDenied
		case sqlite3lib.SQLITE_CANTOPEN:
			se.Reason = ReasonNotFound
		}
	}
	return se
}
