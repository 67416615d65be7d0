package state

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// tokenKey is the fixed storage key the session token lives under.
const tokenKey = "devlink.token"

// TokenStorage persists the bearer token across restarts so a session can
// be rehydrated before the server confirms it.
type TokenStorage struct {
	path string
}

// NewTokenStorage stores the token under dir. An empty dir uses the
// user's config directory, falling back to the working directory.
func NewTokenStorage(dir string) *TokenStorage {
	if dir == "" {
		if cfgDir, err := os.UserConfigDir(); err == nil {
			dir = filepath.Join(cfgDir, "devlink")
		} else {
			dir = "."
		}
	}
	return &TokenStorage{path: filepath.Join(dir, tokenKey)}
}

// Load returns the stored token, or "" when none is stored.
func (t *TokenStorage) Load() (string, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the token, replacing any previous one.
func (t *TokenStorage) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(t.path, []byte(token), 0o600)
}

// Clear removes the stored token. Clearing an empty store is a no-op.
func (t *TokenStorage) Clear() error {
	err := os.Remove(t.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
