package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const sessionFileMode = 0o600

// SessionStore keeps the remembered username in a plain file.
type SessionStore struct {
	path string
}

func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path}
}

func (ss *SessionStore) Save(_ context.Context, identity string) error {
	if err := os.MkdirAll(filepath.Dir(ss.path), 0o700); err != nil {
		return fmt.Errorf("could not create session directory: [%w]", err)
	}

	// The file is replaced atomically.
	tmpPath := ss.path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(identity), sessionFileMode); err != nil {
		return fmt.Errorf("could not write session file: [%w]", err)
	}

	if err := os.Rename(tmpPath, ss.path); err != nil {
		return fmt.Errorf("could not replace session file: [%w]", err)
	}

	return nil
}

func (ss *SessionStore) Load(_ context.Context) (string, bool, error) {
	content, err := os.ReadFile(ss.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("could not read session file: [%w]", err)
	}

	identity := strings.TrimSpace(string(content))

	return identity, len(identity) > 0, nil
}

func (ss *SessionStore) Clear(_ context.Context) error {
	err := os.Remove(ss.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("could not remove session file: [%w]", err)
	}

	return nil
}
