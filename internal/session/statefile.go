package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/jobdeck/jobdeck/internal/models"
)

// ErrNoPersistedSession is returned when no session file exists.
var ErrNoPersistedSession = errors.New("no persisted session")

// persistedState is the durable session layout: the credential and the
// identity live in one file so they are written and cleared together.
type persistedState struct {
	Version  int              `json:"version"`
	Token    string           `json:"token"`
	Identity *models.Identity `json:"identity"`
}

// stateFile manages the session file on the local filesystem. Only the
// session store writes to it.
type stateFile struct {
	path string
}

func newStateFile(dir string) *stateFile {
	return &stateFile{path: filepath.Join(dir, "session.json")}
}

// load reads the persisted session. A missing file or one missing either
// half of the state reports ErrNoPersistedSession.
func (f *stateFile) load() (*persistedState, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoPersistedSession
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var st persistedState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}

	if st.Token == "" || st.Identity == nil {
		return nil, ErrNoPersistedSession
	}

	return &st, nil
}

// save writes the session file atomically with 0600 permissions.
func (f *stateFile) save(st *persistedState) error {
	st.Version = 1

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// Write to temp file first
	tempPath := f.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, f.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save session file: %w", err)
	}

	log.Debug().Str("path", f.path).Msg("session persisted")

	return nil
}

// clear removes the session file. Removing an absent file is not an error.
func (f *stateFile) clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
