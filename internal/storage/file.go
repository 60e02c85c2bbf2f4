package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sawyershoemaker/chess.com-tracker/internal/models"
)

// FileStore keeps the tracker state in one JSON file. Saves go through a
// temp file in the same directory followed by a rename, so a crash mid-
// write leaves the previous state intact.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the state file. A missing file is a first run and yields
// the zero state; an unreadable or unparseable file is an error.
func (s *FileStore) Load(ctx context.Context) (models.PersistedState, error) {
	var state models.PersistedState
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return state, fmt.Errorf("reading state file %s: %w", s.path, err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return models.PersistedState{}, fmt.Errorf("parsing state file %s: %w", s.path, err)
	}
	return state, nil
}

// Save replaces the state file with the given state, all or nothing.
func (s *FileStore) Save(ctx context.Context, state models.PersistedState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename has happened

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing state file %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
